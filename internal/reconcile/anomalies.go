package reconcile

import (
	"slices"

	"github.com/dentalscan/scanctl/internal/model"
)

// Report lists inconsistencies between the two collections. They are expected
// occasionally because the collections are fetched independently.
type Report struct {
	// MultipleAnalyses maps a study id to all its analysis ids in collection order;
	// the first id is the one rows use
	MultipleAnalyses map[uint64][]uint64
	// Orphans are analyses whose study is not in the study collection
	Orphans []uint64
}

// Empty reports whether nothing unusual was found
func (r Report) Empty() bool {
	return len(r.MultipleAnalyses) == 0 && len(r.Orphans) == 0
}

// Anomalies inspects the collections without changing the join
func Anomalies(studies []model.Study, analyses []model.Analysis) Report {
	known := make(map[uint64]struct{}, len(studies))
	for _, s := range studies {
		known[s.ID] = struct{}{}
	}

	byStudy := make(map[uint64][]uint64)
	var report Report
	for _, a := range analyses {
		if _, ok := known[a.StudyID]; !ok {
			report.Orphans = append(report.Orphans, a.ID)
			continue
		}
		byStudy[a.StudyID] = append(byStudy[a.StudyID], a.ID)
	}

	for studyID, ids := range byStudy {
		if len(ids) > 1 {
			if report.MultipleAnalyses == nil {
				report.MultipleAnalyses = make(map[uint64][]uint64)
			}
			report.MultipleAnalyses[studyID] = ids
		}
	}
	slices.Sort(report.Orphans)
	return report
}
