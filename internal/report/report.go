// Package report turns a completed analysis into the counters and per-tooth
// breakdown shown by `scanctl report`.
package report

import (
	"net/url"
	"strings"

	"github.com/dentalscan/scanctl/internal/model"
)

// Summary holds the aggregate counters of one analysis
type Summary struct {
	AffectedTeeth        int // teeth with any diagnosis entry
	TotalPathologies     int // attributes across all teeth
	WithPeriodontalData  int // teeth with at least one root measurement
	WithComments         int // teeth with a non-empty comment
	ConfirmedPathologies int
	RejectedPathologies  int
}

// Summarize computes the counters. An analysis without diagnoses gives all zeros.
func Summarize(a *model.Analysis) Summary {
	var s Summary
	s.AffectedTeeth = len(a.Diagnoses)
	for i := range a.Diagnoses {
		tooth := &a.Diagnoses[i]
		s.TotalPathologies += len(tooth.Attributes)
		if tooth.HasPeriodontalData() {
			s.WithPeriodontalData++
		}
		if tooth.TextComment != "" {
			s.WithComments++
		}
		for _, attr := range tooth.Attributes {
			switch DecisionOf(attr) {
			case ConfirmedPositive:
				s.ConfirmedPathologies++
			case ConfirmedNegative:
				s.RejectedPathologies++
			}
		}
	}
	return s
}

// Decision is the clinician's verdict on one finding
type Decision int

const (
	Undecided Decision = iota
	ConfirmedPositive
	ConfirmedNegative
)

func (d Decision) String() string {
	switch d {
	case ConfirmedPositive:
		return "confirmed"
	case ConfirmedNegative:
		return "rejected"
	default:
		return "undecided"
	}
}

// DecisionOf reads the tri-state from the two review flags. user_positive is
// meaningless until user_decision is set.
func DecisionOf(attr model.Attribute) Decision {
	switch {
	case !attr.UserDecision:
		return Undecided
	case attr.UserPositive:
		return ConfirmedPositive
	default:
		return ConfirmedNegative
	}
}

// Finding is one attribute with its decision resolved
type Finding struct {
	AttributeID   int
	ModelPositive bool
	Decision      Decision
}

// Tooth is the per-tooth breakdown
type Tooth struct {
	Number         int
	Findings       []Finding
	HasPeriodontal bool
	Roots          []string
	Comment        string
}

// Teeth lists the teeth in server order
func Teeth(a *model.Analysis) []Tooth {
	teeth := make([]Tooth, 0, len(a.Diagnoses))
	for _, d := range a.Diagnoses {
		t := Tooth{
			Number:         d.ToothNumber,
			HasPeriodontal: d.HasPeriodontalData(),
			Comment:        d.TextComment,
			Findings:       make([]Finding, 0, len(d.Attributes)),
		}
		for _, attr := range d.Attributes {
			t.Findings = append(t.Findings, Finding{
				AttributeID:   attr.AttributeID,
				ModelPositive: attr.ModelPositive,
				Decision:      DecisionOf(attr),
			})
		}
		for _, r := range d.PeriodontalStatus.Roots {
			t.Roots = append(t.Roots, r.Root)
		}
		teeth = append(teeth, t)
	}
	return teeth
}

// LinkKind names a report artifact
type LinkKind string

const (
	LinkPDF     LinkKind = "pdf"
	LinkWebpage LinkKind = "webpage"
	LinkPreview LinkKind = "preview"
)

// Link is one downloadable or viewable report artifact
type Link struct {
	Kind LinkKind
	URL  string
}

// Links returns the artifacts present on the analysis
func Links(a *model.Analysis) []Link {
	var links []Link
	for _, l := range []Link{
		{LinkPDF, a.PDFURL},
		{LinkWebpage, a.WebpageURL},
		{LinkPreview, a.PreviewURL},
	} {
		if l.URL != "" {
			links = append(links, l)
		}
	}
	return links
}

// ViewerURL links a study's local archive copy in the archive's web explorer. It
// returns "" when the study has no local copy.
func ViewerURL(viewerBase string, s *model.Study) string {
	if !s.HasLocalCopy() {
		return ""
	}
	return strings.TrimSuffix(viewerBase, "/") + "/app/explorer.html#study?uuid=" + url.QueryEscape(s.OrthancStudyID)
}
