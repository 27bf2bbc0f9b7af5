// Package reconcile joins the study and analysis collections into one row per
// study and decides which action each row offers.
//
// A study's analysis is the first analysis in collection order whose study_id
// matches. Later matches are never merged in; Anomalies reports them instead.
package reconcile

import "github.com/dentalscan/scanctl/internal/model"

// ActionKind is what a row lets the user do next
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSendToAI
	ActionRefresh
	ActionViewResults
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionSendToAI:
		return "send"
	case ActionRefresh:
		return "refresh"
	case ActionViewResults:
		return "view"
	default:
		return "unknown"
	}
}

// RowAction is the derived action. AnalysisID is set for Refresh and ViewResults.
type RowAction struct {
	Kind       ActionKind
	AnalysisID uint64
}

// Pending reports in-flight actions so rows can show them
type Pending interface {
	Sending(studyID uint64) bool
	Refreshing(analysisID uint64) bool
}

// Row is one study joined with its analysis
type Row struct {
	Study    model.Study
	Analysis *model.Analysis
	Action   RowAction
	// Pending is true while the row's action is in flight
	Pending bool
}

// FindAnalysis returns the first analysis for studyID, or nil
func FindAnalysis(studyID uint64, analyses []model.Analysis) *model.Analysis {
	for i := range analyses {
		if analyses[i].StudyID == studyID {
			return &analyses[i]
		}
	}
	return nil
}

// DeriveRowState decides the action for one study:
// a complete matched analysis can be viewed, an incomplete one refreshed, a study
// with a local archive copy and no analysis can be sent, anything else has no action.
func DeriveRowState(study model.Study, analyses []model.Analysis) RowAction {
	if a := FindAnalysis(study.ID, analyses); a != nil {
		if a.Complete {
			return RowAction{Kind: ActionViewResults, AnalysisID: a.ID}
		}
		return RowAction{Kind: ActionRefresh, AnalysisID: a.ID}
	}
	if study.HasLocalCopy() {
		return RowAction{Kind: ActionSendToAI}
	}
	return RowAction{Kind: ActionNone}
}

// BuildRows joins studies with analyses in study order. pending may be nil.
func BuildRows(studies []model.Study, analyses []model.Analysis, pending Pending) []Row {
	rows := make([]Row, 0, len(studies))
	for _, s := range studies {
		row := Row{Study: s, Action: DeriveRowState(s, analyses)}
		if a := FindAnalysis(s.ID, analyses); a != nil {
			analysis := *a
			row.Analysis = &analysis
		}
		if pending != nil {
			switch row.Action.Kind {
			case ActionSendToAI:
				row.Pending = pending.Sending(s.ID)
			case ActionRefresh:
				row.Pending = pending.Refreshing(row.Action.AnalysisID)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
