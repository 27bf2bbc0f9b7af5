// Package i18n renders user-facing text in the configured locale (en or ru).
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dentalscan/scanctl/internal/model"
	"github.com/dentalscan/scanctl/internal/reconcile"
	"github.com/dentalscan/scanctl/internal/report"
)

var (
	supported = []language.Tag{language.English, language.Russian}
	matcher   = language.NewMatcher(supported)
	builder   = catalogBuilder()
)

// Localizer translates messages for one locale. Safe for concurrent use.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a localizer for the closest supported match of locale, English
// when nothing matches
func New(locale string) *Localizer {
	tag := language.English
	if parsed, err := language.Parse(locale); err == nil {
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Localizer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(builder))}
}

// Tag returns the selected language
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// T formats a catalog message
func (l *Localizer) T(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// Message translates text if it is a known message and returns it unchanged
// otherwise. Server-provided text passes through as is.
func (l *Localizer) Message(text string) string {
	if _, known := russian[text]; !known {
		return text
	}
	return l.printer.Sprintf(text)
}

// StudyStatus labels a study status; unknown values are shown raw
func (l *Localizer) StudyStatus(s model.StudyStatus) string {
	switch s {
	case model.StudyUploaded:
		return l.T(LabelUploaded)
	case model.StudyProcessing:
		return l.T(LabelProcessing)
	case model.StudyAnalyzed:
		return l.T(LabelAnalyzed)
	case model.StudyFailed:
		return l.T(LabelFailed)
	default:
		return string(s)
	}
}

// AnalysisStatus labels an analysis status; unknown values are shown raw
func (l *Localizer) AnalysisStatus(s model.AnalysisStatus) string {
	switch s {
	case model.AnalysisUploading:
		return l.T(LabelUploading)
	case model.AnalysisProcessing:
		return l.T(LabelProcessing)
	case model.AnalysisComplete:
		return l.T(LabelComplete)
	case model.AnalysisFailed:
		return l.T(LabelFailed)
	default:
		return string(s)
	}
}

// Action labels a row action; ActionNone has no label
func (l *Localizer) Action(kind reconcile.ActionKind) string {
	switch kind {
	case reconcile.ActionSendToAI:
		return l.T(ActionSend)
	case reconcile.ActionRefresh:
		return l.T(ActionRefresh)
	case reconcile.ActionViewResults:
		return l.T(ActionView)
	default:
		return ""
	}
}

// Decision labels a clinician decision
func (l *Localizer) Decision(d report.Decision) string {
	switch d {
	case report.ConfirmedPositive:
		return l.T(ReportConfirmed)
	case report.ConfirmedNegative:
		return l.T(ReportRejected)
	default:
		return l.T(ReportUndecided)
	}
}

// SizeUnits returns the file size suffixes
func (l *Localizer) SizeUnits() report.SizeUnits {
	if l.tag == language.Russian {
		return report.SizeUnits{"Б", "КБ", "МБ", "ГБ"}
	}
	return report.DefaultSizeUnits
}

// FileSize formats bytes with localized units
func (l *Localizer) FileSize(bytes int64) string {
	return report.FormatFileSize(bytes, l.SizeUnits())
}
