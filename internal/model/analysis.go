package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// AnalysisStatus is the AI job lifecycle. Complete, not Status, decides whether results exist.
type AnalysisStatus string

const (
	AnalysisUploading  AnalysisStatus = "uploading"
	AnalysisProcessing AnalysisStatus = "processing"
	AnalysisComplete   AnalysisStatus = "complete"
	AnalysisFailed     AnalysisStatus = "failed"
)

// Valid reports whether s is one of the known statuses
func (s AnalysisStatus) Valid() bool {
	switch s {
	case AnalysisUploading, AnalysisProcessing, AnalysisComplete, AnalysisFailed:
		return true
	default:
		return false
	}
}

// Variant returns the badge emphasis; unknown values are secondary
func (s AnalysisStatus) Variant() Variant {
	switch s {
	case AnalysisUploading:
		return VariantInfo
	case AnalysisProcessing:
		return VariantWarning
	case AnalysisComplete:
		return VariantSuccess
	case AnalysisFailed:
		return VariantDanger
	default:
		return VariantSecondary
	}
}

// Analysis is one AI diagnostic job linked to a study
type Analysis struct {
	ID           uint64         `json:"id"`
	StudyID      uint64         `json:"study_id"`
	Status       AnalysisStatus `json:"status"`
	Complete     bool           `json:"complete"`
	AnalysisType string         `json:"analysis_type,omitempty"`
	Diagnoses    Diagnoses      `json:"diagnoses"`
	PDFURL       string         `json:"pdf_url,omitempty"`
	WebpageURL   string         `json:"webpage_url,omitempty"`
	PreviewURL   string         `json:"preview_url,omitempty"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Diagnoses is the ordered per-tooth findings list.
//
// The backend wraps the list as {"diagnoses": [...]}; decoding also accepts a bare
// array and null.
type Diagnoses []ToothDiagnosis

// UnmarshalJSON accepts the wrapper object, a bare array, or null
func (d *Diagnoses) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*d = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var list []ToothDiagnosis
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("decode diagnoses list: %w", err)
		}
		*d = list
	case '{':
		var wrapper struct {
			Diagnoses []ToothDiagnosis `json:"diagnoses"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return fmt.Errorf("decode diagnoses object: %w", err)
		}
		*d = wrapper.Diagnoses
	default:
		return fmt.Errorf("decode diagnoses: unexpected JSON %q", trimmed[:1])
	}
	return nil
}

// MarshalJSON emits the backend's wrapper form
func (d Diagnoses) MarshalJSON() ([]byte, error) {
	list := []ToothDiagnosis(d)
	if list == nil {
		list = []ToothDiagnosis{}
	}
	return json.Marshal(struct {
		Diagnoses []ToothDiagnosis `json:"diagnoses"`
	}{list})
}

// ToothDiagnosis holds the findings for one tooth
type ToothDiagnosis struct {
	ToothNumber       int               `json:"tooth_number"`
	Attributes        []Attribute       `json:"attributes"`
	PeriodontalStatus PeriodontalStatus `json:"periodontal_status"`
	TextComment       string            `json:"text_comment,omitempty"`
}

// HasPeriodontalData reports whether any root measurement is present
func (t *ToothDiagnosis) HasPeriodontalData() bool {
	return len(t.PeriodontalStatus.Roots) > 0
}

// Attribute is one pathology finding with the clinician's review state
type Attribute struct {
	AttributeID   int  `json:"attribute_id"`
	ModelPositive bool `json:"model_positive"`
	UserDecision  bool `json:"user_decision"`
	UserPositive  bool `json:"user_positive"`
}

// PeriodontalStatus carries per-root and per-site measurements
type PeriodontalStatus struct {
	Roots []RootMeasurement `json:"roots"`
	Sites []SiteMeasurement `json:"sites"`
}

// RootMeasurement is an opaque measurement set for one root
type RootMeasurement struct {
	Root         string         `json:"root"`
	Measurements map[string]any `json:"measurements"`
}

// SiteMeasurement is an opaque measurement set for one site
type SiteMeasurement struct {
	Site         string         `json:"site"`
	Measurements map[string]any `json:"measurements"`
}
