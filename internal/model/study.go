package model

import "time"

// StudyStatus is the storage-side lifecycle of an uploaded scan
type StudyStatus string

const (
	StudyUploaded   StudyStatus = "uploaded"
	StudyProcessing StudyStatus = "processing"
	StudyAnalyzed   StudyStatus = "analyzed"
	StudyFailed     StudyStatus = "failed"
)

// Valid reports whether s is one of the known statuses
func (s StudyStatus) Valid() bool {
	switch s {
	case StudyUploaded, StudyProcessing, StudyAnalyzed, StudyFailed:
		return true
	default:
		return false
	}
}

// Variant returns the badge emphasis; unknown values are secondary
func (s StudyStatus) Variant() Variant {
	switch s {
	case StudyUploaded:
		return VariantPrimary
	case StudyProcessing:
		return VariantWarning
	case StudyAnalyzed:
		return VariantSuccess
	case StudyFailed:
		return VariantDanger
	default:
		return VariantSecondary
	}
}

// Study is one uploaded scan as reported by GET /api/patient/studies
type Study struct {
	ID             uint64      `json:"id"`
	PatientID      uint64      `json:"patient_id,omitempty"`
	OrthancStudyID string      `json:"orthanc_study_id,omitempty"`
	Description    string      `json:"description,omitempty"`
	Status         StudyStatus `json:"status"`
	FileSize       int64       `json:"file_size"`
	NumInstances   int         `json:"num_instances,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// HasLocalCopy reports whether the scan is stored in the local image archive
func (s *Study) HasLocalCopy() bool {
	return s.OrthancStudyID != ""
}
