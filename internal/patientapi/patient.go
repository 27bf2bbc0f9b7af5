package patientapi

import (
	"context"

	"github.com/dentalscan/scanctl/internal/model"
)

type studiesResponse struct {
	Studies []model.Study `json:"studies"`
	Count   int           `json:"count"`
}

type analysesResponse struct {
	Analyses []model.Analysis `json:"analyses"`
	Count    int              `json:"count"`
}

// SendResponse is returned when a study is submitted for analysis
type SendResponse struct {
	Message  string          `json:"message"`
	Analysis *model.Analysis `json:"analysis"`
}

// RefreshResponse carries the re-read analysis
type RefreshResponse struct {
	Message  string         `json:"message"`
	Analysis model.Analysis `json:"analysis"`
}

// ListStudies returns the patient's studies in server order
func (c *Client) ListStudies(ctx context.Context) ([]model.Study, error) {
	var out studiesResponse
	if err := c.getJSON(ctx, PathStudies, &out); err != nil {
		return nil, err
	}
	if out.Studies == nil {
		out.Studies = []model.Study{}
	}
	return out.Studies, nil
}

// ListAnalyses returns the patient's analyses, newest first
func (c *Client) ListAnalyses(ctx context.Context) ([]model.Analysis, error) {
	var out analysesResponse
	if err := c.getJSON(ctx, PathAnalyses, &out); err != nil {
		return nil, err
	}
	if out.Analyses == nil {
		out.Analyses = []model.Analysis{}
	}
	return out.Analyses, nil
}

// SendToAnalysis submits a stored study to the AI service
func (c *Client) SendToAnalysis(ctx context.Context, studyID uint64) (*SendResponse, error) {
	var out SendResponse
	if err := c.postJSON(ctx, PathSend, map[string]uint64{"study_id": studyID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshAnalysis asks the backend to re-read one analysis from the AI service
func (c *Client) RefreshAnalysis(ctx context.Context, analysisID uint64) (*RefreshResponse, error) {
	var out RefreshResponse
	if err := c.getJSON(ctx, RefreshPath(analysisID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
