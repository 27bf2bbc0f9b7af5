package repository

import (
	"context"
	"sync"

	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/model"
	"github.com/dentalscan/scanctl/internal/patientapi"
)

// fakeAPI serves canned collections. Sends and refreshes block on gate when it is set.
type fakeAPI struct {
	mu       sync.Mutex
	studies  []model.Study
	analyses []model.Analysis
	refresh  map[uint64]model.Analysis
	sendResp map[uint64]*patientapi.SendResponse
	listErr  error

	gate    chan struct{}
	started chan uint64

	calls map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		refresh:  make(map[uint64]model.Analysis),
		sendResp: make(map[uint64]*patientapi.SendResponse),
		calls:    make(map[string]int),
	}
}

func (f *fakeAPI) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) wait(ctx context.Context, id uint64) error {
	if f.started != nil {
		f.started <- id
	}
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) ListStudies(context.Context) ([]model.Study, error) {
	f.count("studies")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Study(nil), f.studies...), nil
}

func (f *fakeAPI) ListAnalyses(context.Context) ([]model.Analysis, error) {
	f.count("analyses")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Analysis(nil), f.analyses...), nil
}

func (f *fakeAPI) SendToAnalysis(ctx context.Context, studyID uint64) (*patientapi.SendResponse, error) {
	f.count("send")
	if err := f.wait(ctx, studyID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	resp, ok := f.sendResp[studyID]
	if !ok {
		return nil, errors.RequestError("POST", patientapi.PathSend, 404, "Study not found")
	}
	return resp, nil
}

func (f *fakeAPI) RefreshAnalysis(ctx context.Context, analysisID uint64) (*patientapi.RefreshResponse, error) {
	f.count("refresh")
	if err := f.wait(ctx, analysisID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.refresh[analysisID]
	if !ok {
		return nil, errors.RequestError("GET", patientapi.RefreshPath(analysisID), 404, "Analysis not found")
	}
	return &patientapi.RefreshResponse{Analysis: a}, nil
}
