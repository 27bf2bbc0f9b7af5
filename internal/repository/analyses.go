package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dentalscan/scanctl/internal/busy"
	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/logger"
	"github.com/dentalscan/scanctl/internal/model"
	"github.com/dentalscan/scanctl/internal/patientapi"
)

// Busy set names, also used as metric labels
const (
	ActionSend    = "send"
	ActionRefresh = "refresh"
)

// User-facing rejection messages
const (
	MsgSendPending    = "This study is already being sent for analysis"
	MsgRefreshPending = "This analysis is already being refreshed"
)

// AnalysisAPI is the subset of the backend the analysis repository needs
type AnalysisAPI interface {
	ListAnalyses(ctx context.Context) ([]model.Analysis, error)
	SendToAnalysis(ctx context.Context, studyID uint64) (*patientapi.SendResponse, error)
	RefreshAnalysis(ctx context.Context, analysisID uint64) (*patientapi.RefreshResponse, error)
}

// RejectionRecorder counts actions rejected because the same id was pending
type RejectionRecorder interface {
	RecordBusyRejection(action string)
}

// Analyses is the analysis repository
type Analyses struct {
	api      AnalysisAPI
	log      logger.Logger
	recorder RejectionRecorder

	sending    *busy.Set
	refreshing *busy.Set

	mu     sync.RWMutex
	items  []model.Analysis
	loaded bool

	subs subscribers
}

// AnalysesOption configures an Analyses repository
type AnalysesOption func(*Analyses)

// WithBusyTTL expires pending flags that were never released
func WithBusyTTL(ttl time.Duration) AnalysesOption {
	return func(a *Analyses) {
		a.sending = busy.NewSet(ttl)
		a.refreshing = busy.NewSet(ttl)
	}
}

// WithRejectionRecorder reports busy rejections to r
func WithRejectionRecorder(r RejectionRecorder) AnalysesOption {
	return func(a *Analyses) {
		a.recorder = r
	}
}

// WithLogger sets the repository logger
func WithLogger(log logger.Logger) AnalysesOption {
	return func(a *Analyses) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAnalyses returns an empty repository
func NewAnalyses(api AnalysisAPI, opts ...AnalysesOption) *Analyses {
	a := &Analyses{
		api:        api,
		log:        logger.NewDiscard(),
		sending:    busy.NewSet(0),
		refreshing: busy.NewSet(0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// List fetches the analyses and replaces the held collection
func (a *Analyses) List(ctx context.Context) ([]model.Analysis, error) {
	analyses, err := a.api.ListAnalyses(ctx)
	if err != nil {
		a.log.Warn("failed to list analyses", logger.Error(err))
		return nil, err
	}

	a.mu.Lock()
	a.items = slices.Clone(analyses)
	a.loaded = true
	a.mu.Unlock()

	a.log.Debug("analyses listed", logger.Int("count", len(analyses)))
	a.subs.notify()
	return analyses, nil
}

// Send submits a study for analysis. A second Send for the same study while the
// first is pending is rejected without a request. On success the returned analysis
// is merged by id and the collection is listed again; a failed re-list is only
// logged.
func (a *Analyses) Send(ctx context.Context, studyID uint64) (*patientapi.SendResponse, error) {
	lease, ok := a.sending.TryAcquire(studyID)
	if !ok {
		a.reject(ActionSend, studyID)
		return nil, errors.ConflictError(MsgSendPending)
	}
	defer a.sending.Release(lease)

	resp, err := a.api.SendToAnalysis(ctx, studyID)
	if err != nil {
		a.log.Warn("send to analysis failed",
			logger.Uint64("study_id", studyID),
			logger.Error(err))
		return nil, err
	}

	a.log.Info("study sent for analysis", logger.Uint64("study_id", studyID))
	if resp.Analysis != nil {
		a.merge(*resp.Analysis)
	}

	if _, err := a.List(ctx); err != nil {
		a.log.Warn("analyses not reloaded after send",
			logger.Uint64("study_id", studyID),
			logger.Error(err))
	}
	return resp, nil
}

// Refresh re-reads one analysis and replaces the held entry with the same id. All
// other entries and their order are left alone; an id that is not held changes
// nothing.
func (a *Analyses) Refresh(ctx context.Context, analysisID uint64) (model.Analysis, error) {
	lease, ok := a.refreshing.TryAcquire(analysisID)
	if !ok {
		a.reject(ActionRefresh, analysisID)
		return model.Analysis{}, errors.ConflictError(MsgRefreshPending)
	}
	defer a.refreshing.Release(lease)

	resp, err := a.api.RefreshAnalysis(ctx, analysisID)
	if err != nil {
		a.log.Warn("refresh failed",
			logger.Uint64("analysis_id", analysisID),
			logger.Error(err))
		return model.Analysis{}, err
	}

	updated := resp.Analysis
	if a.replace(updated) {
		a.subs.notify()
	}
	a.log.Debug("analysis refreshed",
		logger.Uint64("analysis_id", updated.ID),
		logger.String("status", string(updated.Status)),
		logger.Bool("complete", updated.Complete))
	return updated, nil
}

// replace swaps the entry whose id matches updated.ID
func (a *Analyses) replace(updated model.Analysis) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := slices.IndexFunc(a.items, func(e model.Analysis) bool { return e.ID == updated.ID })
	if i < 0 {
		return false
	}
	a.items[i] = updated
	return true
}

// merge replaces the entry with the same id or puts a new one first, matching the
// backend's newest-first order
func (a *Analyses) merge(analysis model.Analysis) {
	if a.replace(analysis) {
		a.subs.notify()
		return
	}
	a.mu.Lock()
	a.items = slices.Insert(a.items, 0, analysis)
	a.mu.Unlock()
	a.subs.notify()
}

func (a *Analyses) reject(action string, id uint64) {
	a.log.Debug("action already pending",
		logger.String("action", action),
		logger.Uint64("id", id))
	if a.recorder != nil {
		a.recorder.RecordBusyRejection(action)
	}
}

// Snapshot returns a copy of the held collection
func (a *Analyses) Snapshot() []model.Analysis {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.items)
}

// Loaded reports whether a fetch has ever succeeded
func (a *Analyses) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loaded
}

// Sending reports whether a send for studyID is in flight
func (a *Analyses) Sending(studyID uint64) bool {
	return a.sending.Pending(studyID)
}

// Refreshing reports whether a refresh for analysisID is in flight
func (a *Analyses) Refreshing(analysisID uint64) bool {
	return a.refreshing.Pending(analysisID)
}

// Subscribe registers fn to run after every change of the held collection
func (a *Analyses) Subscribe(fn func()) (unsubscribe func()) {
	return a.subs.add(fn)
}
