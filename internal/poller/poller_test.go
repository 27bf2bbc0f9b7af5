package poller

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/model"
)

// fakeRepo completes an analysis after it has been refreshed `after` times
type fakeRepo struct {
	mu       sync.Mutex
	items    []model.Analysis
	after    map[uint64]int
	refresh  map[uint64]int
	failWith map[uint64]error
}

func (f *fakeRepo) List(context.Context) ([]model.Analysis, error) {
	return f.Snapshot(), nil
}

func (f *fakeRepo) Snapshot() []model.Analysis {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

func (f *fakeRepo) Refresh(_ context.Context, id uint64) (model.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[id]++
	if err := f.failWith[id]; err != nil {
		return model.Analysis{}, err
	}
	for i := range f.items {
		if f.items[i].ID != id {
			continue
		}
		if f.refresh[id] >= f.after[id] {
			f.items[i].Complete = true
			f.items[i].Status = model.AnalysisComplete
		}
		return f.items[i], nil
	}
	return model.Analysis{}, errors.RequestError("GET", "refresh", 404, "Analysis not found")
}

func (f *fakeRepo) count(id uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh[id]
}

func newFakeRepo(items ...model.Analysis) *fakeRepo {
	return &fakeRepo{
		items:    items,
		after:    make(map[uint64]int),
		refresh:  make(map[uint64]int),
		failWith: make(map[uint64]error),
	}
}

func fastConfig() Config {
	return Config{Interval: time.Millisecond, Burst: 10}
}

func TestRunUntilAllComplete(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(
		model.Analysis{ID: 1, Status: model.AnalysisProcessing},
		model.Analysis{ID: 2, Status: model.AnalysisComplete, Complete: true},
		model.Analysis{ID: 3, Status: model.AnalysisFailed},
		model.Analysis{ID: 4, Status: model.AnalysisUploading},
	)
	repo.after[1] = 3
	repo.after[4] = 1

	var mu sync.Mutex
	var observed []uint64
	p := New(repo, fastConfig(), nil, func(a model.Analysis, err error) {
		mu.Lock()
		defer mu.Unlock()
		assert.NoError(t, err)
		observed = append(observed, a.ID)
	})

	require.NoError(t, p.Run(t.Context()))
	assert.Equal(t, 3, repo.count(1))
	assert.Equal(t, 1, repo.count(4))
	assert.Zero(t, repo.count(2), "complete analyses are not refreshed")
	assert.Zero(t, repo.count(3), "failed analyses are not refreshed")
	assert.Len(t, observed, 4)
}

func TestRunStopsOnAuthError(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(model.Analysis{ID: 1})
	repo.failWith[1] = errors.AuthError("GET", "refresh", 401, "")
	p := New(repo, fastConfig(), nil, nil)

	err := p.Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
	assert.Equal(t, 1, repo.count(1))
}

func TestRunKeepsGoingAfterTransientError(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(model.Analysis{ID: 1})
	repo.failWith[1] = errors.NetworkError(context.DeadlineExceeded, "http://backend.test", 0)
	p := New(repo, fastConfig(), nil, nil)

	go func() {
		assert.Eventually(t, func() bool { return repo.count(1) >= 3 }, time.Second, time.Millisecond)
		repo.mu.Lock()
		delete(repo.failWith, 1)
		repo.mu.Unlock()
	}()

	require.NoError(t, p.Run(t.Context()))
	assert.GreaterOrEqual(t, repo.count(1), 4)
}

func TestRunDropsAnalysisRejectedByServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"not found", errors.RequestError("GET", "refresh", 404, "Analysis not found")},
		{"server error", errors.RequestError("GET", "refresh", 500, "Diagnocat not configured")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := newFakeRepo(
				model.Analysis{ID: 1, Status: model.AnalysisProcessing},
				model.Analysis{ID: 2, Status: model.AnalysisProcessing},
			)
			repo.failWith[1] = tt.err
			repo.after[2] = 3

			var mu sync.Mutex
			var failures []uint64
			p := New(repo, fastConfig(), nil, func(a model.Analysis, err error) {
				if err == nil {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				failures = append(failures, a.ID)
			})

			ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
			defer cancel()

			require.NoError(t, p.Run(ctx))
			assert.Equal(t, 1, repo.count(1), "a rejected analysis is requested once")
			assert.Equal(t, 3, repo.count(2), "other analyses keep being watched")
			assert.Zero(t, p.Pending())
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, []uint64{1}, failures)
		})
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(model.Analysis{ID: 1})
	repo.after[1] = 1 << 30
	p := New(repo, Config{Interval: time.Hour, Burst: 1}, nil, nil)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, repo.count(1), "burst of one allows a single immediate refresh")
}

func TestRunWithNothingToWatch(t *testing.T) {
	t.Parallel()

	p := New(newFakeRepo(), Config{}, nil, nil)
	assert.NoError(t, p.Run(t.Context()))
}
