// Package repository holds the client-side copies of the patient's studies and
// analyses and performs the actions that change them.
//
// The two collections are fetched independently and are never assumed to be
// consistent with each other. A failed fetch leaves the held collection as it was.
package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/dentalscan/scanctl/internal/logger"
	"github.com/dentalscan/scanctl/internal/model"
)

// StudyLister fetches the patient's studies
type StudyLister interface {
	ListStudies(ctx context.Context) ([]model.Study, error)
}

// Studies is the study repository
type Studies struct {
	api StudyLister
	log logger.Logger

	mu     sync.RWMutex
	items  []model.Study
	loaded bool

	subs subscribers
}

// NewStudies returns an empty repository
func NewStudies(api StudyLister, log logger.Logger) *Studies {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Studies{api: api, log: log}
}

// List fetches the studies and replaces the held collection
func (s *Studies) List(ctx context.Context) ([]model.Study, error) {
	studies, err := s.api.ListStudies(ctx)
	if err != nil {
		s.log.Warn("failed to list studies", logger.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.items = slices.Clone(studies)
	s.loaded = true
	s.mu.Unlock()

	s.log.Debug("studies listed", logger.Int("count", len(studies)))
	s.subs.notify()
	return studies, nil
}

// Snapshot returns a copy of the held collection
func (s *Studies) Snapshot() []model.Study {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Loaded reports whether a fetch has ever succeeded
func (s *Studies) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Subscribe registers fn to run after every change of the held collection
func (s *Studies) Subscribe(fn func()) (unsubscribe func()) {
	return s.subs.add(fn)
}
