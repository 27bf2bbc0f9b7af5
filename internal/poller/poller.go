// Package poller drives the user-started watch loop that refreshes incomplete
// analyses until each one completes or fails.
package poller

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/logger"
	"github.com/dentalscan/scanctl/internal/model"
)

// Repository is the analysis collection the poller works on
type Repository interface {
	List(ctx context.Context) ([]model.Analysis, error)
	Snapshot() []model.Analysis
	Refresh(ctx context.Context, analysisID uint64) (model.Analysis, error)
}

// Observer is called after every refresh attempt. err is nil on success.
type Observer func(analysis model.Analysis, err error)

// Config paces the loop
type Config struct {
	// Interval is the minimum spacing between two refresh requests
	Interval time.Duration
	// Burst allows that many requests back to back
	Burst int
}

// Poller refreshes incomplete analyses at a limited rate
type Poller struct {
	repo     Repository
	limiter  *rate.Limiter
	log      logger.Logger
	observer Observer

	mu      sync.Mutex
	dropped map[uint64]struct{}
}

// New returns a poller; observer may be nil
func New(repo Repository, cfg Config, log logger.Logger, observer Observer) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Poller{
		repo:     repo,
		limiter:  rate.NewLimiter(rate.Every(cfg.Interval), cfg.Burst),
		log:      log,
		observer: observer,
		dropped:  make(map[uint64]struct{}),
	}
}

// Watching reports whether an analysis still needs refreshing. A failed analysis
// will not change anymore.
func Watching(a *model.Analysis) bool {
	return !a.Complete && a.Status != model.AnalysisFailed
}

// Run lists the analyses and refreshes every watched one, one request at a time,
// until none is left. It returns nil when done, the context error when cancelled,
// or the error that ended the session.
//
// Only transport failures are asked again in the next round. Any other failed
// refresh was answered by the server and drops that analysis for the rest of the run.
func (p *Poller) Run(ctx context.Context) error {
	if _, err := p.repo.List(ctx); err != nil {
		return err
	}

	for {
		pending := p.pending()
		if len(pending) == 0 {
			p.log.Info("no analyses left to watch")
			return nil
		}
		p.log.Debug("watch round", logger.Int("pending", len(pending)))

		for _, id := range pending {
			if err := p.limiter.Wait(ctx); err != nil {
				// the next slot lies beyond the deadline
				<-ctx.Done()
				return ctx.Err()
			}

			updated, err := p.repo.Refresh(ctx, id)
			final := err != nil && ctx.Err() == nil && !errors.IsNetwork(err) &&
				!errors.IsAuth(err) && !errors.IsCategory(err, errors.CategoryCancellation)
			if final {
				p.drop(id)
			}
			if p.observer != nil {
				if err != nil {
					updated = model.Analysis{ID: id}
				}
				p.observer(updated, err)
			}

			switch {
			case err == nil:
			case errors.IsAuth(err), errors.IsCategory(err, errors.CategoryCancellation):
				return err
			case ctx.Err() != nil:
				return ctx.Err()
			case final:
				p.log.Warn("refresh rejected, no longer watching analysis",
					logger.Uint64("analysis_id", id),
					logger.Error(err))
			default:
				p.log.Warn("refresh failed, asking again next round",
					logger.Uint64("analysis_id", id),
					logger.Error(err))
			}
		}
	}
}

// Pending returns how many analyses the poller would still refresh
func (p *Poller) Pending() int {
	return len(p.pending())
}

func (p *Poller) pending() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return watched(p.repo.Snapshot(), p.dropped)
}

func (p *Poller) drop(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropped[id] = struct{}{}
}

func watched(analyses []model.Analysis, dropped map[uint64]struct{}) []uint64 {
	var ids []uint64
	for i := range analyses {
		if _, skip := dropped[analyses[i].ID]; skip {
			continue
		}
		if Watching(&analyses[i]) {
			ids = append(ids, analyses[i].ID)
		}
	}
	return ids
}
