package resumeflow

import (
	"context"
	"log/slog"
	"time"
)

// DefaultReviewTTL is how long a record may sit awaiting review before the
// sweeper expires it.
const DefaultReviewTTL = 72 * time.Hour

// ReviewExpirer is the slice of storage the sweeper needs.
type ReviewExpirer interface {
	ExpireStaleReviews(ctx context.Context, ttl time.Duration) (int, error)
}

// Sweeper expires records stuck at the review boundary. Pending review is a
// true suspension with no timeout of its own, so something has to reap
// records whose reviewers never showed up; the sweeper runs on a Schedule
// and moves stale records to the terminal REVIEW_EXPIRED status.
type Sweeper struct {
	store    ReviewExpirer
	schedule Schedule
	ttl      time.Duration
	logger   *slog.Logger
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithReviewTTL overrides the review time-to-live.
func WithReviewTTL(ttl time.Duration) SweeperOption {
	return func(s *Sweeper) { s.ttl = ttl }
}

// WithSweeperLogger sets the sweeper logger.
func WithSweeperLogger(l *slog.Logger) SweeperOption {
	return func(s *Sweeper) { s.logger = l }
}

// NewSweeper creates a sweeper that runs on the given schedule.
func NewSweeper(store ReviewExpirer, schedule Schedule, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:    store,
		schedule: schedule,
		ttl:      DefaultReviewTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the sweep loop until the context is cancelled. It blocks;
// callers run it in a goroutine.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("sweeper started", "ttl", s.ttl)
	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper stopped")
			return ctx.Err()
		case <-timer.C:
		}
		s.Sweep(ctx)
	}
}

// Sweep runs one expiry pass immediately.
func (s *Sweeper) Sweep(ctx context.Context) {
	expired, err := s.store.ExpireStaleReviews(ctx, s.ttl)
	if err != nil {
		s.logger.Error("review expiry sweep failed", "error", err)
		return
	}
	if expired > 0 {
		s.logger.Info("expired stale reviews", "count", expired, "ttl", s.ttl)
	}
}
