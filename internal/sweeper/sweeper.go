// Package sweeper runs the periodic lifecycle job: no-shows past their
// attendance deadline are marked absent, and events that ended more than a
// month ago are archived out of the public listings.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eventia/backend/internal/models"
)

// Store is the persistence slice the sweeper needs.
type Store interface {
	ListExpiredPendingAttendance(ctx context.Context, now time.Time) ([]models.EventRegistration, error)
	MarkAbsent(ctx context.Context, operationalID int64) error
	ListEndedCandidates(ctx context.Context, cutoffDate time.Time) ([]models.Event, error)
	ArchiveEvent(ctx context.Context, id int64) error
}

// Sweeper mutates registration and event state on a timer, independent of
// user traffic. Both passes are idempotent: a second run right after the
// first finds nothing eligible.
type Sweeper struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// New creates a sweeper.
func New(store Store, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{store: store, logger: logger, now: time.Now}
}

// Run executes one sweep: mark absents, then archive ended events.
// Per-row failures are logged and skipped; the batch always completes.
func (s *Sweeper) Run(ctx context.Context) {
	now := s.now()
	s.markAbsent(ctx, now)
	s.archiveEnded(ctx, now)
}

// RunLoop runs sweeps on a fixed interval until ctx is cancelled. Sweeps
// execute sequentially on one goroutine, so a slow run is never overlapped
// by the next tick.
func (s *Sweeper) RunLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopping")
			return
		case <-ticker.C:
			s.Run(ctx)
		}
	}
}

func (s *Sweeper) markAbsent(ctx context.Context, now time.Time) {
	list, err := s.store.ListExpiredPendingAttendance(ctx, now)
	if err != nil {
		s.logger.Error("list expired attendance", zap.Error(err))
		return
	}
	marked := 0
	for _, er := range list {
		if err := s.store.MarkAbsent(ctx, er.ID); err != nil {
			s.logger.Error("mark absent", zap.Error(err), zap.Int64("registration_id", er.ID))
			continue
		}
		marked++
	}
	if marked > 0 {
		s.logger.Info("registrations marked absent", zap.Int("count", marked))
	}
}

func (s *Sweeper) archiveEnded(ctx context.Context, now time.Time) {
	cutoff := now.AddDate(0, -1, 0)
	// candidates are prefiltered on event_date in SQL; the effective end
	// (end_date/end_time fallbacks) is resolved here before archiving
	list, err := s.store.ListEndedCandidates(ctx, cutoff)
	if err != nil {
		s.logger.Error("list ended events", zap.Error(err))
		return
	}
	archived := 0
	for _, e := range list {
		if e.ID == 0 {
			continue
		}
		if !e.EndDateTime().Before(cutoff) {
			continue
		}
		if err := s.store.ArchiveEvent(ctx, e.ID); err != nil {
			s.logger.Error("archive event", zap.Error(err), zap.Int64("event_id", e.ID))
			continue
		}
		archived++
		s.logger.Info("event archived", zap.Int64("event_id", e.ID), zap.String("title", e.Title))
	}
	if archived > 0 {
		s.logger.Info("ended events archived", zap.Int("count", archived))
	}
}
