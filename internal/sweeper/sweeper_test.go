package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eventia/backend/internal/models"
)

type fakeStore struct {
	expired     []models.EventRegistration
	expiredErr  error
	absentIDs   []int64
	absentErr   map[int64]error
	candidates  []models.Event
	archivedIDs []int64
}

func (f *fakeStore) ListExpiredPendingAttendance(ctx context.Context, now time.Time) ([]models.EventRegistration, error) {
	return f.expired, f.expiredErr
}

func (f *fakeStore) MarkAbsent(ctx context.Context, operationalID int64) error {
	if err := f.absentErr[operationalID]; err != nil {
		return err
	}
	f.absentIDs = append(f.absentIDs, operationalID)
	return nil
}

func (f *fakeStore) ListEndedCandidates(ctx context.Context, cutoffDate time.Time) ([]models.Event, error) {
	return f.candidates, nil
}

func (f *fakeStore) ArchiveEvent(ctx context.Context, id int64) error {
	f.archivedIDs = append(f.archivedIDs, id)
	return nil
}

var sweepNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSweeper(store Store) *Sweeper {
	s := New(store, nil)
	s.now = func() time.Time { return sweepNow }
	return s
}

func TestRunMarksAbsent(t *testing.T) {
	store := &fakeStore{
		expired: []models.EventRegistration{{ID: 11}, {ID: 12}, {ID: 13}},
		absentErr: map[int64]error{
			12: errors.New("db down"),
		},
	}
	newTestSweeper(store).Run(context.Background())

	if len(store.absentIDs) != 2 {
		t.Fatalf("absent ids = %v, want the two rows that did not error", store.absentIDs)
	}
	if store.absentIDs[0] != 11 || store.absentIDs[1] != 13 {
		t.Errorf("absent ids = %v, per-row failure must not stop the batch", store.absentIDs)
	}
}

func TestRunArchivesEndedEvents(t *testing.T) {
	endOld := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	endRecent := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		candidates: []models.Event{
			// ended well over a month ago
			{ID: 1, EventDate: endOld, EventTime: "09:00:00"},
			// candidate by event_date but effective end inside the month
			{ID: 2, EventDate: endOld, EventTime: "09:00:00", EndDate: &endRecent},
			// zero id rows are skipped
			{EventDate: endOld},
		},
	}
	newTestSweeper(store).Run(context.Background())

	if len(store.archivedIDs) != 1 || store.archivedIDs[0] != 1 {
		t.Errorf("archived ids = %v, want [1]", store.archivedIDs)
	}
}

func TestRunIdempotent(t *testing.T) {
	store := &fakeStore{
		expired:    []models.EventRegistration{{ID: 11}},
		candidates: []models.Event{{ID: 1, EventDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}},
	}
	s := newTestSweeper(store)
	s.Run(context.Background())

	// second run finds nothing eligible
	store.expired = nil
	store.candidates = nil
	s.Run(context.Background())

	if len(store.absentIDs) != 1 || len(store.archivedIDs) != 1 {
		t.Errorf("second run repeated work: absent=%v archived=%v", store.absentIDs, store.archivedIDs)
	}
}

func TestRunSurvivesListFailure(t *testing.T) {
	store := &fakeStore{
		expiredErr: errors.New("db down"),
		candidates: []models.Event{{ID: 1, EventDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}},
	}
	newTestSweeper(store).Run(context.Background())

	if len(store.archivedIDs) != 1 {
		t.Errorf("archive pass skipped after mark-absent failure: %v", store.archivedIDs)
	}
}
