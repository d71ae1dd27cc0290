package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eventia/backend/internal/models"
)

type fakeTokenStore struct {
	byCode   *models.AttendanceToken
	active   *models.AttendanceToken
	created  *models.AttendanceToken
	usedIDs  []int64
	usedErr  error
	codeErr  error
}

func (f *fakeTokenStore) GetByCode(ctx context.Context, code string) (*models.AttendanceToken, error) {
	return f.byCode, f.codeErr
}

func (f *fakeTokenStore) GetActiveByUserEvent(ctx context.Context, userID, eventID int64) (*models.AttendanceToken, error) {
	return f.active, nil
}

func (f *fakeTokenStore) Create(ctx context.Context, t *models.AttendanceToken) error {
	t.ID = 42
	f.created = t
	return nil
}

func (f *fakeTokenStore) MarkUsed(ctx context.Context, id int64) error {
	if f.usedErr != nil {
		return f.usedErr
	}
	f.usedIDs = append(f.usedIDs, id)
	return nil
}

type fakeAttendanceStore struct {
	existing    *models.Attendance
	created     *models.Attendance
	presentHits int
}

func (f *fakeAttendanceStore) GetByUserEvent(ctx context.Context, userID, eventID int64) (*models.Attendance, error) {
	return f.existing, nil
}

func (f *fakeAttendanceStore) Create(ctx context.Context, a *models.Attendance) error {
	a.ID = 55
	f.created = a
	return nil
}

func (f *fakeAttendanceStore) MarkPresent(ctx context.Context, userID, eventID int64) error {
	f.presentHits++
	return nil
}

var checkInNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestAttendanceService(tokens TokenStore, store Store) *Service {
	s := NewService(tokens, store, nil)
	s.now = func() time.Time { return checkInNow }
	return s
}

func validToken() *models.AttendanceToken {
	return &models.AttendanceToken{
		ID:        1,
		UserID:    3,
		EventID:   7,
		Token:     "QWERTY23",
		ExpiresAt: checkInNow.Add(12 * time.Hour),
	}
}

func TestCheckIn(t *testing.T) {
	tokens := &fakeTokenStore{byCode: validToken()}
	store := &fakeAttendanceStore{}
	svc := newTestAttendanceService(tokens, store)

	a, err := svc.CheckIn(context.Background(), "QWERTY23")
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if len(tokens.usedIDs) != 1 || tokens.usedIDs[0] != 1 {
		t.Errorf("MarkUsed ids = %v, want [1]", tokens.usedIDs)
	}
	if store.presentHits != 1 {
		t.Errorf("MarkPresent hits = %d, want 1", store.presentHits)
	}
	if a.UserID != 3 || a.EventID != 7 || a.TokenID == nil || *a.TokenID != 1 {
		t.Errorf("attendance = %+v", a)
	}
}

func TestCheckInRejections(t *testing.T) {
	used := validToken()
	used.IsUsed = true
	expired := validToken()
	expired.ExpiresAt = checkInNow.Add(-time.Minute)

	cases := []struct {
		name  string
		token *models.AttendanceToken
		want  error
	}{
		{"unknown code", nil, ErrTokenNotFound},
		{"already used", used, ErrTokenUsed},
		{"expired", expired, ErrTokenExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := &fakeTokenStore{byCode: tc.token}
			svc := newTestAttendanceService(tokens, &fakeAttendanceStore{})
			if _, err := svc.CheckIn(context.Background(), "QWERTY23"); !errors.Is(err, tc.want) {
				t.Fatalf("CheckIn() error = %v, want %v", err, tc.want)
			}
			if len(tokens.usedIDs) != 0 {
				t.Errorf("token consumed despite rejection")
			}
		})
	}
}

func TestEnsureExistingAttendance(t *testing.T) {
	store := &fakeAttendanceStore{existing: &models.Attendance{ID: 9}}
	tokens := &fakeTokenStore{}
	svc := newTestAttendanceService(tokens, store)

	id, err := svc.Ensure(context.Background(), 3, 7, 21)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if id != 9 {
		t.Errorf("Ensure() = %d, want existing id 9", id)
	}
	if tokens.created != nil || len(tokens.usedIDs) != 0 {
		t.Error("token minted for existing attendance")
	}
}

func TestEnsureConsumesActiveToken(t *testing.T) {
	tokens := &fakeTokenStore{active: validToken()}
	store := &fakeAttendanceStore{}
	svc := newTestAttendanceService(tokens, store)

	id, err := svc.Ensure(context.Background(), 3, 7, 21)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if id != 55 {
		t.Errorf("Ensure() = %d, want created attendance id", id)
	}
	if len(tokens.usedIDs) != 1 || tokens.usedIDs[0] != 1 {
		t.Errorf("active token not consumed: %v", tokens.usedIDs)
	}
	if tokens.created != nil {
		t.Error("new token minted while an active one existed")
	}
}

func TestEnsureMintsPreUsedToken(t *testing.T) {
	tokens := &fakeTokenStore{}
	store := &fakeAttendanceStore{}
	svc := newTestAttendanceService(tokens, store)

	id, err := svc.Ensure(context.Background(), 3, 7, 21)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if id != 55 {
		t.Errorf("Ensure() = %d, want created attendance id", id)
	}
	if tokens.created == nil {
		t.Fatal("no token minted")
	}
	if tokens.created.RegistrationID != 21 {
		t.Errorf("minted token registration id = %d, want 21", tokens.created.RegistrationID)
	}
	if !tokens.created.ExpiresAt.Equal(checkInNow) {
		t.Errorf("minted token expiry = %v, want now (pre-expired)", tokens.created.ExpiresAt)
	}
	if len(tokens.usedIDs) != 1 || tokens.usedIDs[0] != 42 {
		t.Errorf("minted token not consumed: %v", tokens.usedIDs)
	}
	if store.created == nil || store.created.TokenID == nil || *store.created.TokenID != 42 {
		t.Errorf("attendance not linked to minted token: %+v", store.created)
	}
}
