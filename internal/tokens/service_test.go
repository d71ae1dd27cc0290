package tokens

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eventia/backend/internal/models"
	"github.com/eventia/backend/pkg/queue"
)

type fakeStore struct {
	existing  *models.AttendanceToken
	created   *models.AttendanceToken
	createErr error
}

func (f *fakeStore) GetActiveByUserEvent(ctx context.Context, userID, eventID int64) (*models.AttendanceToken, error) {
	return f.existing, nil
}

func (f *fakeStore) Create(ctx context.Context, t *models.AttendanceToken) error {
	if f.createErr != nil {
		return f.createErr
	}
	t.ID = 42
	f.created = t
	return nil
}

type fakeEmailQueue struct {
	got  queue.TokenEmailPayload
	err  error
	hits int
}

func (f *fakeEmailQueue) EnqueueTokenEmail(ctx context.Context, payload queue.TokenEmailPayload) error {
	f.got = payload
	f.hits++
	return f.err
}

func issueParams() IssueParams {
	return IssueParams{
		RegistrationID: 21,
		UserID:         3,
		EventID:        7,
		EventTitle:     "Seminar Nasional",
		RecipientEmail: "budi@example.com",
		RecipientName:  "Budi Santoso",
		ExpiresAt:      time.Date(2026, 3, 11, 0, 59, 59, 0, time.UTC),
	}
}

func TestIssue(t *testing.T) {
	store := &fakeStore{}
	emails := &fakeEmailQueue{}
	svc := NewService(store, emails, nil)

	tok, err := svc.Issue(context.Background(), issueParams())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if len(tok.Token) != codeLength {
		t.Errorf("token length = %d, want %d", len(tok.Token), codeLength)
	}
	if store.created == nil || store.created.RegistrationID != 21 {
		t.Errorf("token not persisted with primary registration id: %+v", store.created)
	}
	if emails.hits != 1 {
		t.Fatalf("email enqueued %d times, want 1", emails.hits)
	}
	if emails.got.Token != tok.Token || emails.got.EventTitle != "Seminar Nasional" {
		t.Errorf("email payload = %+v", emails.got)
	}
}

func TestIssueIdempotent(t *testing.T) {
	existing := &models.AttendanceToken{ID: 1, Token: "QWERTY23", UserID: 3, EventID: 7}
	store := &fakeStore{existing: existing}
	emails := &fakeEmailQueue{}
	svc := NewService(store, emails, nil)

	tok, err := svc.Issue(context.Background(), issueParams())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if tok != existing {
		t.Errorf("Issue() = %+v, want the existing active token", tok)
	}
	if emails.hits != 0 {
		t.Errorf("email re-sent for existing token")
	}
}

func TestIssueEnqueueFailureNotFatal(t *testing.T) {
	store := &fakeStore{}
	emails := &fakeEmailQueue{err: errors.New("redis down")}
	svc := NewService(store, emails, nil)

	if _, err := svc.Issue(context.Background(), issueParams()); err != nil {
		t.Fatalf("Issue() error = %v, enqueue failure must not surface", err)
	}
}

func TestIssueCreateFailure(t *testing.T) {
	store := &fakeStore{createErr: errors.New("duplicate")}
	emails := &fakeEmailQueue{}
	svc := NewService(store, emails, nil)

	if _, err := svc.Issue(context.Background(), issueParams()); err == nil {
		t.Fatal("Issue() error = nil, want create error")
	}
	if emails.hits != 0 {
		t.Errorf("email enqueued despite failed create")
	}
}

func TestIssueSkipsEmailWithoutRecipient(t *testing.T) {
	store := &fakeStore{}
	emails := &fakeEmailQueue{}
	svc := NewService(store, emails, nil)

	p := issueParams()
	p.RecipientEmail = ""
	if _, err := svc.Issue(context.Background(), p); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if emails.hits != 0 {
		t.Errorf("email enqueued without recipient")
	}
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode() error = %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("code %q length = %d, want %d", code, len(code), codeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeCharset, c) {
				t.Fatalf("code %q contains %q outside charset", code, c)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("codes are not random")
	}
}
