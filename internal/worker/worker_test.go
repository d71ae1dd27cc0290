package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/eventia/backend/internal/models"
	"github.com/eventia/backend/pkg/queue"
)

type fakeSender struct {
	err  error
	got  [4]string
	hits int
}

func (f *fakeSender) SendTokenEmail(ctx context.Context, to, name, eventTitle, token string) (string, error) {
	f.got = [4]string{to, name, eventTitle, token}
	f.hits++
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

type fakeLogStore struct {
	got *models.EmailLog
}

func (f *fakeLogStore) Record(ctx context.Context, el *models.EmailLog) error {
	f.got = el
	return nil
}

func tokenEmailJob(t *testing.T) *queue.Job {
	t.Helper()
	payload, err := json.Marshal(queue.TokenEmailPayload{
		RegistrationID: 21,
		EventID:        7,
		RecipientEmail: "budi@example.com",
		RecipientName:  "Budi Santoso",
		EventTitle:     "Seminar Nasional",
		Token:          "QWERTY23",
	})
	if err != nil {
		t.Fatal(err)
	}
	return &queue.Job{ID: "job-1", Type: queue.JobTypeTokenEmail, Payload: payload}
}

func TestProcessSent(t *testing.T) {
	sender := &fakeSender{}
	logs := &fakeLogStore{}
	p := NewEmailProcessor(nil, sender, logs, nil)

	if err := p.Process(context.Background(), tokenEmailJob(t)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if sender.got != [4]string{"budi@example.com", "Budi Santoso", "Seminar Nasional", "QWERTY23"} {
		t.Errorf("sender got %v", sender.got)
	}
	if logs.got == nil {
		t.Fatal("no email log recorded")
	}
	if logs.got.Status != models.EmailLogStatusSent || logs.got.SentAt == nil {
		t.Errorf("log = %+v, want sent with timestamp", logs.got)
	}
	if logs.got.RegistrationID == nil || *logs.got.RegistrationID != 21 {
		t.Errorf("log registration id = %v, want 21", logs.got.RegistrationID)
	}
}

func TestProcessFailureRecordedAndReturned(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp timeout")}
	logs := &fakeLogStore{}
	p := NewEmailProcessor(nil, sender, logs, nil)

	if err := p.Process(context.Background(), tokenEmailJob(t)); err == nil {
		t.Fatal("Process() error = nil, want send failure for retry")
	}
	if logs.got == nil || logs.got.Status != models.EmailLogStatusFailed {
		t.Fatalf("log = %+v, want failed row", logs.got)
	}
	if logs.got.ErrorMessage == "" {
		t.Error("failed log has no error message")
	}
}

func TestProcessUnknownJobType(t *testing.T) {
	p := NewEmailProcessor(nil, &fakeSender{}, &fakeLogStore{}, nil)
	job := &queue.Job{ID: "job-2", Type: "mystery"}
	if err := p.Process(context.Background(), job); err == nil {
		t.Fatal("Process() error = nil, want unknown job type error")
	}
}
