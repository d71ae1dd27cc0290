package email

import (
	"context"
	"testing"
)

func TestSendTokenEmailWithoutSMTP(t *testing.T) {
	sender := NewSender(Config{FromAddress: "noreply@eventia.id", FromName: "Eventia"}, nil)

	id, err := sender.SendTokenEmail(context.Background(), "budi@example.com", "Budi", "Seminar Nasional", "QWERTY23")
	if err != nil {
		t.Fatalf("SendTokenEmail() error = %v, disabled SMTP must not fail", err)
	}
	if id == "" {
		t.Error("SendTokenEmail() returned empty message id")
	}

	id2, _ := sender.SendTokenEmail(context.Background(), "budi@example.com", "Budi", "Seminar Nasional", "QWERTY23")
	if id == id2 {
		t.Error("message ids must be unique per send")
	}
}
