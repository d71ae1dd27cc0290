// Package worker runs the background email delivery loop off the Redis
// job queue. Delivery happens out-of-band so a slow SMTP server never
// blocks a registration or webhook request.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventia/backend/internal/models"
	"github.com/eventia/backend/pkg/queue"
)

// Sender delivers one attendance token email.
type Sender interface {
	SendTokenEmail(ctx context.Context, to, name, eventTitle, token string) (string, error)
}

// LogStore records delivery outcomes.
type LogStore interface {
	Record(ctx context.Context, el *models.EmailLog) error
}

// EmailProcessor processes token email jobs: dequeue, send, record.
type EmailProcessor struct {
	queue  *queue.Queue
	sender Sender
	logs   LogStore
	logger *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(q *queue.Queue, sender Sender, logs LogStore, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{queue: q, sender: sender, logs: logs, logger: logger}
}

// Process executes one job and records the outcome in email_logs. The log
// row is written for both outcomes; a failed send also returns the error so
// the loop can retry the job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeTokenEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.TokenEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	_, sendErr := p.sender.SendTokenEmail(ctx, payload.RecipientEmail, payload.RecipientName,
		payload.EventTitle, payload.Token)

	el := &models.EmailLog{
		EventID:        &payload.EventID,
		RegistrationID: &payload.RegistrationID,
		EmailType:      models.EmailTypeAttendanceToken,
		RecipientEmail: payload.RecipientEmail,
		Subject:        fmt.Sprintf("Token Kehadiran: %s", payload.EventTitle),
	}
	if sendErr != nil {
		el.Status = models.EmailLogStatusFailed
		el.ErrorMessage = sendErr.Error()
	} else {
		now := time.Now()
		el.Status = models.EmailLogStatusSent
		el.SentAt = &now
	}
	if err := p.logs.Record(ctx, el); err != nil {
		p.logger.Error("record email log failed", zap.Error(err),
			zap.Int64("registration_id", payload.RegistrationID))
	}

	if sendErr != nil {
		return fmt.Errorf("send token email: %w", sendErr)
	}
	p.logger.Info("token email delivered",
		zap.Int64("registration_id", payload.RegistrationID),
		zap.String("recipient", payload.RecipientEmail))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
