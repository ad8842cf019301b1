// Package delivery sends composed emails through a primary SMTP account and,
// if that fails or times out, once through a backup account.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CorrelAid/order_mailer/metrics"
	"github.com/CorrelAid/order_mailer/models"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 10 * time.Second

type Deliverer struct {
	primary    Transport
	backup     Transport
	timeout    time.Duration
	senderName string
	log        *zap.SugaredLogger
}

func NewDeliverer(primary, backup Transport, timeout time.Duration, senderName string, log *zap.SugaredLogger) *Deliverer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Deliverer{
		primary:    primary,
		backup:     backup,
		timeout:    timeout,
		senderName: senderName,
		log:        log,
	}
}

// Deliver sends email through the primary transport and falls back to the
// backup transport exactly once. Attempts never overlap. When both fail the
// returned *models.DeliveryError carries both causes and reports the backup
// one.
func (d *Deliverer) Deliver(ctx context.Context, email models.Email) (models.Receipt, error) {
	if email.MessageID == "" {
		email.MessageID = NewMessageID(d.primary.From())
	}
	log := d.log.With("messageId", email.MessageID)

	primaryErr := d.attempt(ctx, d.primary, email)
	if primaryErr == nil {
		log.Infow("Mail sent", "transport", d.primary.Name())
		return models.Receipt{MessageID: email.MessageID, Transport: d.primary.Name()}, nil
	}
	log.Warnw("Primary transport failed, trying backup", "transport", d.primary.Name(), "error", primaryErr)
	metrics.DeliveryFallbacks.Inc()

	backupErr := d.attempt(ctx, d.backup, email)
	if backupErr == nil {
		log.Infow("Mail sent", "transport", d.backup.Name())
		return models.Receipt{MessageID: email.MessageID, Transport: d.backup.Name()}, nil
	}
	log.Errorw("Backup transport failed", "transport", d.backup.Name(), "error", backupErr)

	return models.Receipt{}, &models.DeliveryError{Primary: primaryErr, Backup: backupErr}
}

// attempt runs one send under its own deadline. The send runs in a goroutine
// so a transport that ignores its context still cannot hold the request past
// the deadline; its late result lands in the buffered channel and is dropped.
func (d *Deliverer) attempt(ctx context.Context, t Transport, email models.Email) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	msg := BuildMessage(email, t.From(), d.senderName)
	start := time.Now()

	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("transport panicked: %v", r)
			}
		}()
		result <- t.Send(ctx, msg)
	}()

	var err error
	select {
	case err = <-result:
	case <-ctx.Done():
		// A result that arrived together with the deadline still counts.
		select {
		case err = <-result:
		default:
			err = ctx.Err()
		}
	}

	metrics.DeliveryDuration.WithLabelValues(t.Name()).Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		metrics.DeliveryAttempts.WithLabelValues(t.Name(), "success").Inc()
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		metrics.DeliveryAttempts.WithLabelValues(t.Name(), "timeout").Inc()
		return fmt.Errorf("%s transport timed out after %s: %w", t.Name(), d.timeout, err)
	default:
		metrics.DeliveryAttempts.WithLabelValues(t.Name(), "failure").Inc()
		return fmt.Errorf("%s transport: %w", t.Name(), err)
	}
}
