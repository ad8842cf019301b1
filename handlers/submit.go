// Package handlers holds the HTTP handlers of the mailer.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/CorrelAid/order_mailer/composer"
	"github.com/CorrelAid/order_mailer/config"
	"github.com/CorrelAid/order_mailer/metrics"
	"github.com/CorrelAid/order_mailer/middleware"
	"github.com/CorrelAid/order_mailer/models"
	"github.com/CorrelAid/order_mailer/operations"
	"github.com/CorrelAid/order_mailer/parsers"
	"github.com/CorrelAid/order_mailer/validators"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-memdb"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	// MaxIdempotencyKeyLen bounds the ledger key, as X-Request-ID is bounded.
	MaxIdempotencyKeyLen = 128
)

// Deliverer sends a composed email.
type Deliverer interface {
	Deliver(ctx context.Context, email models.Email) (models.Receipt, error)
}

type SubmitHandler struct {
	deliverer      Deliverer
	recipient      string
	limits         config.Limits
	ledger         *memdb.MemDB
	idempotencyTTL time.Duration
	log            *zap.SugaredLogger
	now            func() time.Time
}

// NewSubmitHandler wires the submission pipeline. ledger may be nil, which
// disables Idempotency-Key handling.
func NewSubmitHandler(cfg config.Config, deliverer Deliverer, ledger *memdb.MemDB, log *zap.SugaredLogger) *SubmitHandler {
	return &SubmitHandler{
		deliverer:      deliverer,
		recipient:      cfg.Recipient,
		limits:         cfg.Limits,
		ledger:         ledger,
		idempotencyTTL: cfg.IdempotencyTTL,
		log:            log,
		now:            time.Now,
	}
}

// Submit runs parse, validate, compose and deliver for one form submission
// and writes exactly one response.
func (h *SubmitHandler) Submit(c *gin.Context) {
	log := middleware.GetReqLogger(c, h.log)

	receipt, replayed, err := h.process(c, log)
	if err != nil {
		h.respondError(c, log, err)
		return
	}

	outcome := "delivered"
	if replayed {
		outcome = "replayed"
	}
	metrics.Submissions.WithLabelValues(outcome).Inc()
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success:   true,
		Message:   "Email sent successfully",
		MessageID: receipt.MessageID,
	})
}

func (h *SubmitHandler) process(c *gin.Context, log *zap.SugaredLogger) (models.Receipt, bool, error) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > MaxIdempotencyKeyLen {
		return models.Receipt{}, false, models.NewValidationError(IdempotencyKeyHeader,
			fmt.Sprintf("must not exceed %d characters", MaxIdempotencyKeyLen))
	}

	form, err := parsers.ParseMultipart(c.Writer, c.Request, h.limits)
	if err != nil {
		return models.Receipt{}, false, err
	}
	log.Debugw("Parsed submission body", "fields", len(form.Fields), "files", len(form.Files))

	submission, attachments, err := validators.ValidateProcessFormData(form)
	if err != nil {
		return models.Receipt{}, false, err
	}
	log = log.With("type", submission.Type, "tmName", submission.TmName)

	if key != "" && h.ledger != nil {
		receipt, ok, err := operations.FindDelivery(h.ledger, key, h.now())
		if err != nil {
			log.Errorw("Idempotency lookup failed, sending anyway", "error", err)
		} else if ok {
			log.Infow("Submission already delivered", "idempotencyKey", key, "messageId", receipt.MessageID)
			metrics.IdempotentReplays.Inc()
			return receipt, true, nil
		}
	}

	email, err := composer.Compose(submission, attachments)
	if err != nil {
		return models.Receipt{}, false, err
	}
	email.To = h.recipient

	// A client hanging up does not cancel a delivery that is under way.
	ctx := context.WithoutCancel(c.Request.Context())
	receipt, err := h.deliverer.Deliver(ctx, email)
	if err != nil {
		return models.Receipt{}, false, err
	}
	log.Infow("Submission delivered", "messageId", receipt.MessageID, "transport", receipt.Transport, "attachments", len(email.Attachments))

	if key != "" && h.ledger != nil {
		if err := operations.InsertDelivery(h.ledger, key, receipt, h.now().Add(h.idempotencyTTL)); err != nil {
			log.Errorw("Failed to record delivery", "idempotencyKey", key, "error", err)
		}
	}
	return receipt, false, nil
}

// Preflight answers CORS pre-flight requests. The CORS headers are set by
// middleware.
func (h *SubmitHandler) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h *SubmitHandler) MethodNotAllowed(c *gin.Context) {
	h.respondError(c, middleware.GetReqLogger(c, h.log), &models.MethodNotAllowedError{Method: c.Request.Method})
}

func (h *SubmitHandler) respondError(c *gin.Context, log *zap.SugaredLogger, err error) {
	status := models.StatusCode(err)
	body := models.APIError{Error: "Internal server error", Code: "INTERNAL_ERROR"}

	var (
		parseErr    *models.ParseError
		deliveryErr *models.DeliveryError
	)
	switch {
	case status == http.StatusBadRequest:
		body = models.APIError{Error: err.Error(), Code: "BAD_REQUEST"}
		log.Warnw("Rejected submission", "error", err)
	case status == http.StatusMethodNotAllowed:
		body = models.APIError{Error: "Method not allowed", Code: "METHOD_NOT_ALLOWED"}
		log.Debugw("Method not allowed", "method", c.Request.Method)
	case errors.As(err, &parseErr):
		body = models.APIError{Error: "Failed to parse form data", Code: "PARSE_ERROR"}
		log.Errorw("Failed to parse submission", "error", err)
	case errors.As(err, &deliveryErr):
		body = models.APIError{Error: "Failed to send email", Code: "DELIVERY_FAILED"}
		log.Errorw("Failed to send email", "error", err, "primaryError", deliveryErr.Primary)
	default:
		log.Errorw("Submission failed", "error", err)
	}

	metrics.Submissions.WithLabelValues(strings.ToLower(body.Code)).Inc()
	c.AbortWithStatusJSON(status, body)
}
