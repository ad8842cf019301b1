package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("applicant", "is required"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("validate: %w", NewValidationError("pdf", "is required")), http.StatusBadRequest},
		{"method", &MethodNotAllowedError{Method: http.MethodGet}, http.StatusMethodNotAllowed},
		{"parse", &ParseError{Err: errors.New("unexpected EOF")}, http.StatusInternalServerError},
		{"delivery", &DeliveryError{Primary: errors.New("a"), Backup: errors.New("b")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestDeliveryErrorReportsBackupFailure(t *testing.T) {
	primary := errors.New("primary: auth failed")
	backup := errors.New("backup: connection refused")
	err := &DeliveryError{Primary: primary, Backup: backup}

	assert.ErrorIs(t, err, backup)
	assert.NotErrorIs(t, err, primary)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NotContains(t, err.Error(), "auth failed")
}

func TestSubmissionFlags(t *testing.T) {
	assert.True(t, Submission{Type: "order"}.IsOrder())
	assert.False(t, Submission{Type: "contract"}.IsOrder())
	assert.False(t, Submission{Type: "anything"}.IsOrder())

	assert.True(t, Submission{WithInvoice: "true"}.SpecialInvoice())
	assert.False(t, Submission{WithInvoice: "TRUE"}.SpecialInvoice())
	assert.False(t, Submission{WithInvoice: ""}.SpecialInvoice())
}
