package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_ComparesByCode(t *testing.T) {
	specific := ErrInvalidTransition.WithMessage("cannot move from %s to %s", "COMPLETED", "PENDING")

	assert.ErrorIs(t, specific, ErrInvalidTransition)
	assert.NotErrorIs(t, specific, ErrMessagingClosed)
	assert.Equal(t, "cannot move from COMPLETED to PENDING", specific.Message)
	assert.Equal(t, "Requested status change is not allowed", ErrInvalidTransition.Message)
}

func TestIs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("hold: %w", ErrInsufficientFunds)

	assert.ErrorIs(t, wrapped, ErrInsufficientFunds)
	assert.Equal(t, KindFunds, From(wrapped).Kind)
}

func TestWithDetail_DoesNotMutateSentinel(t *testing.T) {
	e := ErrMissingVariables.WithDetail("missing", "date")

	assert.Equal(t, "date", e.Details["missing"])
	assert.Nil(t, ErrMissingVariables.Details)
	assert.Contains(t, e.Error(), "missing=date")
}

func TestFrom_UnknownBecomesServerError(t *testing.T) {
	e := From(errors.New("connection reset"))

	assert.Equal(t, "SERVER_ERROR", e.Code)
	assert.Equal(t, KindInternal, e.Kind)
}

func TestNotFound(t *testing.T) {
	e := NotFound("booking")

	assert.ErrorIs(t, e, ErrNotFound)
	assert.Equal(t, "booking not found", e.Message)
}
