package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransitionError("cancelled", "approved")

	assert.Equal(t, `invalid transition from "cancelled" to "approved"`, err.Error())

	it, ok := IsInvalidTransitionError(err)
	assert.True(t, ok)
	assert.Equal(t, "cancelled", it.From)
	assert.Equal(t, "approved", it.To)

	_, ok = IsInvalidTransitionError(errors.New("other"))
	assert.False(t, ok)
}

func TestInsufficientStockError(t *testing.T) {
	err := NewInsufficientStockError(42, 5, 10)

	assert.Equal(t, "insufficient stock for item 42: available 5, required 10", err.Error())

	is, ok := IsInsufficientStockError(err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), is.StockItemID)
	assert.Equal(t, 5, is.Available)
	assert.Equal(t, 10, is.Required)
}

func TestInvoiceExistsError(t *testing.T) {
	err := NewInvoiceExistsError(7, "INV-20260901-0001")

	ie, ok := IsInvoiceExistsError(err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), ie.OrderID)
	assert.Equal(t, "INV-20260901-0001", ie.InvoiceNumber)
	assert.Contains(t, err.Error(), "INV-20260901-0001")
}

func TestNotAnAppealError(t *testing.T) {
	err := NewNotAnAppealError(3, "order_rejected")

	na, ok := IsNotAnAppealError(err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), na.NotificationID)
	assert.Equal(t, "order_rejected", na.Type)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("validation failed", ValidationDetail{Field: "reason", Message: "required"})

	ve, ok := IsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, "validation failed", ve.Message)
	assert.Len(t, ve.Details, 1)
}

func TestUnauthorizedAndNotFound(t *testing.T) {
	_, ok := IsUnauthorizedError(NewUnauthorizedError("nope"))
	assert.True(t, ok)

	_, ok = IsNotFoundError(NewNotFoundError("missing"))
	assert.True(t, ok)

	_, ok = IsNotFoundError(NewUnauthorizedError("nope"))
	assert.False(t, ok)
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternalError("committing", cause)

	assert.Equal(t, "committing: boom", err.Error())
	assert.True(t, errors.Is(err, cause))
}
