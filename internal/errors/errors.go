package errors

import "fmt"

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	if ve, ok := err.(*ValidationError); ok {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	if nf, ok := err.(*NotFoundError); ok {
		return nf, true
	}
	return nil, false
}

// InvalidTransitionError is returned when a requested order status is not
// reachable from the current one. Nothing is mutated in that case.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func IsInvalidTransitionError(err error) (*InvalidTransitionError, bool) {
	if it, ok := err.(*InvalidTransitionError); ok {
		return it, true
	}
	return nil, false
}

// InsufficientStockError names the first order line that cannot be
// satisfied. The whole reservation is all-or-nothing.
type InsufficientStockError struct {
	StockItemID int64
	Available   int
	Required    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: available %d, required %d",
		e.StockItemID, e.Available, e.Required)
}

func NewInsufficientStockError(stockItemID int64, available, required int) *InsufficientStockError {
	return &InsufficientStockError{StockItemID: stockItemID, Available: available, Required: required}
}

func IsInsufficientStockError(err error) (*InsufficientStockError, bool) {
	if is, ok := err.(*InsufficientStockError); ok {
		return is, true
	}
	return nil, false
}

// InvoiceExistsError makes duplicate emission an idempotent no-op: the
// caller treats it as a warning, not a hard failure.
type InvoiceExistsError struct {
	OrderID       int64
	InvoiceNumber string
}

func (e *InvoiceExistsError) Error() string {
	return fmt.Sprintf("invoice %s already exists for order %d", e.InvoiceNumber, e.OrderID)
}

func NewInvoiceExistsError(orderID int64, invoiceNumber string) *InvoiceExistsError {
	return &InvoiceExistsError{OrderID: orderID, InvoiceNumber: invoiceNumber}
}

func IsInvoiceExistsError(err error) (*InvoiceExistsError, bool) {
	if ie, ok := err.(*InvoiceExistsError); ok {
		return ie, true
	}
	return nil, false
}

type NotAnAppealError struct {
	NotificationID int64
	Type           string
}

func (e *NotAnAppealError) Error() string {
	return fmt.Sprintf("notification %d is of type %q, not an appeal", e.NotificationID, e.Type)
}

func NewNotAnAppealError(notificationID int64, notificationType string) *NotAnAppealError {
	return &NotAnAppealError{NotificationID: notificationID, Type: notificationType}
}

func IsNotAnAppealError(err error) (*NotAnAppealError, bool) {
	if na, ok := err.(*NotAnAppealError); ok {
		return na, true
	}
	return nil, false
}

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func IsUnauthorizedError(err error) (*UnauthorizedError, bool) {
	if ue, ok := err.(*UnauthorizedError); ok {
		return ue, true
	}
	return nil, false
}

type DeadlockError struct {
	Message string
}

func (e *DeadlockError) Error() string {
	return e.Message
}

func NewDeadlockError(message string) *DeadlockError {
	return &DeadlockError{Message: message}
}

func IsDeadlockError(err error) (*DeadlockError, bool) {
	if de, ok := err.(*DeadlockError); ok {
		return de, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

func IsInternalError(err error) (*InternalError, bool) {
	if ie, ok := err.(*InternalError); ok {
		return ie, true
	}
	return nil, false
}
