package models

import (
	"errors"
	"strings"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrUserNotFound       = errors.New("user not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrInvalidStatus      = errors.New("invalid payment status")
	ErrUnknownView        = errors.New("unknown view")
	ErrInvalidField       = errors.New("invalid field value")
	ErrModalOpen          = errors.New("another modal is open")
	ErrEditorClosed       = errors.New("user editor is not open")
	ErrProcessorClosed    = errors.New("payment processor is not open")
	ErrReceiptTooLarge    = errors.New("receipt is too large")
	ErrUnsupportedReceipt = errors.New("unsupported receipt type")
	ErrEmptyReceipt       = errors.New("receipt is empty")
	ErrStaleReceipt       = errors.New("receipt read superseded by a newer one")
)

// ValidationError lists the editor fields that failed validation
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}
