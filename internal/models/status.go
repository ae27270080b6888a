package models

import (
	"fmt"
	"strings"
)

// PaymentStatus is the approval state of a payment request
type PaymentStatus string

const (
	StatusPending  PaymentStatus = "PENDING"
	StatusPaid     PaymentStatus = "PAID"
	StatusApproved PaymentStatus = "APPROVED"
	StatusRejected PaymentStatus = "REJECTED"
)

// PaymentStatuses lists every status in display order
var PaymentStatuses = []PaymentStatus{StatusPending, StatusPaid, StatusApproved, StatusRejected}

// ParsePaymentStatus accepts a status name in any letter case
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Valid reports whether s is one of the known statuses
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ViewType is a top-level console view
type ViewType string

const (
	ViewDashboard ViewType = "dashboard"
	ViewUsers     ViewType = "users"
	ViewPayments  ViewType = "payments"
)

// ParseViewType validates a view name
func ParseViewType(s string) (ViewType, error) {
	view := ViewType(strings.ToLower(strings.TrimSpace(s)))
	switch view {
	case ViewDashboard, ViewUsers, ViewPayments:
		return view, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}
