package repository

import (
	"sync"

	"nexus-admin-backend/internal/models"
)

// PaymentRepository holds payment requests in insertion order
type PaymentRepository struct {
	mu       sync.RWMutex
	payments []models.PaymentRequest
}

// NewPaymentRepository creates a payment repository seeded with the given requests
func NewPaymentRepository(seed ...models.PaymentRequest) *PaymentRepository {
	r := &PaymentRepository{}
	for _, p := range seed {
		r.payments = append(r.payments, p.Clone())
	}
	return r
}

// List returns payments in insertion order, optionally filtered by status.
// An empty status returns every payment.
func (r *PaymentRepository) List(status models.PaymentStatus) []models.PaymentRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payments := make([]models.PaymentRequest, 0, len(r.payments))
	for _, p := range r.payments {
		if status != "" && p.Status != status {
			continue
		}
		payments = append(payments, p.Clone())
	}
	return payments
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(id string) (models.PaymentRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.payments[i].Clone(), nil
	}
	return models.PaymentRequest{}, models.ErrPaymentNotFound
}

// UpdateStatus sets the status of a payment and, when receipt is non-nil,
// replaces its receipt. A nil receipt leaves the stored one untouched.
// It reports whether the payment was found.
func (r *PaymentRepository) UpdateStatus(id string, status models.PaymentStatus, receipt *string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.payments[i].Status = status
	if receipt != nil {
		r.payments[i].ReceiptImage = models.StringPtr(*receipt)
	}
	return true
}

// CountByStatus returns how many payments currently have the given status
func (r *PaymentRepository) CountByStatus(status models.PaymentStatus) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.payments {
		if p.Status == status {
			n++
		}
	}
	return n
}

func (r *PaymentRepository) indexOf(id string) int {
	for i := range r.payments {
		if r.payments[i].ID == id {
			return i
		}
	}
	return -1
}
