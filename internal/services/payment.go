package services

import (
	"nexus-admin-backend/internal/models"
	"nexus-admin-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// PaymentService handles payment-related business logic
type PaymentService struct {
	paymentRepo *repository.PaymentRepository
}

// NewPaymentService creates a new payment service
func NewPaymentService(paymentRepo *repository.PaymentRepository) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
	}
}

// ListPayments returns all payments in insertion order
func (s *PaymentService) ListPayments() []models.PaymentRequest {
	return s.paymentRepo.List("")
}

// ListPaymentsByStatus returns payments with the given status; empty means all
func (s *PaymentService) ListPaymentsByStatus(status models.PaymentStatus) []models.PaymentRequest {
	return s.paymentRepo.List(status)
}

// GetPayment retrieves a single payment
func (s *PaymentService) GetPayment(id string) (models.PaymentRequest, error) {
	return s.paymentRepo.GetByID(id)
}

// UpdatePaymentStatus moves a payment to any status, replacing the receipt when one is given.
// No workflow is enforced between statuses. It reports whether the payment exists.
func (s *PaymentService) UpdatePaymentStatus(id string, status models.PaymentStatus, receipt *string) bool {
	found := s.paymentRepo.UpdateStatus(id, status, receipt)
	if !found {
		log.Debug().Str("payment_id", id).Msg("Payment not found, status update skipped")
		return false
	}

	log.Info().
		Str("payment_id", id).
		Str("status", string(status)).
		Bool("receipt_attached", receipt != nil).
		Msg("Payment status updated")

	return true
}
