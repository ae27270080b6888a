package handlers

import (
	"errors"
	"net/http"

	"nexus-admin-backend/internal/models"
	"nexus-admin-backend/internal/services"

	"github.com/rs/zerolog/log"
)

const multipartOverhead = 1 << 20

// OpenProcessorRequest binds the processor to a payment
type OpenProcessorRequest struct {
	PaymentID string `json:"payment_id"`
}

// DecisionRequest carries the status chosen in the processor
type DecisionRequest struct {
	Status string `json:"status"`
}

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	coord           *services.Coordinator
	maxReceiptBytes int64
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(coord *services.Coordinator, maxReceiptBytes int64) *PaymentHandler {
	return &PaymentHandler{
		coord:           coord,
		maxReceiptBytes: maxReceiptBytes,
	}
}

// ListPayments handles GET /api/v1/payments?status=
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	var status models.PaymentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParsePaymentStatus(raw)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		status = parsed
	}

	payments, err := h.coord.ListPayments(status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

// OpenProcessor handles POST /api/v1/processor
func (h *PaymentHandler) OpenProcessor(w http.ResponseWriter, r *http.Request) {
	var req OpenProcessorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payment, err := h.coord.OpenPaymentProcessor(req.PaymentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payment)
}

// UploadReceipt handles POST /api/v1/processor/receipt
func (h *PaymentHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxReceiptBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxReceiptBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondServiceError(w, models.ErrReceiptTooLarge)
			return
		}
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		respondError(w, "receipt file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	staging, err := h.coord.StageReceipt(r.Context(), file)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := staging.Wait(r.Context()); err != nil {
		staging.Cancel()
		log.Warn().Err(err).Str("filename", header.Filename).Msg("Receipt was not staged")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("filename", header.Filename).
		Int64("size", header.Size).
		Msg("Receipt staged")

	respondJSON(w, http.StatusOK, h.coord.State())
}

// ClearReceipt handles DELETE /api/v1/processor/receipt
func (h *PaymentHandler) ClearReceipt(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.ClearStagedReceipt(); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.coord.State())
}

// Decide handles POST /api/v1/processor/decision
func (h *PaymentHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status, err := models.ParsePaymentStatus(req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	payment, err := h.coord.DecidePayment(status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payment)
}

// CloseProcessor handles DELETE /api/v1/processor
func (h *PaymentHandler) CloseProcessor(w http.ResponseWriter, r *http.Request) {
	h.coord.ClosePaymentProcessor()
	respondJSON(w, http.StatusOK, h.coord.State())
}
