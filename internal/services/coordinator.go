package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"nexus-admin-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// EditorMode tells whether the user editor creates or edits a user
type EditorMode string

const (
	EditorCreate EditorMode = "create"
	EditorEdit   EditorMode = "edit"
)

// ConsoleState is a read-only snapshot of the console
type ConsoleState struct {
	Session           SessionState           `json:"session"`
	CurrentView       models.ViewType        `json:"current_view"`
	UserEditorOpen    bool                   `json:"user_editor_open"`
	EditorMode        EditorMode             `json:"editor_mode,omitempty"`
	EditingUser       *models.User           `json:"editing_user,omitempty"`
	ProcessingPayment *models.PaymentRequest `json:"processing_payment,omitempty"`
	StagedReceipt     *string                `json:"staged_receipt,omitempty"`
	ReceiptLoading    bool                   `json:"receipt_loading"`
}

type editorState struct {
	mode  EditorMode
	draft models.User
}

type processorState struct {
	payment models.PaymentRequest
	staged  *string
	seq     uint64
	pending *ReceiptTask
}

// Coordinator owns the console state and routes every operator intent
// to the user registry, the payment ledger or the session gate.
// Operations are serialized; at most one modal is open at a time.
type Coordinator struct {
	mu sync.Mutex

	session  *SessionGate
	users    *UserService
	payments *PaymentService
	receipts *ReceiptReader
	events   EventPublisher
	now      func() time.Time

	currentView models.ViewType
	editor      *editorState
	processor   *processorState
}

// NewCoordinator creates a coordinator showing the dashboard with no modal open
func NewCoordinator(
	session *SessionGate,
	users *UserService,
	payments *PaymentService,
	receipts *ReceiptReader,
	events EventPublisher,
	clock func() time.Time,
) *Coordinator {
	if events == nil {
		events = nopPublisher{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &Coordinator{
		session:     session,
		users:       users,
		payments:    payments,
		receipts:    receipts,
		events:      events,
		now:         clock,
		currentView: models.ViewDashboard,
	}
}

// Login opens the session; no credentials are checked
func (c *Coordinator) Login() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, err := c.session.Login()
	if err != nil {
		return "", fmt.Errorf("failed to login: %w", err)
	}

	c.publish(EventSessionChanged, "", c.stateLocked())
	return token, nil
}

// Logout closes the session and disconnects observers. Users, payments and open modals are kept.
func (c *Coordinator) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.Logout()
	c.publish(EventSessionChanged, "", c.stateLocked())
	c.events.CloseAll()
}

// State returns a snapshot of the console
func (c *Coordinator) State() ConsoleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Navigate switches the active top-level view
func (c *Coordinator) Navigate(view models.ViewType) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return err
	}
	if _, err := models.ParseViewType(string(view)); err != nil {
		return err
	}

	c.currentView = view
	c.publish(EventViewChanged, "", c.stateLocked())
	return nil
}

// Dashboard computes the dashboard statistics as of now
func (c *Coordinator) Dashboard() (DashboardStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return DashboardStats{}, err
	}
	return ComputeDashboard(c.users.ListUsers(), c.payments.ListPayments(), c.now()), nil
}

// ListUsers returns every user in insertion order
func (c *Coordinator) ListUsers() ([]models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return nil, err
	}
	return c.users.ListUsers(), nil
}

// ListPayments returns payments in insertion order; an empty status returns all
func (c *Coordinator) ListPayments(status models.PaymentStatus) ([]models.PaymentRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return nil, err
	}
	return c.payments.ListPaymentsByStatus(status), nil
}

// OpenUserEditor opens the editor empty when userID is "" and pre-filled otherwise
func (c *Coordinator) OpenUserEditor(userID string) (models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return models.User{}, err
	}
	if c.processor != nil {
		return models.User{}, fmt.Errorf("failed to open user editor: %w", models.ErrModalOpen)
	}

	editor := &editorState{mode: EditorCreate}
	if userID == "" {
		editor.draft = c.users.NewDraft(c.now())
	} else {
		user, err := c.users.GetUser(userID)
		if err != nil {
			return models.User{}, fmt.Errorf("failed to open user editor: %w", err)
		}
		editor.mode = EditorEdit
		editor.draft = user
	}

	c.editor = editor
	c.publish(EventEditorOpened, "", c.stateLocked())
	return editor.draft.Clone(), nil
}

// ApplyEditorUpdate applies one field update to the editor draft
func (c *Coordinator) ApplyEditorUpdate(cmd FieldUpdate) (models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return models.User{}, err
	}
	if c.editor == nil {
		return models.User{}, models.ErrEditorClosed
	}

	draft, err := ApplyFieldUpdate(c.editor.draft, cmd)
	if err != nil {
		return c.editor.draft.Clone(), err
	}

	c.editor.draft = draft
	c.publish(EventEditorUpdated, "", c.stateLocked())
	return draft.Clone(), nil
}

// SaveUserEditor validates the draft, saves it to the registry and closes the editor
func (c *Coordinator) SaveUserEditor() (models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return models.User{}, err
	}
	if c.editor == nil {
		return models.User{}, models.ErrEditorClosed
	}

	draft := c.editor.draft
	if err := c.users.Validate(draft); err != nil {
		return draft.Clone(), err
	}

	c.users.SaveUser(draft)
	c.editor = nil

	c.publish(EventUserSaved, "", draft)
	c.publish(EventEditorClosed, "", c.stateLocked())
	return draft.Clone(), nil
}

// CloseUserEditor discards the draft
func (c *Coordinator) CloseUserEditor() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.editor == nil {
		return
	}
	c.editor = nil
	c.publish(EventEditorClosed, "", c.stateLocked())
}

// DeleteUser removes a user after confirmation. Payments referencing the user are left as they are.
func (c *Coordinator) DeleteUser(userID string, confirmer Confirmer) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return false, err
	}

	deleted := c.users.DeleteUser(userID, confirmer)
	if deleted {
		c.publish(EventUserDeleted, "", map[string]string{"user_id": userID})
	}
	return deleted, nil
}

// OpenPaymentProcessor binds the processor to a payment
func (c *Coordinator) OpenPaymentProcessor(paymentID string) (models.PaymentRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return models.PaymentRequest{}, err
	}
	if c.editor != nil {
		return models.PaymentRequest{}, fmt.Errorf("failed to open payment processor: %w", models.ErrModalOpen)
	}

	payment, err := c.payments.GetPayment(paymentID)
	if err != nil {
		return models.PaymentRequest{}, fmt.Errorf("failed to open payment processor: %w", err)
	}

	c.closeProcessorLocked()
	c.processor = &processorState{payment: payment}
	c.publish(EventProcessorOpened, "", c.stateLocked())
	return payment.Clone(), nil
}

// ReceiptStaging tracks one receipt read started from the processor
type ReceiptStaging struct {
	task    *ReceiptTask
	applied chan struct{}
	err     error
}

// Wait blocks until the read has been staged or rejected.
// A read overtaken by a newer one, a clear or a processor close returns ErrStaleReceipt.
func (s *ReceiptStaging) Wait(ctx context.Context) error {
	select {
	case <-s.applied:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel aborts the underlying read
func (s *ReceiptStaging) Cancel() {
	s.task.Cancel()
}

// StageReceipt starts converting file into a data URL for the open processor.
// Only the most recently started read may update the staged receipt.
func (c *Coordinator) StageReceipt(ctx context.Context, file io.Reader) (*ReceiptStaging, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if c.processor == nil {
		return nil, models.ErrProcessorClosed
	}

	p := c.processor
	p.seq++
	seq := p.seq
	if p.pending != nil {
		p.pending.Cancel()
	}
	task := c.receipts.ReadAsDataURL(ctx, file)
	p.pending = task

	staging := &ReceiptStaging{task: task, applied: make(chan struct{})}
	go func() {
		<-task.Done()
		staging.err = c.finishReceipt(p, seq, task)
		close(staging.applied)
	}()

	c.publish(EventProcessorUpdated, "", c.stateLocked())
	return staging, nil
}

func (c *Coordinator) finishReceipt(p *processorState, seq uint64, task *ReceiptTask) error {
	dataURL, err := task.Wait(context.Background())

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.processor != p || p.seq != seq {
		log.Debug().
			Str("payment_id", p.payment.ID).
			Uint64("seq", seq).
			Msg("Dropping superseded receipt read")
		return models.ErrStaleReceipt
	}

	p.pending = nil
	if err != nil {
		log.Warn().Err(err).Str("payment_id", p.payment.ID).Msg("Receipt read failed")
		c.publish(EventError, err.Error(), c.stateLocked())
		return err
	}

	p.staged = &dataURL
	c.publish(EventProcessorUpdated, "", c.stateLocked())
	return nil
}

// ClearStagedReceipt returns the staged receipt to absent and drops any read in flight
func (c *Coordinator) ClearStagedReceipt() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return err
	}
	if c.processor == nil {
		return models.ErrProcessorClosed
	}

	p := c.processor
	p.seq++
	if p.pending != nil {
		p.pending.Cancel()
		p.pending = nil
	}
	p.staged = nil

	c.publish(EventProcessorUpdated, "", c.stateLocked())
	return nil
}

// DecidePayment sets the status of the bound payment, attaches the staged receipt
// when there is one, and closes the processor.
func (c *Coordinator) DecidePayment(status models.PaymentStatus) (models.PaymentRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireSession(); err != nil {
		return models.PaymentRequest{}, err
	}
	if c.processor == nil {
		return models.PaymentRequest{}, models.ErrProcessorClosed
	}
	if !status.Valid() {
		return models.PaymentRequest{}, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}

	id := c.processor.payment.ID
	receipt := c.processor.staged
	c.payments.UpdatePaymentStatus(id, status, receipt)
	c.closeProcessorLocked()

	updated, err := c.payments.GetPayment(id)
	if err != nil {
		return models.PaymentRequest{}, fmt.Errorf("failed to reload payment: %w", err)
	}

	c.publish(EventPaymentUpdated, "", updated)
	c.publish(EventProcessorClosed, "", c.stateLocked())
	return updated, nil
}

// ClosePaymentProcessor discards the processor and any staged receipt
func (c *Coordinator) ClosePaymentProcessor() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.processor == nil {
		return
	}
	c.closeProcessorLocked()
	c.publish(EventProcessorClosed, "", c.stateLocked())
}

func (c *Coordinator) closeProcessorLocked() {
	if c.processor == nil {
		return
	}
	if c.processor.pending != nil {
		c.processor.pending.Cancel()
	}
	c.processor = nil
}

func (c *Coordinator) requireSession() error {
	if !c.session.IsLoggedIn() {
		return models.ErrNotAuthenticated
	}
	return nil
}

func (c *Coordinator) stateLocked() ConsoleState {
	state := ConsoleState{
		Session:     c.session.State(),
		CurrentView: c.currentView,
	}
	if c.editor != nil {
		draft := c.editor.draft.Clone()
		state.UserEditorOpen = true
		state.EditorMode = c.editor.mode
		state.EditingUser = &draft
	}
	if c.processor != nil {
		payment := c.processor.payment.Clone()
		state.ProcessingPayment = &payment
		if c.processor.staged != nil {
			state.StagedReceipt = models.StringPtr(*c.processor.staged)
		}
		state.ReceiptLoading = c.processor.pending != nil
	}
	return state
}

func (c *Coordinator) publish(eventType, message string, data interface{}) {
	c.events.Publish(Event{
		Type:      eventType,
		Timestamp: c.now().UnixMilli(),
		Message:   message,
		Data:      data,
	})
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
func (nopPublisher) CloseAll()     {}
