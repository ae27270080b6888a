package services

import (
	"sync"
	"testing"
	"time"

	"nexus-admin-backend/internal/models"
	"nexus-admin-backend/internal/repository"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// pngBytes is a PNG signature followed by an IHDR chunk header
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	closed int
}

func (p *recordingPublisher) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
}

func (p *recordingPublisher) closeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *recordingPublisher) Publish(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

func sampleUser(id, first, endDate string) models.User {
	return models.User{
		ID:        id,
		FirstName: first,
		LastName:  "Tester",
		Email:     first + "@example.com",
		PromoCode: models.PromoCode{Code: "P" + id, DiscountPercentage: 15, StartDate: "2023-01-01", EndDate: endDate},
	}
}

func samplePayments() []models.PaymentRequest {
	return []models.PaymentRequest{
		{ID: "p1", UserID: "a", UserName: "Ann Tester", Amount: decimal.NewFromInt(1500), Status: models.StatusPending, Date: "2024-05-10"},
		{ID: "p2", UserID: "b", UserName: "Bob Tester", Amount: decimal.RequireFromString("450.50"), Status: models.StatusPaid, Date: "2024-05-08"},
	}
}

type testConsole struct {
	coord    *Coordinator
	users    *repository.UserRepository
	payments *repository.PaymentRepository
	events   *recordingPublisher
}

func newTestConsole(t *testing.T, loggedIn bool) *testConsole {
	t.Helper()

	users := repository.NewUserRepository()
	users.Save(sampleUser("a", "Ann", "2099-01-01"))
	users.Save(sampleUser("b", "Bob", "2000-01-01"))
	payments := repository.NewPaymentRepository(samplePayments()...)
	events := &recordingPublisher{}

	coord := NewCoordinator(
		NewSessionGate("test-secret", time.Hour, fixedClock),
		NewUserService(users),
		NewPaymentService(payments),
		NewReceiptReader(1024, []string{"image/*"}),
		events,
		fixedClock,
	)

	if loggedIn {
		if _, err := coord.Login(); err != nil {
			t.Fatalf("login: %v", err)
		}
		events.reset()
	}

	return &testConsole{coord: coord, users: users, payments: payments, events: events}
}
