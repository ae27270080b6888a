package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nexus-admin-backend/internal/config"
	"nexus-admin-backend/internal/models"
	"nexus-admin-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testServer struct {
	*httptest.Server
	app *app
	t   *testing.T
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg, err := config.Parse([]byte("session:\n  secret: test-secret\nreceipts:\n  max_bytes: 4096\n"))
	require.NoError(t, err)

	a := newApp(cfg, func() time.Time { return testNow })
	srv := httptest.NewServer(a.router(cfg))
	t.Cleanup(func() {
		a.hub.CloseAll()
		srv.Close()
	})

	return &testServer{Server: srv, app: a, t: t}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, []byte) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *testServer) upload(token string, payload []byte) (int, []byte) {
	s.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("receipt", "receipt.bin")
	require.NoError(s.t, err)
	_, err = part.Write(payload)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/v1/processor/receipt", &buf)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) (int, []byte) {
	s.t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, data
}

func (s *testServer) login() string {
	s.t.Helper()

	status, body := s.do(http.MethodPost, "/api/v1/session/login", "", map[string]string{
		"email":    "anyone@example.com",
		"password": "anything",
	})
	require.Equal(s.t, http.StatusOK, status, string(body))

	var resp struct {
		Token string                `json:"token"`
		State services.ConsoleState `json:"state"`
	}
	require.NoError(s.t, json.Unmarshal(body, &resp))
	require.NotEmpty(s.t, resp.Token)
	assert.Equal(s.t, services.LoggedIn, resp.State.Session)
	return resp.Token
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestRouter_PublicAndProtected(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodGet, "/api/v1/state", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(http.MethodGet, "/api/v1/users", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_Dashboard(t *testing.T) {
	s := newTestServer(t)
	token := s.login()

	status, body := s.do(http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, status)

	stats := decode[services.DashboardStats](t, body)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 1, stats.ActivePromos)
	assert.Equal(t, 1, stats.PendingPayments)
	assert.Len(t, stats.PromotionsOverview, 2)
}

func TestRouter_Navigate(t *testing.T) {
	s := newTestServer(t)
	token := s.login()

	status, _ := s.do(http.MethodPut, "/api/v1/view", token, map[string]string{"view": "reports"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := s.do(http.MethodPut, "/api/v1/view", token, map[string]string{"view": "payments"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.ViewPayments, decode[services.ConsoleState](t, body).CurrentView)
}

func TestRouter_UserEditorFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login()

	status, body := s.do(http.MethodPost, "/api/v1/editor", token, map[string]string{"user_id": ""})
	require.Equal(t, http.StatusOK, status, string(body))
	draft := decode[models.User](t, body)
	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, "2024-06-01", draft.PromoCode.StartDate)
	assert.Equal(t, "2024-07-01", draft.PromoCode.EndDate)

	status, body = s.do(http.MethodPost, "/api/v1/editor/save", token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(body), "first_name")

	for _, update := range []map[string]string{
		{"section": "basic", "field": "first_name", "value": "Cara"},
		{"section": "basic", "field": "last_name", "value": "Diaz"},
		{"section": "basic", "field": "email", "value": "cara@example.com"},
		{"section": "social", "field": "instagram", "value": "@cara"},
		{"section": "promo", "field": "code", "value": "CARA5"},
	} {
		status, body := s.do(http.MethodPatch, "/api/v1/editor", token, update)
		require.Equal(t, http.StatusOK, status, string(body))
	}

	status, _ = s.do(http.MethodPatch, "/api/v1/editor", token, map[string]string{"section": "promo", "field": "discount_percentage", "value": "lots"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, "/api/v1/processor", token, map[string]string{"payment_id": "pay1"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = s.do(http.MethodPost, "/api/v1/editor/save", token, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = s.do(http.MethodPost, "/api/v1/editor/save", token, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body = s.do(http.MethodGet, "/api/v1/users", token, nil)
	require.Equal(t, http.StatusOK, status)
	users := decode[[]models.User](t, body)
	require.Len(t, users, 3)
	assert.Equal(t, draft.ID, users[2].ID)
	assert.Equal(t, "Cara", users[2].FirstName)

	status, _ = s.do(http.MethodPost, "/api/v1/editor", token, map[string]string{"user_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_DeleteUserNeedsConfirm(t *testing.T) {
	s := newTestServer(t)
	token := s.login()

	type deleteResponse struct {
		Deleted bool   `json:"deleted"`
		Message string `json:"message"`
	}

	status, body := s.do(http.MethodDelete, "/api/v1/users/1", token, nil)
	require.Equal(t, http.StatusOK, status)
	resp := decode[deleteResponse](t, body)
	assert.False(t, resp.Deleted)
	assert.Equal(t, services.DeleteConfirmMessage, resp.Message)

	status, body = s.do(http.MethodDelete, "/api/v1/users/1?confirm=true", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[deleteResponse](t, body).Deleted)

	status, body = s.do(http.MethodDelete, "/api/v1/users/1?confirm=true", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[deleteResponse](t, body).Deleted)

	_, body = s.do(http.MethodGet, "/api/v1/users", token, nil)
	assert.Len(t, decode[[]models.User](t, body), 1)
}

func TestRouter_PaymentsByStatus(t *testing.T) {
	s := newTestServer(t)
	token := s.login()

	status, body := s.do(http.MethodGet, "/api/v1/payments?status=pending", token, nil)
	require.Equal(t, http.StatusOK, status)
	pending := decode[[]models.PaymentRequest](t, body)
	require.Len(t, pending, 1)
	assert.Equal(t, "pay1", pending[0].ID)

	status, _ = s.do(http.MethodGet, "/api/v1/payments?status=refunded", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	_, body = s.do(http.MethodGet, "/api/v1/payments", token, nil)
	assert.Len(t, decode[[]models.PaymentRequest](t, body), 2)
}

func TestRouter_ProcessPaymentWithReceipt(t *testing.T) {
	s := newTestServer(t)
	token := s.login()

	status, _ := s.do(http.MethodPost, "/api/v1/processor/decision", token, map[string]string{"status": "APPROVED"})
	assert.Equal(t, http.StatusConflict, status)

	status, body := s.do(http.MethodPost, "/api/v1/processor", token, map[string]string{"payment_id": "pay1"})
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = s.upload(token, []byte("definitely not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, status)

	status, _ = s.upload(token, bytes.Repeat(pngBytes, 400))
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)

	status, body = s.upload(token, pngBytes)
	require.Equal(t, http.StatusOK, status, string(body))
	state := decode[services.ConsoleState](t, body)
	require.NotNil(t, state.StagedReceipt)
	assert.True(t, strings.HasPrefix(*state.StagedReceipt, "data:image/png;base64,"))

	status, _ = s.do(http.MethodPost, "/api/v1/processor/decision", token, map[string]string{"status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(http.MethodPost, "/api/v1/processor/decision", token, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, status, string(body))
	payment := decode[models.PaymentRequest](t, body)
	assert.Equal(t, models.StatusApproved, payment.Status)
	assert.Equal(t, "1500", payment.Amount.String())
	assert.Equal(t, "2024-05-10", payment.Date)
	require.NotNil(t, payment.ReceiptImage)
	assert.Equal(t, *state.StagedReceipt, *payment.ReceiptImage)

	_, body = s.do(http.MethodGet, "/api/v1/state", token, nil)
	assert.Nil(t, decode[services.ConsoleState](t, body).ProcessingPayment)
}

func TestRouter_LoginAcceptsAnyForm(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/v1/session/login", strings.NewReader("{not json"))
	require.NoError(t, err)
	status, body := s.send(req, "")

	require.Equal(t, http.StatusOK, status, string(body))
	assert.NotEmpty(t, decode[struct {
		Token string `json:"token"`
	}](t, body).Token)
}

func TestRouter_LogoutDisconnectsObservers(t *testing.T) {
	s := newTestServer(t)
	oldToken := s.login()

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+oldToken, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var initial services.Event
	require.NoError(t, conn.ReadJSON(&initial))
	require.Equal(t, services.EventState, initial.Type)

	status, _ := s.do(http.MethodPost, "/api/v1/session/logout", oldToken, nil)
	require.Equal(t, http.StatusOK, status)

	// everything left on the stream predates the logout, then the server closes it
	var seen []string
	for {
		var evt services.Event
		if err := conn.ReadJSON(&evt); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
			break
		}
		seen = append(seen, evt.Type)
	}
	assert.Equal(t, []string{services.EventSessionChanged}, seen)
	require.Eventually(t, func() bool { return s.app.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)

	newToken := s.login()
	status, _ = s.do(http.MethodPost, "/api/v1/editor", newToken, map[string]string{"user_id": "1"})
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, s.app.hub.Count(), "no observer from the earlier session remains")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token="+oldToken, nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestRouter_LogoutInvalidatesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login()

	status, _ := s.do(http.MethodPost, "/api/v1/session/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodGet, "/api/v1/users", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	fresh := s.login()
	status, body := s.do(http.MethodGet, "/api/v1/users", fresh, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.User](t, body), 2)
}

func TestRouter_WebSocketEvents(t *testing.T) {
	s := newTestServer(t)
	token := s.login()

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=bad", nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	type wsEvent struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	read := func() wsEvent {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var evt wsEvent
		require.NoError(t, conn.ReadJSON(&evt))
		return evt
	}

	initial := read()
	assert.Equal(t, services.EventState, initial.Type)
	assert.Equal(t, services.LoggedIn, decode[services.ConsoleState](t, initial.Data).Session)

	status, _ := s.do(http.MethodPut, "/api/v1/view", token, map[string]string{"view": "users"})
	require.Equal(t, http.StatusOK, status)

	changed := read()
	assert.Equal(t, services.EventViewChanged, changed.Type)
	assert.Equal(t, models.ViewUsers, decode[services.ConsoleState](t, changed.Data).CurrentView)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))
	assert.Equal(t, services.EventError, read().Type)
}
