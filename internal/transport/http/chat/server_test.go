package chathttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"swapsignal/internal/agent"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	sender string
	msg    agent.ChatMessage
	ctxErr error
	err    error
}

func (h *stubHandler) HandleMessage(ctx context.Context, sender string, msg agent.ChatMessage, out agent.Outbox) error {
	h.sender, h.msg = sender, msg
	h.ctxErr = ctx.Err()
	if h.err != nil {
		return h.err
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = out.SendAcknowledgement(ctx, sender, agent.ChatAcknowledgement{Timestamp: now, AcknowledgedMsgID: msg.MsgID})
	return out.SendMessage(ctx, sender, agent.NewReply(now, `{"maker":"USDT"}`))
}

type routeCounter struct{ routes []string }

func (r *routeCounter) ObserveHTTP(method, route string, code int) {
	r.routes = append(r.routes, method+" "+route)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, h MessageHandler, obs RequestObserver) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Handler:  h,
		Observer: obs,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		}),
	})
	require.NoError(t, err)
	return srv
}

func post(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_PostMessage(t *testing.T) {
	h := &stubHandler{}
	obs := &routeCounter{}
	srv := newTestServer(t, h, obs)

	rec := post(t, srv, "/api/chat/messages", map[string]any{
		"sender": "agent1qxyz",
		"message": map[string]any{
			"msg_id":  "m-1",
			"content": []map[string]any{{"type": "text", "text": "swap 10 USDT for WETH"}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Acknowledgement)
	assert.Equal(t, "m-1", resp.Acknowledgement.AcknowledgedMsgID)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, `{"maker":"USDT"}`, resp.Messages[0].Text())
	assert.True(t, resp.Messages[0].EndsSession())

	assert.Equal(t, "agent1qxyz", h.sender)
	assert.Equal(t, "swap 10 USDT for WETH", h.msg.Text())
	assert.NoError(t, h.ctxErr)
	assert.Equal(t, []string{"POST /api/chat/messages"}, obs.routes)
}

func TestServer_AssignsMissingMsgID(t *testing.T) {
	h := &stubHandler{}
	srv := newTestServer(t, h, nil)
	rec := post(t, srv, "/api/chat/messages", map[string]any{
		"sender":  "agent1q",
		"message": map[string]any{"content": []map[string]any{{"type": "text", "text": "hi"}}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, h.msg.MsgID)
}

func TestServer_RejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, &stubHandler{}, nil)

	rec := post(t, srv, "/api/chat/messages", map[string]any{"message": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, srv, "/api/chat/messages", map[string]any{"sender": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/messages", bytes.NewReader([]byte("{")))
	out := httptest.NewRecorder()
	srv.Handler().ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}

func TestServer_HandlerFailure(t *testing.T) {
	srv := newTestServer(t, &stubHandler{err: errors.New("outbox closed")}, nil)
	rec := post(t, srv, "/api/chat/messages", map[string]any{"sender": "a", "message": map[string]any{"msg_id": "x"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "outbox closed")
}

func TestServer_AcknowledgementsAndHealth(t *testing.T) {
	srv := newTestServer(t, &stubHandler{}, nil)

	rec := post(t, srv, "/api/chat/acknowledgements", map[string]any{"acknowledged_msg_id": "m-1", "timestamp": "2025-01-01T00:00:00Z"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	for path, want := range map[string]string{"/healthz": `"ok"`, "/metrics": "metrics"} {
		out := httptest.NewRecorder()
		srv.Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, out.Code, path)
		assert.Contains(t, out.Body.String(), want, path)
	}
}

func TestNewServer_RequiresHandler(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestServer_StartStopsOnCancel(t *testing.T) {
	srv, err := NewServer(ServerConfig{Addr: "127.0.0.1:0", Handler: &stubHandler{}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
