package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observers(t *testing.T) {
	m := New()
	m.ObserveSession("recommended", 2*time.Second)
	m.ObserveSession("noop", 0)
	m.ObserveModelCall("recommend", "ok", time.Second)
	m.ObserveModelCall("recommend", "noop", 0)
	m.ObserveClamp()
	m.ObserveFetch("ok", 12, 3, 300*time.Millisecond)
	m.ObserveHTTP("POST", "/api/chat/messages", 200)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues("recommended")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelCalls.WithLabelValues("recommend", "noop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clamps))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.swapsKept))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.swapsSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/chat/messages", "200")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveClamp()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "swapsignal_expiry_clamps_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
