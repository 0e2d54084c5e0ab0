package thegraph

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"swapsignal/internal/market"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const swapsBody = `{"data":[
 {"timestamp":1735690200,"token0":{"symbol":"USDT","address":"0xc2","decimals":6},"token1":{"symbol":"WETH","address":"0x7c","decimals":18},"amount0":"-2000000","amount1":"600000000000000","price0":0.0003,"price1":3333},
 {"timestamp":1735689630,"token0":{"symbol":"USDT","address":"0xc2","decimals":6},"token1":{"symbol":"WETH","address":"0x7c","decimals":18},"amount0":"1000000","amount1":"-300000000000000","price0":0.0003,"price1":3330},
 {"timestamp":1735689610,"token0":{"symbol":"USDT","address":"0xc2","decimals":6},"token1":{"symbol":"WETH","address":"0x7c","decimals":18},"amount0":"3000000","amount1":"-900000000000000","price0":0.0003,"price1":3331}
]}`

type recordingObserver struct {
	status        string
	kept, skipped int
}

func (o *recordingObserver) ObserveFetch(status string, kept, skipped int, _ time.Duration) {
	o.status, o.kept, o.skipped = status, kept, skipped
}

func TestClient_FetchSwaps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/swaps/evm", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "matic", q.Get("network_id"))
		assert.Equal(t, "0xpool", q.Get("pool"))
		assert.Equal(t, "1735689600", q.Get("startTime"))
		assert.Equal(t, "1735693200", q.Get("endTime"))
		assert.Equal(t, "timestamp", q.Get("orderBy"))
		assert.Equal(t, "desc", q.Get("orderDirection"))
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(swapsBody))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := NewClient(srv.URL, "jwt-token", time.Second)
	c.Observer = obs
	events, err := c.FetchSwaps(context.Background(), SwapQuery{
		Pool: "0xpool", Network: "matic", StartTime: 1735689600, EndTime: 1735693200, BucketMinutes: 5, Limit: 100,
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1735689610), events[0].Timestamp)
	assert.InDelta(t, 3.0, events[0].Amount0, 1e-12)
	assert.InDelta(t, -0.0009, events[0].Amount1, 1e-15)
	assert.Equal(t, int64(1735690200), events[1].Timestamp)
	assert.Equal(t, "ok", obs.status)
	assert.Equal(t, 2, obs.kept)
}

func TestClient_NonSuccessIsMarketDataError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid token"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad", time.Second)
	_, err := c.FetchSwaps(context.Background(), SwapQuery{Network: "matic", EndTime: 1, BucketMinutes: 5, Limit: 10})
	var mdErr *MarketDataError
	require.True(t, errors.As(err, &mdErr))
	assert.Equal(t, http.StatusUnauthorized, mdErr.StatusCode)
	assert.Contains(t, mdErr.Detail, "invalid token")
}

func TestClient_NonSuccessDetailIsCapped(t *testing.T) {
	huge := strings.Repeat("é", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(huge))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.FetchSwaps(context.Background(), SwapQuery{Network: "matic", EndTime: 1, BucketMinutes: 5, Limit: 10})
	var mdErr *MarketDataError
	require.True(t, errors.As(err, &mdErr))
	assert.LessOrEqual(t, len(mdErr.Detail), maxDetailBytes+len("..."))
	assert.True(t, strings.HasSuffix(mdErr.Detail, "..."))
	assert.True(t, utf8.ValidString(mdErr.Detail))
	assert.Less(t, len(err.Error()), 1024)
}

func TestClient_TransportFailureIsMarketDataError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", time.Second)
	_, err := c.FetchSwaps(context.Background(), SwapQuery{Network: "matic", BucketMinutes: 5, Limit: 10})
	var mdErr *MarketDataError
	require.True(t, errors.As(err, &mdErr))
	assert.NotNil(t, mdErr.Err)
}

func TestClient_InvalidQueryRejectedBeforeIO(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	bad := []SwapQuery{
		{Network: "matic", BucketMinutes: 0, Limit: 10},
		{Network: "matic", BucketMinutes: 5, Limit: 0},
		{Network: "", BucketMinutes: 5, Limit: 10},
		{Network: "matic", BucketMinutes: 5, Limit: 10, StartTime: 10, EndTime: 5},
	}
	for _, q := range bad {
		_, err := c.FetchSwaps(context.Background(), q)
		var cfgErr *market.InvalidConfigurationError
		assert.True(t, errors.As(err, &cfgErr), "%+v", q)
	}
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestClient_EmptyPoolOmitted(t *testing.T) {
	c := &Client{}
	u := c.endpoint(SwapQuery{Network: "mainnet", Limit: 1})
	assert.Contains(t, u, defaultBaseURL+"/swaps/evm?")
	assert.NotContains(t, u, "pool=")
}

func TestInspectToken(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "graph-user",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	info, err := InspectToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "graph-user", info.Subject)
	assert.True(t, exp.Equal(info.ExpiresAt))

	_, err = InspectToken("opaque-token")
	assert.Error(t, err)
	_, err = InspectToken("")
	assert.Error(t, err)
}
