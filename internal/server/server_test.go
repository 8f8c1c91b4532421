package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-relay/internal/classifier"
	"github.com/rovshanmuradov/solana-relay/internal/domain"
	"github.com/rovshanmuradov/solana-relay/internal/provider"
	"github.com/rovshanmuradov/solana-relay/internal/relay"
	"github.com/rovshanmuradov/solana-relay/internal/utils/metrics"
)

type stubGateway struct {
	mu      sync.Mutex
	fail    bool
	creates int
	deletes []string
}

func (g *stubGateway) CreateSubscription(_ context.Context, _ []string, _ string, _ provider.Options) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates++
	if g.fail {
		return "", false
	}
	return "hook-1", true
}

func (g *stubGateway) DeleteSubscription(_ context.Context, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes = append(g.deletes, id)
	return true
}

type fixture struct {
	clock   *clock.Mock
	gateway *stubGateway
	service *relay.Service
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zaptest.NewLogger(t)
	clk := clock.NewMock()
	gw := &stubGateway{}
	collector := metrics.NewCollector()

	svc := relay.NewService(relay.Options{
		Logger:  logger,
		Clock:   clk,
		Gateway: gw,
		Metrics: collector,
	})
	t.Cleanup(func() { _ = svc.Close() })

	srv := New(Config{Addr: ":0", Clock: clk}, svc, collector, logger)

	return &fixture{clock: clk, gateway: gw, service: svc, handler: srv.Handler()}
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

const createPoolBody = `{"actions":[{"type":"CREATE_POOL","info":{"liquidity_pool_address":"PoolA","token_mint_two":"So11111111111111111111111111111111111111112","token_mint_one":"MintX"}}]}`

func TestPoolCallbackThenTokens(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/", createPoolBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "received", body["status"])

	f.clock.Add(5 * time.Second)

	rec, body = f.do(t, http.MethodGet, "/get_crypto_tokens", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 1, body["count"])

	tokens := body["tokens"].([]any)
	require.Len(t, tokens, 1)
	token := tokens[0].(map[string]any)
	assert.Equal(t, "PoolA", token["pool_address"])
	assert.Equal(t, "MintX", token["mint_address"])
	assert.NotEmpty(t, token["received_at"])

	_, body = f.do(t, http.MethodGet, "/get_crypto_tokens", "")
	assert.EqualValues(t, 0, body["count"])
	assert.Empty(t, body["tokens"])
}

func TestTokensExpireAfterWindow(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/", createPoolBody)
	f.clock.Add(21 * time.Second)

	_, body := f.do(t, http.MethodGet, "/get_crypto_tokens", "")
	assert.EqualValues(t, 0, body["count"])
}

func TestIngressAlwaysAcknowledges(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/", ""},
		{http.MethodPost, "/", "not json"},
		{http.MethodPost, "/", `{"no":"actions"}`},
		{http.MethodPost, "/liquidity_callback", `[1,2,3]`},
		{http.MethodPost, "/liquidity_callback", ""},
		{http.MethodPost, "/freeze_callback", `{"instructions":"nope"}`},
	}

	for _, tc := range cases {
		rec, body := f.do(t, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusOK, rec.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "received", body["status"])
	}

	assert.Zero(t, f.service.Tokens.Len())
}

func TestMonitorPoolLifecycle(t *testing.T) {
	f := newFixture(t)
	req := `{"pool_address":"PoolA","callback_url":"http://sub/x","test_mode":true}`

	rec, body := f.do(t, http.MethodPost, "/monitor_pool", req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "PoolA", body["pool_address"])
	assert.Equal(t, "monitoring", body["status"])
	assert.NotEmpty(t, body["callback_id"])

	rec, body = f.do(t, http.MethodPost, "/monitor_pool", req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, body["error"])

	rec, body = f.do(t, http.MethodDelete, "/stop_monitoring/PoolA", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PoolA", body["pool_address"])

	rec, body = f.do(t, http.MethodDelete, "/stop_monitoring/PoolA", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, body["error"])

	assert.Zero(t, f.gateway.creates)
}

func TestMonitorPoolValidation(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/monitor_pool", `{"pool_address":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/monitor_pool", `{"callback_url":"http://sub/x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/monitor_pool", `{"pool_address":"PoolA","callback_url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Zero(t, f.service.Pools.Len())
}

func TestMonitorPoolUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.fail = true

	rec, body := f.do(t, http.MethodPost, "/monitor_pool", `{"pool_address":"PoolA","callback_url":"https://sub.example/x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, body["error"])
	assert.Equal(t, 1, f.gateway.creates)
	assert.Zero(t, f.service.Pools.Len())
}

func TestMonitoredPoolsListing(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/monitor_pool", `{"pool_address":"PoolA","callback_url":"https://sub.example/a"}`)
	f.do(t, http.MethodPost, "/monitor_pool", `{"pool_address":"PoolB","callback_url":"https://sub.example/b","test_mode":true}`)

	rec, body := f.do(t, http.MethodGet, "/monitored_pools", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	byKey := map[string]map[string]any{}
	for _, raw := range body["pools"].([]any) {
		p := raw.(map[string]any)
		byKey[p["pool_address"].(string)] = p
	}
	require.Contains(t, byKey, "PoolA")
	require.Contains(t, byKey, "PoolB")
	assert.Equal(t, "hook-1", byKey["PoolA"]["webhook_id"])
	assert.Nil(t, byKey["PoolB"]["webhook_id"])
	assert.Equal(t, "https://sub.example/a", byKey["PoolA"]["callback_url"])
	assert.NotEmpty(t, byKey["PoolA"]["created_at"])

	rec, _ = f.do(t, http.MethodDelete, "/stop_monitoring/PoolA", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"hook-1"}, f.gateway.deletes)
}

func TestLiquidityCallbackForwardsAndBuffers(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var delivered []domain.Event
	sub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev domain.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err == nil {
			mu.Lock()
			delivered = append(delivered, ev)
			mu.Unlock()
		}
	}))
	defer sub.Close()

	rec, _ := f.do(t, http.MethodPost, "/monitor_pool",
		`{"pool_address":"PoolA","callback_url":"`+sub.URL+`/hook","test_mode":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/liquidity_callback",
		`{"signatures":["s1"],"actions":[{"type":"REMOVE_LIQUIDITY","info":{"amm_id":"PoolA","token_a":"MintX","token_b":"MintY","amount_a":"10.5","amount_b":3}}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	mu.Lock()
	require.Len(t, delivered, 1)
	assert.Equal(t, domain.KindLiquidityRemoved, delivered[0].Kind)
	require.NotNil(t, delivered[0].Liquidity)
	assert.Equal(t, "10.5", delivered[0].Liquidity.AmountA.String())
	mu.Unlock()

	_, body := f.do(t, http.MethodGet, "/liquidity_events", "")
	assert.EqualValues(t, 1, body["count"])

	f.clock.Add(301 * time.Second)
	_, body = f.do(t, http.MethodGet, "/liquidity_events", "")
	assert.EqualValues(t, 0, body["count"])
}

func TestFreezeMonitorRoutes(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/monitor_freeze", `{"address":"MintF","callback_url":"http://sub/f","test_mode":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "MintF", body["address"])

	rec, _ = f.do(t, http.MethodPost, "/monitor_freeze", `{"address":"MintF","callback_url":"http://sub/f","test_mode":true}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// independent keyspace
	rec, _ = f.do(t, http.MethodPost, "/monitor_pool", `{"pool_address":"MintF","callback_url":"http://sub/f","test_mode":true}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	_, body = f.do(t, http.MethodGet, "/monitored_freeze_addresses", "")
	assert.EqualValues(t, 1, body["count"])
	addresses := body["addresses"].([]any)
	assert.Equal(t, "MintF", addresses[0].(map[string]any)["address"])

	_, body = f.do(t, http.MethodGet, "/freeze_events", "")
	assert.EqualValues(t, 0, body["count"])

	rec, _ = f.do(t, http.MethodDelete, "/stop_freeze_monitoring/MintF", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = f.do(t, http.MethodDelete, "/stop_freeze_monitoring/MintF", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFreezeCallbackForwardsAndBuffers(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var delivered []domain.Event
	sub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev domain.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err == nil {
			mu.Lock()
			delivered = append(delivered, ev)
			mu.Unlock()
		}
	}))
	defer sub.Close()

	rec, _ := f.do(t, http.MethodPost, "/monitor_freeze",
		`{"address":"MintFrozen","callback_url":"`+sub.URL+`/freeze","test_mode":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	tx, err := json.Marshal(map[string]any{
		"signature":   "sigFreeze",
		"timestamp":   1714557600,
		"accountKeys": []string{"MintFrozen", "Victim"},
		"instructions": []any{
			map[string]any{
				"programId": classifier.TokenProgramID,
				"accounts":  []string{"Victim", "MintFrozen", "Authority"},
				"data":      base58.Encode([]byte{classifier.FreezeAccountDiscriminant}),
			},
		},
	})
	require.NoError(t, err)

	rec, body := f.do(t, http.MethodPost, "/freeze_callback", string(tx))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "received", body["status"])

	mu.Lock()
	require.Len(t, delivered, 1)
	assert.Equal(t, domain.KindFreezeAccount, delivered[0].Kind)
	assert.Equal(t, "MintFrozen", delivered[0].Key)
	require.NotNil(t, delivered[0].Freeze)
	assert.Equal(t, classifier.TokenProgramID, delivered[0].Freeze.ProgramID)
	mu.Unlock()

	_, body = f.do(t, http.MethodGet, "/freeze_events", "")
	require.EqualValues(t, 1, body["count"])
	event := body["events"].([]any)[0].(map[string]any)
	assert.Equal(t, "freeze_account", event["kind"])
	assert.Equal(t, "MintFrozen", event["key"])
	assert.Equal(t, "sigFreeze", event["transaction_signature"])

	// unmonitored freeze traffic is ignored
	rec, _ = f.do(t, http.MethodDelete, "/stop_freeze_monitoring/MintFrozen", "")
	require.Equal(t, http.StatusOK, rec.Code)
	f.do(t, http.MethodPost, "/freeze_callback", string(tx))
	_, body = f.do(t, http.MethodGet, "/freeze_events", "")
	assert.EqualValues(t, 1, body["count"])

	f.clock.Add(301 * time.Second)
	_, body = f.do(t, http.MethodGet, "/freeze_events", "")
	assert.EqualValues(t, 0, body["count"])
}

func TestHealthAndPing(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/", createPoolBody)
	f.clock.Add(time.Minute)

	rec, body := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 1, body["pending_tokens"])
	assert.EqualValues(t, 0, body["monitored_pools"])
	assert.Equal(t, "1m0s", body["uptime"])

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec, body = f.do(t, method, "/ping", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", body["status"])
		assert.Equal(t, method, body["method"])
		assert.NotEmpty(t, body["timestamp"])
	}

	// introspection never drains
	assert.Equal(t, 1, f.service.Tokens.Len())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/liquidity_callback", `{}`)

	rec, _ := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `solana_relay_callbacks_received_total{route="/liquidity_callback"} 1`)
	assert.Contains(t, rec.Body.String(), "solana_relay_monitored_pools 0")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/monitor_pool", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecovererReturns500(t *testing.T) {
	s := &Server{logger: zap.NewNop(), clock: clock.NewMock()}
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", bytes.NewReader(nil)))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}
