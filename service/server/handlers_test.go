package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brojonat/minisolscan/service/db"
	natspkg "github.com/brojonat/minisolscan/service/nats"
	"github.com/brojonat/minisolscan/service/network"
	"github.com/brojonat/minisolscan/service/prefs"
	"github.com/brojonat/minisolscan/service/solana"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSignature = "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7"

// fakeFetcher returns a canned result and records what it was asked.
type fakeFetcher struct {
	mu      sync.Mutex
	view    *solana.TransactionView
	err     error
	calls   []network.Config
	block   chan struct{}
	started chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, signature string, cfg network.Config) (*solana.TransactionView, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cfg)
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	v := *f.view
	v.Signature = signature
	return &v, nil
}

// memoryHistory is an in-memory History.
type memoryHistory struct {
	mu      sync.Mutex
	lookups []*db.Lookup
	err     error
}

func (h *memoryHistory) RecordLookup(ctx context.Context, p db.RecordLookupParams) (*db.Lookup, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	l := &db.Lookup{
		ID:               int64(len(h.lookups) + 1),
		Signature:        p.Signature,
		Network:          p.Network,
		Status:           p.Status,
		Slot:             int64(p.Slot),
		Fee:              int64(p.Fee),
		Signer:           p.Signer,
		InstructionCount: p.InstructionCount,
		LookedUpAt:       time.Now(),
	}
	h.lookups = append(h.lookups, l)
	return l, nil
}

func (h *memoryHistory) ListLookups(ctx context.Context, p db.ListLookupsParams) ([]*db.Lookup, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	out := make([]*db.Lookup, 0)
	for i := len(h.lookups) - 1; i >= 0; i-- {
		if p.Network == "" || h.lookups[i].Network == p.Network {
			out = append(out, h.lookups[i])
		}
	}
	return out, nil
}

func testView() *solana.TransactionView {
	return &solana.TransactionView{
		Status:    solana.StatusSuccess,
		Timestamp: "11/14/2023, 10:13:20 PM",
		Signer:    "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		Slot:      250000000,
		Fee:       5000,
		Instructions: []solana.InstructionView{
			{ProgramID: solana.SystemProgramID, ProgramName: "System Program", Label: "Instruction #1"},
		},
	}
}

type testEnv struct {
	handler   http.Handler
	fetcher   *fakeFetcher
	history   *memoryHistory
	publisher *natspkg.MockPublisher
	store     *prefs.MemoryStore
}

// newTestEnv builds a server that accepts any custom endpoint.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithPolicy(t, network.EndpointPolicy{AllowCustom: true, AllowPrivateHosts: true})
}

func newTestEnvWithPolicy(t *testing.T, policy network.EndpointPolicy) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		fetcher:   &fakeFetcher{view: testView()},
		history:   &memoryHistory{},
		publisher: natspkg.NewMockPublisher(),
		store:     prefs.NewMemoryStore(time.Hour),
	}
	sessions := NewSessions(env.store, time.Hour, network.Devnet, nil, logger)
	srv := New(":0", sessions, env.fetcher, env.history, env.publisher, nil, logger)
	require.NoError(t, srv.WithTemplates())
	srv.WithEndpointPolicy(policy)
	env.handler = srv.Handler()
	return env
}

// do sends a request, carrying over the session cookie when given.
func (e *testEnv) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListNetworks(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/networks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[networksResponse](t, rec)
	require.Len(t, resp.Networks, 5)
	assert.Equal(t, network.MainnetBeta, resp.Networks[0].Type)
	assert.Equal(t, network.Custom, resp.Networks[4].Type)
	assert.Equal(t, network.Devnet, resp.Active.Type)

	c := sessionCookie(t, rec)
	assert.True(t, c.HttpOnly)
}

func TestSelectNetwork(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/network", `{"network":"testnet"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(t, rec)

	cfg := decode[network.Config](t, rec)
	assert.Equal(t, network.Testnet, cfg.Type)
	assert.Equal(t, "https://api.testnet.solana.com", cfg.URL)

	// The selection sticks to the session.
	rec = env.do(t, http.MethodGet, "/api/v1/network", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, network.Testnet, decode[network.Config](t, rec).Type)

	// And is persisted under the session namespace.
	v, err := env.store.Get(context.Background(), "session/"+cookie.Value+"/selectedNetwork")
	require.NoError(t, err)
	assert.Equal(t, "testnet", v)

	// A different session is unaffected.
	rec = env.do(t, http.MethodGet, "/api/v1/network", "", nil)
	assert.Equal(t, network.Devnet, decode[network.Config](t, rec).Type)
}

func TestSelectNetwork_Custom(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/network", `{"network":"custom","custom_url":" http://localhost:8899 "}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cfg := decode[network.Config](t, rec)
	assert.Equal(t, network.Custom, cfg.Type)
	assert.Equal(t, "http://localhost:8899", cfg.URL)
}

func TestSelectNetwork_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown network", `{"network":"moonnet"}`, "unknown network"},
		{"custom without url", `{"network":"custom"}`, "requires an RPC URL"},
		{"custom with bad scheme", `{"network":"custom","custom_url":"ftp://x"}`, "http, https, ws or wss"},
		{"malformed json", `{"network":`, "invalid request body"},
		{"unknown field", `{"net":"devnet"}`, "invalid request body"},
		{"empty body", ``, "request body is required"},
		{"huge body", `{"network":"` + strings.Repeat("a", 1<<17) + `"}`, "request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(t, http.MethodPut, "/api/v1/network", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["error"], tt.want)

			rec = env.do(t, http.MethodGet, "/api/v1/network", "", sessionCookie(t, rec))
			assert.Equal(t, network.Devnet, decode[network.Config](t, rec).Type, "selection unchanged")
		})
	}
}

func TestTheme(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/preferences", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.Equal(t, "light", string(decode[preferencesResponse](t, rec).Theme))

	rec = env.do(t, http.MethodPut, "/api/v1/theme", `{"theme":"dark"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dark", string(decode[preferencesResponse](t, rec).Theme))

	rec = env.do(t, http.MethodPut, "/api/v1/theme", `{"toggle":true}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "light", string(decode[preferencesResponse](t, rec).Theme))

	rec = env.do(t, http.MethodPut, "/api/v1/theme", `{"theme":"sepia"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignatureCheck(t *testing.T) {
	env := newTestEnv(t)

	tests := map[string]string{
		"":                           "empty",
		"abc":                        "invalid",
		strings.Repeat("1", 88):      "valid",
		strings.Repeat("0", 88):      "invalid",
		"%20" + testSignature + "%20": "valid",
	}
	for sig, want := range tests {
		rec := env.do(t, http.MethodGet, "/api/v1/signature-check?signature="+sig, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, decode[map[string]string](t, rec)["status"], "signature %q", sig)
	}
}

func TestLookupTransaction(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/network", `{"network":"mainnet-beta"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	rec = env.do(t, http.MethodGet, "/api/v1/transactions/"+testSignature, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Signature    string `json:"signature"`
		Status       string `json:"status"`
		Fee          uint64 `json:"fee"`
		FeeSOL       string `json:"fee_sol"`
		Network      string `json:"network"`
		Instructions []struct {
			Label       string `json:"label"`
			ProgramName string `json:"program_name"`
		} `json:"instructions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, testSignature, resp.Signature)
	assert.Equal(t, "Success", resp.Status)
	assert.Equal(t, uint64(5000), resp.Fee)
	assert.Equal(t, "0.000005000", resp.FeeSOL)
	assert.Equal(t, "mainnet-beta", resp.Network)
	require.Len(t, resp.Instructions, 1)
	assert.Equal(t, "Instruction #1", resp.Instructions[0].Label)

	// The fetcher was pointed at the session's network.
	require.Len(t, env.fetcher.calls, 1)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", env.fetcher.calls[0].URL)

	// History and events are recorded.
	require.Len(t, env.history.lookups, 1)
	assert.Equal(t, "mainnet-beta", env.history.lookups[0].Network)
	events := env.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "lookups.mainnet-beta", events[0].Subject())
}

func TestLookupTransaction_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &solana.Error{Kind: solana.KindValidation, Msg: "invalid signature format"}, http.StatusBadRequest, "invalid signature format"},
		{"not found", &solana.Error{Kind: solana.KindNotFound, Msg: "transaction not found on the selected network"}, http.StatusNotFound, "transaction not found on the selected network"},
		{"fetch", &solana.Error{Kind: solana.KindFetch, Msg: "failed to fetch transaction", Err: errors.New("dial tcp 10.0.0.7:8899: connection refused")}, http.StatusBadGateway, "failed to fetch transaction"},
		{"untyped", errors.New("boom"), http.StatusBadGateway, "failed to fetch transaction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.fetcher.err = tt.err

			rec := env.do(t, http.MethodGet, "/api/v1/transactions/"+testSignature, "", nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decode[map[string]string](t, rec)["error"])
			assert.Empty(t, env.history.lookups, "failed lookups are not recorded")
			assert.Zero(t, env.publisher.EventCount())
		})
	}
}

func TestLookupTransaction_BestEffortSideEffects(t *testing.T) {
	env := newTestEnv(t)
	env.history.err = errors.New("db down")
	env.publisher.FailWith(errors.New("nats down"))

	rec := env.do(t, http.MethodGet, "/api/v1/transactions/"+testSignature, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLookupTransaction_OneInFlightPerSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/network", "", nil)
	cookie := sessionCookie(t, rec)

	block := make(chan struct{})
	started := make(chan struct{})
	env.fetcher.mu.Lock()
	env.fetcher.block, env.fetcher.started = block, started
	env.fetcher.mu.Unlock()

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- env.do(t, http.MethodGet, "/api/v1/transactions/"+testSignature, "", cookie)
	}()
	<-started

	rec = env.do(t, http.MethodGet, "/api/v1/transactions/"+testSignature, "", cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Another session is not blocked by it.
	env.fetcher.mu.Lock()
	env.fetcher.block, env.fetcher.started = nil, nil
	env.fetcher.mu.Unlock()
	rec = env.do(t, http.MethodGet, "/api/v1/transactions/"+testSignature, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	close(block)
	assert.Equal(t, http.StatusOK, (<-first).Code)

	// The slot is released once the first lookup finishes.
	rec = env.do(t, http.MethodGet, "/api/v1/transactions/"+testSignature, "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListLookups(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/v1/transactions/"+testSignature, "", nil)

	rec := env.do(t, http.MethodGet, "/api/v1/lookups?network=devnet&limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Lookups []db.Lookup `json:"lookups"`
		Count   int         `json:"count"`
		Limit   int         `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 10, resp.Limit)
	assert.Equal(t, testSignature, resp.Lookups[0].Signature)

	for _, q := range []string{"network=moonnet", "limit=0", "limit=abc", "limit=100000", "offset=-1"} {
		rec := env.do(t, http.MethodGet, "/api/v1/lookups?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestListLookups_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := NewSessions(prefs.NewMemoryStore(time.Hour), time.Hour, network.Devnet, nil, logger)
	srv := New(":0", sessions, &fakeFetcher{view: testView()}, nil, nil, nil, logger)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/lookups", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Lookups still work without history or events.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+testSignature, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndCORS(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = env.do(t, http.MethodOptions, "/api/v1/network", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	body := rec.Body.String()
	assert.Contains(t, body, `data-theme="light"`)
	assert.Contains(t, body, "https://api.devnet.solana.com")
	assert.Empty(t, env.fetcher.calls)

	rec = env.do(t, http.MethodGet, "/?signature="+testSignature, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "0.000005000 SOL")
	assert.Contains(t, body, "Instruction #1")
	assert.Contains(t, body, "9WzDXwBb...9zYtAWWM")
	assert.Len(t, env.history.lookups, 1)

	env.fetcher.err = &solana.Error{Kind: solana.KindValidation, Msg: "please enter a transaction signature"}
	rec = env.do(t, http.MethodGet, "/?signature=", "", cookie)
	assert.Contains(t, rec.Body.String(), "please enter a transaction signature")
}

func TestForms(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "", nil)
	cookie := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodPost, "/network", strings.NewReader("network=localnet"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/theme", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/preferences", "", cookie)
	got := decode[preferencesResponse](t, rec)
	assert.Equal(t, network.Localnet, got.Network.Type)
	assert.Equal(t, "dark", string(got.Theme))

	req = httptest.NewRequest(http.MethodPost, "/network", strings.NewReader("network=custom"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectNetwork_CustomDisabled(t *testing.T) {
	env := newTestEnvWithPolicy(t, network.EndpointPolicy{})

	rec := env.do(t, http.MethodGet, "/api/v1/networks", "", nil)
	cookie := sessionCookie(t, rec)
	resp := decode[networksResponse](t, rec)
	require.Len(t, resp.Networks, 4)
	for _, cfg := range resp.Networks {
		assert.NotEqual(t, network.Custom, cfg.Type)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/network", `{"network":"custom","custom_url":"https://rpc.example.com"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "custom RPC endpoints are disabled")

	rec = env.do(t, http.MethodGet, "/api/v1/network", "", cookie)
	assert.Equal(t, network.Devnet, decode[network.Config](t, rec).Type)

	// presets still work
	rec = env.do(t, http.MethodPut, "/api/v1/network", `{"network":"testnet"}`, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSelectNetwork_PrivateHostRejected(t *testing.T) {
	env := newTestEnvWithPolicy(t, network.EndpointPolicy{AllowCustom: true})

	for _, u := range []string{
		"http://127.0.0.1:8899",
		"http://169.254.169.254/latest/meta-data",
		"http://localhost:6379",
		"http://10.0.0.7:8080",
	} {
		t.Run(u, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/api/v1/network", `{"network":"custom","custom_url":"`+u+`"}`, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["error"], "public host")
		})
	}

	rec := env.do(t, http.MethodPut, "/api/v1/network", `{"network":"custom","custom_url":"https://rpc.example.com"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNetworkForm_CustomDisabled(t *testing.T) {
	env := newTestEnvWithPolicy(t, network.EndpointPolicy{})

	rec := env.do(t, http.MethodGet, "/", "", nil)
	cookie := sessionCookie(t, rec)
	assert.NotContains(t, rec.Body.String(), "custom_url")

	req := httptest.NewRequest(http.MethodPost, "/network", strings.NewReader("network=custom&custom_url=http%3A%2F%2F169.254.169.254"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookupTransaction_PersistedCustomRejected(t *testing.T) {
	env := newTestEnvWithPolicy(t, network.EndpointPolicy{})
	ctx := context.Background()

	// a session saved while custom endpoints were allowed
	id := "0b7c2f0e-5d1a-4c57-9f5e-0d6f2f3b9a11"
	stored := prefs.Namespace(env.store, "session/"+id)
	require.NoError(t, stored.Set(ctx, network.KeyCustomRPCURL, "http://10.0.0.7:8899"))
	require.NoError(t, stored.Set(ctx, network.KeySelectedNetwork, string(network.Custom)))
	cookie := &http.Cookie{Name: SessionCookie, Value: id}

	rec := env.do(t, http.MethodGet, "/api/v1/transactions/"+testSignature, "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "disabled")

	rec = env.do(t, http.MethodGet, "/?signature="+testSignature, "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "disabled")

	env.fetcher.mu.Lock()
	defer env.fetcher.mu.Unlock()
	assert.Empty(t, env.fetcher.calls, "the endpoint is never dialed")
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := NewSessions(prefs.NewMemoryStore(time.Hour), time.Hour, network.Devnet, nil, logger)
	srv := New("127.0.0.1:0", sessions, &fakeFetcher{view: testView()}, nil, nil, nil, logger)

	require.NoError(t, srv.Shutdown(context.Background()))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestServer_StartThenShutdown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := NewSessions(prefs.NewMemoryStore(time.Hour), time.Hour, network.Devnet, nil, logger)
	srv := New("127.0.0.1:0", sessions, &fakeFetcher{view: testView()}, nil, nil, nil, logger)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	// Shutdown is safe whether or not the listener is up yet.
	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
