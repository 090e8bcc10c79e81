package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurowallet/neurowallet/internal/config"
	"github.com/neurowallet/neurowallet/internal/identity"
	"github.com/neurowallet/neurowallet/internal/logging"
	"github.com/neurowallet/neurowallet/internal/rates"
	"github.com/neurowallet/neurowallet/internal/risk"
)

const testSecret = "server-test-secret"

func newTestServer(t *testing.T) (*Server, *identity.Verifier) {
	t.Helper()
	cfg := config.Config{
		AppName:             "NeuroWallet",
		AppEnv:              "test",
		Port:                "0",
		JWTSecret:           testSecret,
		SupportedCurrencies: []string{"MYR", "SGD", "USD"},
		RiskThresholds:      risk.DefaultThresholds(),
		ExchangeRates:       rates.DefaultRates(),
		TxRateLimitPerMin:   100,
	}
	srv, err := New(cfg, nil, nil, logging.Discard())
	require.NoError(t, err)
	verifier, err := identity.NewVerifier(testSecret)
	require.NoError(t, err)
	return srv, verifier
}

type client struct {
	t     *testing.T
	srv   *Server
	token string
}

func newClient(t *testing.T, srv *Server, v *identity.Verifier, c identity.Caller) client {
	tok, err := v.Sign(c, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	require.NoError(t, err)
	return client{t: t, srv: srv, token: tok}
}

func (c client) do(method, path, body string, out any) int {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.srv.App().Test(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(payload, out), string(payload))
	}
	return resp.StatusCode
}

type walletBody struct {
	ID      string `json:"id"`
	Balance string `json:"balance"`
	Status  string `json:"status"`
}

func TestEndToEndLedgerFlow(t *testing.T) {
	srv, verifier := newTestServer(t)
	alice := newClient(t, srv, verifier, identity.Caller{Subject: "alice@example.com"})
	admin := newClient(t, srv, verifier, identity.Caller{Subject: "ops@example.com", Role: identity.RoleAdmin})

	var sgd, usd walletBody
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/v1/wallets", `{"currency":"SGD"}`, &sgd))
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/v1/wallets", `{"currency":"usd"}`, &usd))
	assert.Equal(t, "0.00", sgd.Balance)

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict, alice.do(http.MethodPost, "/api/v1/wallets", `{"currency":"SGD"}`, &errBody))
	assert.NotEmpty(t, errBody["error"])

	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/v1/transactions",
		`{"wallet_id":"`+sgd.ID+`","amount":"3000.00","type":"DEPOSIT"}`, nil))
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/v1/transactions",
		`{"wallet_id":"`+sgd.ID+`","amount":"2000.00","type":"TRANSFER","to_wallet_id":"`+usd.ID+`"}`, nil))

	require.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/v1/wallets/"+usd.ID, "", &usd))
	assert.Equal(t, "1480.00", usd.Balance)

	var flagged []map[string]any
	require.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/v1/transactions?risk=true", "", &flagged))
	assert.Len(t, flagged, 2)

	assert.Equal(t, http.StatusForbidden, alice.do(http.MethodPut, "/api/v1/admin/wallets/"+sgd.ID+"/freeze", "", nil))
	var frozen walletBody
	require.Equal(t, http.StatusOK, admin.do(http.MethodPut, "/api/v1/admin/wallets/"+sgd.ID+"/freeze", "", &frozen))
	assert.Equal(t, "FROZEN", frozen.Status)
	assert.Equal(t, "1000.00", frozen.Balance)

	assert.Equal(t, http.StatusConflict, alice.do(http.MethodPost, "/api/v1/transactions",
		`{"wallet_id":"`+sgd.ID+`","amount":"1","type":"WITHDRAWAL"}`, nil))

	var all []map[string]any
	require.Equal(t, http.StatusOK, admin.do(http.MethodGet, "/api/v1/admin/transactions", "", &all))
	assert.Len(t, all, 2)
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	anon := client{t: t, srv: srv}

	var body map[string]string
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/v1/wallets", "", &body))
	assert.Equal(t, "missing bearer token", body["error"])
	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/healthz", "", nil))
	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/api/v1/ping", "", nil))
}
