package bitfinex

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mmquant/bfx-go/auth"
	"github.com/mmquant/bfx-go/params"
	"github.com/mmquant/bfx-go/request"
	"github.com/mmquant/bfx-go/schema"
	"github.com/mmquant/bfx-go/withdrawconf"
)

// capturedRequest is one request observed by the test exchange
type capturedRequest struct {
	Method  string
	Path    string
	Body    string
	Headers http.Header
}

// testExchange fakes the v1 API: it serves the symbols bootstrap and echoes
// a canned body for everything else, recording every request it sees
type testExchange struct {
	mu       sync.Mutex
	requests []capturedRequest
	respond  string
}

func (e *testExchange) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		e.mu.Lock()
		e.requests = append(e.requests, capturedRequest{
			Method:  r.Method,
			Path:    r.URL.RequestURI(),
			Body:    string(body),
			Headers: r.Header.Clone(),
		})
		e.mu.Unlock()

		if r.URL.Path == "/v1/symbols" {
			w.Write([]byte(`["btcusd","ethusd","ltcusd"]`))
			return
		}
		w.Write([]byte(e.respond))
	})
}

func (e *testExchange) calls() []capturedRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]capturedRequest(nil), e.requests...)
}

func (e *testExchange) reset() {
	e.mu.Lock()
	e.requests = nil
	e.mu.Unlock()
}

// callsAfterBootstrap drops the /v1/symbols request New always issues
func (e *testExchange) callsAfterBootstrap() []capturedRequest {
	all := e.calls()
	if len(all) == 0 {
		return nil
	}
	return all[1:]
}

func newTestClient(t *testing.T, ex *testExchange, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(ex.handler())
	t.Cleanup(srv.Close)

	opts = append([]Option{WithAPIURL(srv.URL)}, opts...)
	c, err := New(context.Background(), "test-key", "test-secret", opts...)
	require.NoError(t, err)
	return c
}

func TestNewBootstrapsSymbols(t *testing.T) {
	ex := &testExchange{}
	c := newTestClient(t, ex)

	reg := c.Registry()
	assert.True(t, reg.Contains(params.Symbols, "btcusd"))
	assert.True(t, reg.Contains(params.Symbols, "ethusd"))
	assert.False(t, reg.Contains(params.Symbols, "dogeusd"))
	assert.Equal(t, 3, reg.Len(params.Symbols))

	calls := ex.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/v1/symbols", calls[0].Path)
}

func TestNewRejectsInvalidSymbolsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"message":"maintenance"}`))
	}))
	defer srv.Close()

	_, err := New(context.Background(), "", "", WithAPIURL(srv.URL))
	assert.ErrorIs(t, err, schema.ErrSchemaViolation)
}

func TestNewTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := New(context.Background(), "", "", WithAPIURL(srv.URL))
	assert.ErrorIs(t, err, request.ErrTransport)
}

func TestGetTickerIssuesSingleGET(t *testing.T) {
	ex := &testExchange{respond: `{"mid":"6581.55","bid":"6581.5"}`}
	c := newTestClient(t, ex)

	resp, err := c.GetTicker(context.Background(), "btcusd")
	require.NoError(t, err)
	assert.Equal(t, `{"mid":"6581.55","bid":"6581.5"}`, resp,
		"raw body passes through unmodified")

	calls := ex.callsAfterBootstrap()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodGet, calls[0].Method)
	assert.Equal(t, "/v1/pubticker/btcusd", calls[0].Path)
	assert.Empty(t, calls[0].Body)
	assert.Equal(t, http.StatusOK, c.LastHTTPStatus())
}

func TestGetTickerBadSymbolIssuesNoNetworkCalls(t *testing.T) {
	ex := &testExchange{}
	c := newTestClient(t, ex)

	_, err := c.GetTicker(context.Background(), "dogeusd")
	assert.ErrorIs(t, err, params.ErrBadSymbol)
	assert.Empty(t, ex.callsAfterBootstrap(), "validation happens before I/O")
}

func TestPublicEndpointQueryEncoding(t *testing.T) {
	ex := &testExchange{respond: `[]`}
	c := newTestClient(t, ex)

	_, err := c.GetOrderBook(context.Background(), "btcusd", 10, 20, true)
	require.NoError(t, err)

	calls := ex.callsAfterBootstrap()
	require.Len(t, calls, 1)
	assert.Equal(t, "/v1/book/btcusd?group=1&limit_asks=20&limit_bids=10", calls[0].Path)
}

func TestPublicEndpointValidation(t *testing.T) {
	ex := &testExchange{respond: `[]`}
	c := newTestClient(t, ex)
	ctx := context.Background()

	_, err := c.GetStats(ctx, "nope")
	assert.ErrorIs(t, err, params.ErrBadSymbol)
	_, err = c.GetFundingBook(ctx, "DOGE", 1, 1)
	assert.ErrorIs(t, err, params.ErrBadCurrency)
	_, err = c.GetTrades(ctx, "nope", 0, 50)
	assert.ErrorIs(t, err, params.ErrBadSymbol)
	_, err = c.GetLends(ctx, "DOGE", 0, 50)
	assert.ErrorIs(t, err, params.ErrBadCurrency)
	assert.Empty(t, ex.callsAfterBootstrap())
}

// decodePayload pulls the JSON payload back out of the X-BFX-PAYLOAD header
func decodePayload(t *testing.T, r capturedRequest) (string, map[string]interface{}) {
	t.Helper()
	b64 := r.Headers.Get(auth.HeaderPayload)
	require.NotEmpty(t, b64)
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	return string(raw), fields
}

func TestAuthenticatedRequestWireContract(t *testing.T) {
	ex := &testExchange{respond: `[{"type":"exchange"}]`}
	c := newTestClient(t, ex)

	resp, err := c.GetBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `[{"type":"exchange"}]`, resp)

	calls := ex.callsAfterBootstrap()
	require.Len(t, calls, 1)
	r := calls[0]
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "/v1/balances", r.Path)
	assert.Equal(t, "\n", r.Body, "parameters travel in headers, body is a newline")
	assert.Equal(t, "test-key", r.Headers.Get(auth.HeaderAPIKey))

	raw, fields := decodePayload(t, r)
	assert.True(t, strings.HasPrefix(raw, `{"request":"/v1/balances","nonce":"`),
		"payload opens with request and nonce")
	assert.Equal(t, "/v1/balances", fields["request"])

	// signature verifies against the shipped payload
	wantPayload, wantSig := auth.Sign([]byte(raw), "test-secret")
	assert.Equal(t, wantPayload, r.Headers.Get(auth.HeaderPayload))
	assert.Equal(t, wantSig, r.Headers.Get(auth.HeaderSignature))
}

func TestAuthenticatedNonceStrictlyIncreases(t *testing.T) {
	ex := &testExchange{respond: `[]`}
	c := newTestClient(t, ex)
	ctx := context.Background()

	_, err := c.GetBalances(ctx)
	require.NoError(t, err)
	_, err = c.GetActiveOrders(ctx)
	require.NoError(t, err)
	_, err = c.GetSummary(ctx)
	require.NoError(t, err)

	calls := ex.callsAfterBootstrap()
	require.Len(t, calls, 3)
	var prev int64
	for _, r := range calls {
		_, fields := decodePayload(t, r)
		n, err := strconv.ParseInt(fields["nonce"].(string), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}
}

func TestAuthenticatedRequiresCredentials(t *testing.T) {
	ex := &testExchange{}
	c := newTestClient(t, ex)
	c.SetCredentials("", "")

	assert.False(t, c.HasCredentials())
	_, err := c.GetBalances(context.Background())
	assert.ErrorIs(t, err, ErrCredentialsUnset)
	assert.Empty(t, ex.callsAfterBootstrap())
}

func TestNewOrderValidation(t *testing.T) {
	ex := &testExchange{respond: `{}`}
	c := newTestClient(t, ex)
	ctx := context.Background()

	_, err := c.NewOrder(ctx, "btcusd", 0.1, 6000, "buy", "iceberg", nil)
	assert.ErrorIs(t, err, params.ErrBadOrderType)
	_, err = c.NewOrder(ctx, "dogeusd", 0.1, 6000, "buy", "limit", nil)
	assert.ErrorIs(t, err, params.ErrBadSymbol)
	assert.Empty(t, ex.callsAfterBootstrap(), "invalid orders never reach the wire")

	_, err = c.NewOrder(ctx, "btcusd", 0.1, 6000, "buy", "exchange limit", nil)
	require.NoError(t, err)

	calls := ex.callsAfterBootstrap()
	require.Len(t, calls, 1)
	raw, fields := decodePayload(t, calls[0])
	assert.True(t, strings.HasPrefix(raw, `{"request":"/v1/order/new","nonce":"`))
	assert.Equal(t, "btcusd", fields["symbol"])
	assert.Equal(t, "0.1", fields["amount"])
	assert.Equal(t, "6000", fields["price"])
	assert.Equal(t, "buy", fields["side"])
	assert.Equal(t, "exchange limit", fields["type"])
	assert.Equal(t, false, fields["is_hidden"])
}

func TestNewOrdersBatch(t *testing.T) {
	ex := &testExchange{respond: `{}`}
	c := newTestClient(t, ex)
	ctx := context.Background()

	orders := []PlaceOrder{
		{Symbol: "btcusd", Amount: 0.1, Price: 6000, Side: "buy", Type: "limit"},
		{Symbol: "ethusd", Amount: 2, Price: 400, Side: "sell", Type: "market"},
	}
	_, err := c.NewOrders(ctx, orders)
	require.NoError(t, err)

	calls := ex.callsAfterBootstrap()
	require.Len(t, calls, 1)
	_, fields := decodePayload(t, calls[0])
	batch, ok := fields["payload"].([]interface{})
	require.True(t, ok)
	require.Len(t, batch, 2)
	first := batch[0].(map[string]interface{})
	assert.Equal(t, "btcusd", first["symbol"])
	assert.Equal(t, "0.1", first["amount"], "amounts serialise as strings")

	// one bad order poisons the whole batch before any I/O
	orders[1].Type = "iceberg"
	_, err = c.NewOrders(ctx, orders)
	assert.ErrorIs(t, err, params.ErrBadOrderType)
	assert.Len(t, ex.callsAfterBootstrap(), 1)
}

func TestWalletTransferValidation(t *testing.T) {
	ex := &testExchange{respond: `[{"status":"success"}]`}
	c := newTestClient(t, ex)
	ctx := context.Background()

	_, err := c.WalletTransfer(ctx, 1, "DOGE", "exchange", "deposit")
	assert.ErrorIs(t, err, params.ErrBadCurrency)
	_, err = c.WalletTransfer(ctx, 1, "USD", "vault", "deposit")
	assert.ErrorIs(t, err, params.ErrBadWalletType)
	_, err = c.WalletTransfer(ctx, 1, "USD", "exchange", "vault")
	assert.ErrorIs(t, err, params.ErrBadWalletType)
	assert.Empty(t, ex.callsAfterBootstrap())

	_, err = c.WalletTransfer(ctx, 1, "USD", "exchange", "deposit")
	require.NoError(t, err)
}

func TestNewDepositValidation(t *testing.T) {
	ex := &testExchange{respond: `{}`}
	c := newTestClient(t, ex)
	ctx := context.Background()

	_, err := c.NewDeposit(ctx, "dogecoin", "exchange", 0)
	assert.ErrorIs(t, err, params.ErrBadDepositMethod)
	_, err = c.NewDeposit(ctx, "bitcoin", "vault", 0)
	assert.ErrorIs(t, err, params.ErrBadWalletType)
	assert.Empty(t, ex.callsAfterBootstrap())

	_, err = c.NewDeposit(ctx, "bitcoin", "deposit", 1)
	require.NoError(t, err)
}

func TestGetBalanceHistoryWalletSpecialCase(t *testing.T) {
	ex := &testExchange{respond: `[]`}
	c := newTestClient(t, ex)
	ctx := context.Background()

	_, err := c.GetBalanceHistory(ctx, "USD", time.Time{}, time.Time{}, 500, "vault")
	assert.ErrorIs(t, err, params.ErrBadWalletType)

	// "all" bypasses the wallet whitelist and omits the field
	_, err = c.GetBalanceHistory(ctx, "USD", time.Time{}, time.Time{}, 500, "all")
	require.NoError(t, err)
	calls := ex.callsAfterBootstrap()
	require.Len(t, calls, 1)
	_, fields := decodePayload(t, calls[0])
	_, hasWallet := fields["wallet"]
	assert.False(t, hasWallet)

	_, err = c.GetBalanceHistory(ctx, "USD", time.Time{}, time.Time{}, 500, "trading")
	require.NoError(t, err)
	_, fields = decodePayload(t, ex.callsAfterBootstrap()[1])
	assert.Equal(t, "trading", fields["wallet"])
}

func TestGetWithdrawalHistoryMethodSpecialCases(t *testing.T) {
	ex := &testExchange{respond: `[]`}
	c := newTestClient(t, ex)
	ctx := context.Background()
	now := time.Now()

	_, err := c.GetWithdrawalHistory(ctx, "USD", "dogecoin", time.Time{}, now, 500)
	assert.ErrorIs(t, err, params.ErrBadDepositMethod)

	for _, method := range []string{"wire", "all", "bitcoin"} {
		_, err = c.GetWithdrawalHistory(ctx, "USD", method, time.Time{}, now, 500)
		require.NoError(t, err, method)
	}

	calls := ex.callsAfterBootstrap()
	require.Len(t, calls, 3)
	_, fields := decodePayload(t, calls[1])
	_, hasMethod := fields["method"]
	assert.False(t, hasMethod, `method "all" is not filtered on`)
}

func TestGetPastFundingTradesUntilOmittedWhenZero(t *testing.T) {
	ex := &testExchange{respond: `[]`}
	c := newTestClient(t, ex)
	ctx := context.Background()

	// the zero time means "no cutoff" and must not reach the wire
	_, err := c.GetPastFundingTrades(ctx, "USD", time.Time{}, 50)
	require.NoError(t, err)
	_, fields := decodePayload(t, ex.callsAfterBootstrap()[0])
	assert.Equal(t, "USD", fields["symbol"])
	_, hasUntil := fields["until"]
	assert.False(t, hasUntil)

	cut := time.Unix(1530620498, 0)
	_, err = c.GetPastFundingTrades(ctx, "USD", cut, 50)
	require.NoError(t, err)
	_, fields = decodePayload(t, ex.callsAfterBootstrap()[1])
	assert.Equal(t, float64(1530620498), fields["until"])
}

func TestOptionOrderDoesNotChangeWiring(t *testing.T) {
	ex := &testExchange{respond: `[]`}
	srv := httptest.NewServer(ex.handler())
	t.Cleanup(srv.Close)

	core, logs := observer.New(zap.DebugLevel)
	custom := &http.Client{Timeout: 5 * time.Second}

	// the transport option precedes the logger option; the requester must
	// still log through the injected logger
	c, err := New(context.Background(), "k", "s",
		WithHTTPClient(custom),
		WithLogger(zap.New(core)),
		WithAPIURL(srv.URL))
	require.NoError(t, err)

	assert.NotZero(t, logs.FilterMessage("request complete").Len(),
		"bootstrap request logged through the injected logger")

	_, err = c.GetBalances(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, logs.FilterMessage("request complete").
		FilterField(zap.String("path", srv.URL+"/v1/balances")).Len())
}

func TestWithdraw(t *testing.T) {
	ex := &testExchange{respond: `[{"status":"success"}]`}

	writeConf := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "withdraw.conf")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("wire params missing", func(t *testing.T) {
		c := newTestClient(t, ex)
		c.SetWithdrawConfPath(writeConf(t, `withdraw_type = "wire"
walletselected = "exchange"
amount = "0.1"
`))
		_, err := c.Withdraw(context.Background())
		assert.ErrorIs(t, err, withdrawconf.ErrWireParamsMissing)
		assert.Empty(t, ex.callsAfterBootstrap())
		ex.reset()
	})

	t.Run("crypto withdrawal", func(t *testing.T) {
		c := newTestClient(t, ex)
		c.SetWithdrawConfPath(writeConf(t, `withdraw_type = "bitcoin"
walletselected = "exchange"
amount = "0.01"
address = "1DKwqRhDmVyHJDL4FUYpDmQMYA3Rsxtvur"
`))
		_, err := c.Withdraw(context.Background())
		require.NoError(t, err)

		calls := ex.callsAfterBootstrap()
		require.Len(t, calls, 1)
		raw, fields := decodePayload(t, calls[0])
		assert.True(t, strings.HasPrefix(raw, `{"request":"/v1/withdraw","nonce":"`))
		assert.Equal(t, "bitcoin", fields["withdraw_type"])
		assert.Equal(t, "exchange", fields["walletselected"])
		assert.Equal(t, "0.01", fields["amount"])
		assert.Equal(t, "1DKwqRhDmVyHJDL4FUYpDmQMYA3Rsxtvur", fields["address"])
		ex.reset()
	})

	t.Run("missing file", func(t *testing.T) {
		c := newTestClient(t, ex)
		c.SetWithdrawConfPath(filepath.Join(t.TempDir(), "absent.conf"))
		_, err := c.Withdraw(context.Background())
		assert.Error(t, err)
		assert.Empty(t, ex.callsAfterBootstrap())
		ex.reset()
	})
}

func TestAPIStatusErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/symbols" {
			w.Write([]byte(`["btcusd"]`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Order price must be positive."}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), "k", "s", WithAPIURL(srv.URL))
	require.NoError(t, err)

	_, err = c.GetBalances(context.Background())
	require.ErrorIs(t, err, request.ErrAPIStatus)
	assert.Contains(t, err.Error(), "Order price must be positive.")
	assert.Equal(t, http.StatusBadRequest, c.LastHTTPStatus())
}
