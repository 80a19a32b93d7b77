// Package bitfinex implements a client for the Bitfinex v1 REST trading
// API. Endpoint parameters are validated against the exchange's accepted
// vocabularies before any network or signing work happens, authenticated
// calls are signed with the nonce based X-BFX header scheme, and response
// bodies are returned to the caller unmodified.
package bitfinex

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmquant/bfx-go/auth"
	"github.com/mmquant/bfx-go/params"
	"github.com/mmquant/bfx-go/request"
	"github.com/mmquant/bfx-go/schema"
	"github.com/mmquant/bfx-go/withdrawconf"
)

const (
	defaultAPIURL       = "https://api.bitfinex.com"
	defaultWithdrawConf = "doc/withdraw.conf"
	apiVersion          = "/v1"

	// Public endpoints
	bitfinexTicker         = "pubticker/"
	bitfinexStats          = "stats/"
	bitfinexLendbook       = "lendbook/"
	bitfinexOrderbook      = "book/"
	bitfinexTrades         = "trades/"
	bitfinexLends          = "lends/"
	bitfinexSymbols        = "symbols"
	bitfinexSymbolsDetails = "symbols_details"

	// Authenticated endpoints
	bitfinexAccountInfo        = "account_infos"
	bitfinexAccountFees        = "account_fees"
	bitfinexSummary            = "summary"
	bitfinexDeposit            = "deposit/new"
	bitfinexKeyPermissions     = "key_info"
	bitfinexMarginInfo         = "margin_infos"
	bitfinexBalances           = "balances"
	bitfinexTransfer           = "transfer"
	bitfinexWithdraw           = "withdraw"
	bitfinexOrderNew           = "order/new"
	bitfinexOrderNewMulti      = "order/new/multi"
	bitfinexOrderCancel        = "order/cancel"
	bitfinexOrderCancelMulti   = "order/cancel/multi"
	bitfinexOrderCancelAll     = "order/cancel/all"
	bitfinexOrderCancelReplace = "order/cancel/replace"
	bitfinexOrderStatus        = "order/status"
	bitfinexOrders             = "orders"
	bitfinexOrdersHist         = "orders/hist"
	bitfinexPositions          = "positions"
	bitfinexPositionClaim      = "position/claim"
	bitfinexPositionClose      = "position/close"
	bitfinexHistory            = "history"
	bitfinexHistoryMovements   = "history/movements"
	bitfinexTradeHistory       = "mytrades"
	bitfinexOfferNew           = "offer/new"
	bitfinexOfferCancel        = "offer/cancel"
	bitfinexOfferStatus        = "offer/status"
	bitfinexActiveCredits      = "credits"
	bitfinexOffers             = "offers"
	bitfinexOffersHist         = "offers/hist"
	bitfinexFundingTrades      = "mytrades_funding"
	bitfinexTakenFunds         = "taken_funds"
	bitfinexUnusedTakenFunds   = "unused_taken_funds"
	bitfinexTotalTakenFunds    = "total_taken_funds"
	bitfinexFundingClose       = "funding/close"
)

// symbolsSchemaRef names the schema the symbols bootstrap response must
// satisfy before its contents reach the whitelist
const symbolsSchemaRef = "definitions.json#/flatJsonSchema"

//go:embed doc/definitions.json
var definitionsJSON []byte

// ErrCredentialsUnset is returned when an authenticated endpoint is called
// on a client constructed without an API key pair
var ErrCredentialsUnset = errors.New("authenticated endpoint requires API credentials")

// Client is one logical session against the exchange. A Client must not be
// shared between goroutines without external synchronisation; nonce issuance
// is the only internally serialised operation.
type Client struct {
	creds      auth.Credentials
	registry   *params.Registry
	requester  *request.Requester
	resolver   schema.Resolver
	httpClient *http.Client
	apiURL     string
	confPath   string
	log        *zap.Logger
}

// Option adjusts client construction
type Option func(*Client)

// WithHTTPClient injects the HTTP transport. A zero timeout on the supplied
// client is replaced with the fixed 30 second default. Options apply in any
// order; the requester is only assembled once all of them have run.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the structured logger for the client and its requester
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithAPIURL overrides the production API base URL
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = strings.TrimSuffix(u, "/") }
}

// WithWithdrawConf sets the path of the withdraw.conf file consumed by
// Withdraw
func WithWithdrawConf(path string) Option {
	return func(c *Client) { c.confPath = path }
}

// WithSchemaResolver overrides the embedded schema document source used to
// validate the symbols bootstrap
func WithSchemaResolver(r schema.Resolver) Option {
	return func(c *Client) { c.resolver = r }
}

// New constructs a client and populates the symbols whitelist from the
// exchange's list-symbols endpoint. The response must validate against the
// flat array-of-strings schema; a malformed response fails construction
// rather than leaving a client with an empty whitelist. Credentials may be
// empty for public-only use.
func New(ctx context.Context, key, secret string, opts ...Option) (*Client, error) {
	c := &Client{
		creds:    auth.Credentials{Key: key, Secret: secret},
		registry: params.NewRegistry(),
		resolver: schema.StaticResolver{"definitions.json": definitionsJSON},
		apiURL:   defaultAPIURL,
		confPath: defaultWithdrawConf,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.requester = request.New("bitfinex", c.httpClient, c.log)

	resp, err := c.GetSymbols(ctx)
	if err != nil {
		return nil, err
	}
	symbols, err := schema.ExtractStringSet([]byte(resp), symbolsSchemaRef, c.resolver)
	if err != nil {
		return nil, err
	}
	c.registry.SetSymbols(symbols)
	c.log.Info("symbol whitelist populated", zap.Int("symbols", len(symbols)))
	return c, nil
}

// SetCredentials replaces the API key pair. Safe between requests only; a
// request in flight keeps the credentials it was signed with.
func (c *Client) SetCredentials(key, secret string) {
	c.creds = auth.Credentials{Key: key, Secret: secret}
}

// HasCredentials reports whether authenticated endpoints can be called
func (c *Client) HasCredentials() bool {
	return c.creds.IsSet()
}

// SetWithdrawConfPath changes the withdraw.conf location used by Withdraw
func (c *Client) SetWithdrawConfPath(path string) {
	c.confPath = path
}

// WithdrawConfPath returns the configured withdraw.conf location
func (c *Client) WithdrawConfPath() string {
	return c.confPath
}

// Registry exposes the parameter whitelists for callers that want to
// pre-check values themselves
func (c *Client) Registry() *params.Registry {
	return c.registry
}

// LastHTTPStatus returns the transport status code of the most recent
// request, kept separately from semantic errors so callers can tell "the
// exchange rejected it" from "it never arrived"
func (c *Client) LastHTTPStatus() int {
	return c.requester.LastStatus()
}

// ------------------------------------------------------------------------
// Public endpoints
// ------------------------------------------------------------------------

// GetTicker returns the high level price overview for a symbol
func (c *Client) GetTicker(ctx context.Context, symbol string) (string, error) {
	if err := c.registry.ValidateSymbol(symbol); err != nil {
		return "", err
	}
	return c.sendGET(ctx, bitfinexTicker+url.PathEscape(symbol), nil)
}

// GetStats returns volume statistics for a symbol
func (c *Client) GetStats(ctx context.Context, symbol string) (string, error) {
	if err := c.registry.ValidateSymbol(symbol); err != nil {
		return "", err
	}
	return c.sendGET(ctx, bitfinexStats+url.PathEscape(symbol), nil)
}

// GetFundingBook returns the full margin funding book for a currency
func (c *Client) GetFundingBook(ctx context.Context, currency string, limitBids, limitAsks int) (string, error) {
	if err := c.registry.ValidateCurrency(currency); err != nil {
		return "", err
	}
	v := url.Values{}
	v.Set("limit_bids", strconv.Itoa(limitBids))
	v.Set("limit_asks", strconv.Itoa(limitAsks))
	return c.sendGET(ctx, bitfinexLendbook+url.PathEscape(currency), v)
}

// GetOrderBook returns bids and asks for a symbol
func (c *Client) GetOrderBook(ctx context.Context, symbol string, limitBids, limitAsks int, group bool) (string, error) {
	if err := c.registry.ValidateSymbol(symbol); err != nil {
		return "", err
	}
	v := url.Values{}
	v.Set("limit_bids", strconv.Itoa(limitBids))
	v.Set("limit_asks", strconv.Itoa(limitAsks))
	v.Set("group", boolToIntString(group))
	return c.sendGET(ctx, bitfinexOrderbook+url.PathEscape(symbol), v)
}

// GetTrades returns the most recent trades for a symbol since a unix
// timestamp
func (c *Client) GetTrades(ctx context.Context, symbol string, since int64, limitTrades int) (string, error) {
	if err := c.registry.ValidateSymbol(symbol); err != nil {
		return "", err
	}
	v := url.Values{}
	v.Set("timestamp", strconv.FormatInt(since, 10))
	v.Set("limit_trades", strconv.Itoa(limitTrades))
	return c.sendGET(ctx, bitfinexTrades+url.PathEscape(symbol), v)
}

// GetLends returns recent funding data for a currency
func (c *Client) GetLends(ctx context.Context, currency string, since int64, limitLends int) (string, error) {
	if err := c.registry.ValidateCurrency(currency); err != nil {
		return "", err
	}
	v := url.Values{}
	v.Set("timestamp", strconv.FormatInt(since, 10))
	v.Set("limit_lends", strconv.Itoa(limitLends))
	return c.sendGET(ctx, bitfinexLends+url.PathEscape(currency), v)
}

// GetSymbols returns the exchange's tradeable symbol list
func (c *Client) GetSymbols(ctx context.Context) (string, error) {
	return c.sendGET(ctx, bitfinexSymbols, nil)
}

// GetSymbolsDetails returns per-symbol precision and margin details
func (c *Client) GetSymbolsDetails(ctx context.Context) (string, error) {
	return c.sendGET(ctx, bitfinexSymbolsDetails, nil)
}

// ------------------------------------------------------------------------
// Authenticated endpoints - account
// ------------------------------------------------------------------------

// GetAccountInfo returns trading fee information for the account
func (c *Client) GetAccountInfo(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexAccountInfo, nil)
}

// GetAccountFees returns the withdrawal fee schedule
func (c *Client) GetAccountFees(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexAccountFees, nil)
}

// GetSummary returns a 30-day trading volume summary
func (c *Client) GetSummary(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexSummary, nil)
}

// NewDeposit requests a deposit address on one of the account wallets.
// renew of 1 forces a previously unused address to be issued.
func (c *Client) NewDeposit(ctx context.Context, method, walletName string, renew int) (string, error) {
	if err := c.registry.ValidateDepositMethod(method); err != nil {
		return "", err
	}
	if err := c.registry.ValidateWalletName(walletName); err != nil {
		return "", err
	}
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexDeposit, func(p *payload) {
		p.add("method", method).
			add("wallet_name", walletName).
			add("renew", renew)
	})
}

// GetKeyPermissions reports what the supplied API key is allowed to do
func (c *Client) GetKeyPermissions(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexKeyPermissions, nil)
}

// GetMarginInfos returns the trading wallet state for margin trading
func (c *Client) GetMarginInfos(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexMarginInfo, nil)
}

// GetBalances returns all wallet balances
func (c *Client) GetBalances(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexBalances, nil)
}

// WalletTransfer moves balance between account wallets
func (c *Client) WalletTransfer(ctx context.Context, amount float64, currency, walletFrom, walletTo string) (string, error) {
	if err := c.registry.ValidateCurrency(currency); err != nil {
		return "", err
	}
	if err := c.registry.ValidateWalletName(walletFrom); err != nil {
		return "", err
	}
	if err := c.registry.ValidateWalletName(walletTo); err != nil {
		return "", err
	}
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexTransfer, func(p *payload) {
		p.add("amount", formatAmount(amount)).
			add("currency", currency).
			add("walletfrom", walletFrom).
			add("walletto", walletTo)
	})
}

// Withdraw requests a withdrawal described by the withdraw.conf file. The
// file is parsed and gated on every call; nothing is cached.
func (c *Client) Withdraw(ctx context.Context) (string, error) {
	f, err := os.Open(c.confPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	conf, err := withdrawconf.Parse(f)
	if err != nil {
		return "", err
	}
	err = conf.Validate(func(v string) bool {
		return c.registry.Contains(params.DepositMethods, v)
	})
	if err != nil {
		return "", err
	}
	frag := conf.Fragment()
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexWithdraw, func(p *payload) {
		p.addFragment(frag)
	})
}

// ------------------------------------------------------------------------
// Authenticated endpoints - orders
// ------------------------------------------------------------------------

// OrderOptions carries the optional flags of NewOrder
type OrderOptions struct {
	Hidden          bool
	PostOnly        bool
	UseAllAvailable bool
	OCO             bool
	BuyPriceOCO     float64
}

// NewOrder submits one order. side is "buy" or "sell"; orderType must be a
// member of the accepted order type list.
func (c *Client) NewOrder(ctx context.Context, symbol string, amount, price float64, side, orderType string, opts *OrderOptions) (string, error) {
	if err := c.registry.ValidateSymbol(symbol); err != nil {
		return "", err
	}
	if err := c.registry.ValidateOrderType(orderType); err != nil {
		return "", err
	}
	if opts == nil {
		opts = new(OrderOptions)
	}
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOrderNew, func(p *payload) {
		p.add("symbol", symbol).
			add("amount", formatAmount(amount)).
			add("price", formatAmount(price)).
			add("side", side).
			add("type", orderType).
			add("is_hidden", opts.Hidden).
			add("is_postonly", opts.PostOnly).
			add("use_all_available", opts.UseAllAvailable).
			add("ocoorder", opts.OCO).
			add("buy_price_oco", formatAmount(opts.BuyPriceOCO))
	})
}

// PlaceOrder is one entry of a NewOrders batch
type PlaceOrder struct {
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount,string"`
	Price  float64 `json:"price,string"`
	Side   string  `json:"side"`
	Type   string  `json:"type"`
}

// NewOrders submits several orders in one request. Every order's symbol and
// type is validated before anything is signed.
func (c *Client) NewOrders(ctx context.Context, orders []PlaceOrder) (string, error) {
	for i := range orders {
		if err := c.registry.ValidateSymbol(orders[i].Symbol); err != nil {
			return "", err
		}
		if err := c.registry.ValidateOrderType(orders[i].Type); err != nil {
			return "", err
		}
	}
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOrderNewMulti, func(p *payload) {
		p.add("payload", orders)
	})
}

// CancelOrder cancels one order by id
func (c *Client) CancelOrder(ctx context.Context, orderID int64) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOrderCancel, func(p *payload) {
		p.add("order_id", orderID)
	})
}

// CancelOrders cancels a batch of orders by id
func (c *Client) CancelOrders(ctx context.Context, orderIDs []int64) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOrderCancelMulti, func(p *payload) {
		p.add("order_ids", orderIDs)
	})
}

// CancelAllOrders cancels every open order on the account
func (c *Client) CancelAllOrders(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOrderCancelAll, nil)
}

// ReplaceOrder atomically cancels an order and submits a replacement
func (c *Client) ReplaceOrder(ctx context.Context, orderID int64, symbol string, amount, price float64, side, orderType string, hidden, useRemaining bool) (string, error) {
	if err := c.registry.ValidateSymbol(symbol); err != nil {
		return "", err
	}
	if err := c.registry.ValidateOrderType(orderType); err != nil {
		return "", err
	}
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOrderCancelReplace, func(p *payload) {
		p.add("order_id", orderID).
			add("symbol", symbol).
			add("amount", formatAmount(amount)).
			add("price", formatAmount(price)).
			add("side", side).
			add("type", orderType).
			add("is_hidden", hidden).
			add("use_all_available", useRemaining)
	})
}

// GetOrderStatus returns the state of one order
func (c *Client) GetOrderStatus(ctx context.Context, orderID int64) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOrderStatus, func(p *payload) {
		p.add("order_id", orderID)
	})
}

// GetActiveOrders returns every live order
func (c *Client) GetActiveOrders(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOrders, nil)
}

// GetOrdersHistory returns the latest closed or cancelled orders
func (c *Client) GetOrdersHistory(ctx context.Context, limit int) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOrdersHist, func(p *payload) {
		p.add("limit", limit)
	})
}

// ------------------------------------------------------------------------
// Authenticated endpoints - positions and history
// ------------------------------------------------------------------------

// GetActivePositions returns all open positions
func (c *Client) GetActivePositions(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexPositions, nil)
}

// ClaimPosition claims an open position
func (c *Client) ClaimPosition(ctx context.Context, positionID int64, amount float64) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexPositionClaim, func(p *payload) {
		p.add("position_id", positionID).
			add("amount", formatAmount(amount))
	})
}

// ClosePosition closes a position by id
func (c *Client) ClosePosition(ctx context.Context, positionID int64) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexPositionClose, func(p *payload) {
		p.add("position_id", positionID)
	})
}

// GetBalanceHistory returns ledger entries for a currency. walletType "all"
// reports across every wallet and is accepted alongside the whitelist.
func (c *Client) GetBalanceHistory(ctx context.Context, currency string, since, until time.Time, limit int, walletType string) (string, error) {
	if err := c.registry.ValidateCurrency(currency); err != nil {
		return "", err
	}
	if walletType != "all" {
		if err := c.registry.ValidateWalletName(walletType); err != nil {
			return "", err
		}
	}
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexHistory, func(p *payload) {
		p.add("currency", currency)
		if !since.IsZero() {
			p.add("since", strconv.FormatInt(since.Unix(), 10))
		}
		if !until.IsZero() {
			p.add("until", strconv.FormatInt(until.Unix(), 10))
		}
		p.add("limit", limit)
		if walletType != "all" {
			p.add("wallet", walletType)
		}
	})
}

// GetWithdrawalHistory returns past deposits and withdrawals for a
// currency. method accepts the deposit method list plus "wire", or "all" to
// not filter.
func (c *Client) GetWithdrawalHistory(ctx context.Context, currency, method string, since, until time.Time, limit int) (string, error) {
	if err := c.registry.ValidateCurrency(currency); err != nil {
		return "", err
	}
	if method != "all" && method != "wire" {
		if err := c.registry.ValidateDepositMethod(method); err != nil {
			return "", err
		}
	}
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexHistoryMovements, func(p *payload) {
		p.add("currency", currency)
		if method != "all" {
			p.add("method", method)
		}
		if !since.IsZero() {
			p.add("since", strconv.FormatInt(since.Unix(), 10))
		}
		if !until.IsZero() {
			p.add("until", strconv.FormatInt(until.Unix(), 10))
		}
		p.add("limit", limit)
	})
}

// GetPastTrades returns executed trades for a symbol
func (c *Client) GetPastTrades(ctx context.Context, symbol string, timestamp, until time.Time, limitTrades int, reverse bool) (string, error) {
	if err := c.registry.ValidateSymbol(symbol); err != nil {
		return "", err
	}
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexTradeHistory, func(p *payload) {
		p.add("symbol", symbol).
			add("timestamp", strconv.FormatInt(timestamp.Unix(), 10))
		if !until.IsZero() {
			p.add("until", strconv.FormatInt(until.Unix(), 10))
		}
		p.add("limit_trades", limitTrades).
			add("reverse", boolToInt(reverse))
	})
}

// ------------------------------------------------------------------------
// Authenticated endpoints - margin funding
// ------------------------------------------------------------------------

// NewOffer submits a margin funding offer. direction is "lend" or "loan".
func (c *Client) NewOffer(ctx context.Context, currency string, amount, rate float64, period int, direction string) (string, error) {
	if err := c.registry.ValidateCurrency(currency); err != nil {
		return "", err
	}
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOfferNew, func(p *payload) {
		p.add("currency", currency).
			add("amount", formatAmount(amount)).
			add("rate", formatAmount(rate)).
			add("period", period).
			add("direction", direction)
	})
}

// CancelOffer cancels a funding offer by id
func (c *Client) CancelOffer(ctx context.Context, offerID int64) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOfferCancel, func(p *payload) {
		p.add("offer_id", offerID)
	})
}

// GetOfferStatus returns the state of one funding offer
func (c *Client) GetOfferStatus(ctx context.Context, offerID int64) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOfferStatus, func(p *payload) {
		p.add("offer_id", offerID)
	})
}

// GetActiveCredits returns funds currently lent out
func (c *Client) GetActiveCredits(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexActiveCredits, nil)
}

// GetOffers returns live funding offers
func (c *Client) GetOffers(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOffers, nil)
}

// GetOffersHistory returns the latest inactive funding offers
func (c *Client) GetOffersHistory(ctx context.Context, limit int) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexOffersHist, func(p *payload) {
		p.add("limit", limit)
	})
}

// GetPastFundingTrades returns settled funding trades for a currency. The
// v1 API takes the currency under the "symbol" key; that inconsistency is
// the exchange's, reproduced on the wire but not in this signature.
func (c *Client) GetPastFundingTrades(ctx context.Context, currency string, until time.Time, limitTrades int) (string, error) {
	if err := c.registry.ValidateCurrency(currency); err != nil {
		return "", err
	}
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexFundingTrades, func(p *payload) {
		p.add("symbol", currency)
		if !until.IsZero() {
			p.add("until", until.Unix())
		}
		p.add("limit_trades", limitTrades)
	})
}

// GetTakenFunds returns active margin funds borrowed
func (c *Client) GetTakenFunds(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexTakenFunds, nil)
}

// GetUnusedTakenFunds returns borrowed funds not currently used
func (c *Client) GetUnusedTakenFunds(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexUnusedTakenFunds, nil)
}

// GetTotalTakenFunds returns the total of active funding in use
func (c *Client) GetTotalTakenFunds(ctx context.Context) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexTotalTakenFunds, nil)
}

// CloseLoan closes a taken fund by swap id
func (c *Client) CloseLoan(ctx context.Context, swapID int64) (string, error) {
	return c.sendAuthenticatedHTTPRequest(ctx, bitfinexFundingClose, func(p *payload) {
		p.add("swap_id", swapID)
	})
}

// ------------------------------------------------------------------------
// Request plumbing
// ------------------------------------------------------------------------

// sendGET performs an unauthenticated request. Query values are properly
// URL-encoded.
func (c *Client) sendGET(ctx context.Context, path string, vals url.Values) (string, error) {
	endpoint := c.apiURL + apiVersion + "/" + path
	if len(vals) > 0 {
		endpoint += "?" + vals.Encode()
	}
	body, err := c.requester.SendPayload(ctx, &request.Item{
		Method: http.MethodGet,
		Path:   endpoint,
	})
	return string(body), err
}

// sendAuthenticatedHTTPRequest builds the canonical payload for path, signs
// it and POSTs the legacy newline body with the three X-BFX headers. fields,
// when non-nil, appends the endpoint specific parameters to the payload.
func (c *Client) sendAuthenticatedHTTPRequest(ctx context.Context, path string, fields func(*payload)) (string, error) {
	if !c.creds.IsSet() {
		return "", ErrCredentialsUnset
	}

	p := newPayload(apiVersion+"/"+path, c.requester.GetNonce())
	if fields != nil {
		fields(p)
	}
	payloadJSON, err := p.bytes()
	if err != nil {
		return "", err
	}

	body, err := c.requester.SendPayload(ctx, &request.Item{
		Method:  http.MethodPost,
		Path:    c.apiURL + apiVersion + "/" + path,
		Headers: auth.NewHeaders(&c.creds, payloadJSON),
		Body:    strings.NewReader("\n"),
	})
	return string(body), err
}

// formatAmount renders monetary values the way the v1 API expects them:
// shortest round-trip decimal string
func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolToIntString(b bool) string {
	return strconv.Itoa(boolToInt(b))
}
