// Package params holds the whitelists of legal string values for each
// Bitfinex v1 parameter category. Every endpoint validates its parameters
// against these sets before any crypto or network work happens, so a bad
// value never produces a signed request.
package params

import (
	"errors"
	"fmt"
)

// SetName identifies one whitelist
type SetName string

// Known whitelists
const (
	Symbols        SetName = "symbols"
	Currencies     SetName = "currencies"
	DepositMethods SetName = "deposit methods"
	WalletNames    SetName = "wallet names"
	OrderTypes     SetName = "order types"
)

// Discriminated validation failures, one per parameter category. Callers
// match these with errors.Is rather than inspecting error text.
var (
	ErrBadSymbol        = errors.New("symbol not in accepted list")
	ErrBadCurrency      = errors.New("currency not in accepted list")
	ErrBadDepositMethod = errors.New("deposit method not in accepted list")
	ErrBadWalletType    = errors.New("wallet type not in accepted list")
	ErrBadOrderType     = errors.New("order type not in accepted list")
)

// Fixed vocabularies as published for the v1 API. Only the symbols set is
// dynamic; it is populated once from the exchange at client construction.
var (
	acceptedCurrencies = []string{
		"BTG", "DSH", "ETC", "ETP", "EUR", "GBP", "IOT", "JPY",
		"LTC", "NEO", "OMG", "SAN", "USD", "XMR", "XRP", "ZEC",
	}
	acceptedDepositMethods = []string{
		"bcash", "bitcoin", "ethereum", "ethereumc", "litecoin",
		"mastercoin", "monero", "tetheruso", "zcash",
	}
	acceptedWalletNames = []string{
		"trading", "exchange", "deposit",
	}
	acceptedOrderTypes = []string{
		"market", "limit", "stop", "trailing-stop", "fill-or-kill",
		"exchange market", "exchange limit", "exchange stop",
		"exchange trailing-stop", "exchange fill-or-kill",
	}
)

// Registry owns the five whitelists for one client instance. Apart from the
// one-time SetSymbols bootstrap it is read-only after construction and safe
// for concurrent lookups.
type Registry struct {
	sets map[SetName]map[string]struct{}
}

// NewRegistry returns a registry pre-loaded with the fixed enumerations and
// an empty symbols set
func NewRegistry() *Registry {
	r := &Registry{sets: make(map[SetName]map[string]struct{})}
	r.sets[Symbols] = make(map[string]struct{})
	r.sets[Currencies] = toSet(acceptedCurrencies)
	r.sets[DepositMethods] = toSet(acceptedDepositMethods)
	r.sets[WalletNames] = toSet(acceptedWalletNames)
	r.sets[OrderTypes] = toSet(acceptedOrderTypes)
	return r
}

func toSet(vals []string) map[string]struct{} {
	s := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// SetSymbols replaces the dynamic symbols whitelist wholesale. Ownership of
// the supplied set transfers to the registry.
func (r *Registry) SetSymbols(symbols map[string]struct{}) {
	if symbols == nil {
		symbols = make(map[string]struct{})
	}
	r.sets[Symbols] = symbols
}

// Contains reports whether value is a member of the named set. Lookups are
// exact and case-sensitive.
func (r *Registry) Contains(name SetName, value string) bool {
	set, ok := r.sets[name]
	if !ok {
		return false
	}
	_, ok = set[value]
	return ok
}

// Len returns the member count of the named set
func (r *Registry) Len(name SetName) int {
	return len(r.sets[name])
}

// ValidateSymbol returns ErrBadSymbol unless v is a known trading pair
func (r *Registry) ValidateSymbol(v string) error {
	return r.validate(Symbols, v, ErrBadSymbol)
}

// ValidateCurrency returns ErrBadCurrency unless v is a known currency
func (r *Registry) ValidateCurrency(v string) error {
	return r.validate(Currencies, v, ErrBadCurrency)
}

// ValidateDepositMethod returns ErrBadDepositMethod unless v is a known
// deposit method
func (r *Registry) ValidateDepositMethod(v string) error {
	return r.validate(DepositMethods, v, ErrBadDepositMethod)
}

// ValidateWalletName returns ErrBadWalletType unless v is a known wallet
func (r *Registry) ValidateWalletName(v string) error {
	return r.validate(WalletNames, v, ErrBadWalletType)
}

// ValidateOrderType returns ErrBadOrderType unless v is a known order type
func (r *Registry) ValidateOrderType(v string) error {
	return r.validate(OrderTypes, v, ErrBadOrderType)
}

func (r *Registry) validate(name SetName, v string, kind error) error {
	if r.Contains(name, v) {
		return nil
	}
	return fmt.Errorf("%w: %q", kind, v)
}
