// Package withdrawconf parses the line-oriented withdraw.conf file into the
// JSON parameter fragment the /v1/withdraw endpoint consumes. It is a
// structural gate only: keys must be present for the selected withdrawal
// method, but values are passed through exactly as written, the file's own
// quoting included.
package withdrawconf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Missing-key failures, discriminated per rule
var (
	// ErrRequiredParamsMissing covers the keys every withdrawal needs
	ErrRequiredParamsMissing = errors.New("required withdrawal params missing")
	// ErrWireParamsMissing covers the bank keys a wire withdrawal needs
	ErrWireParamsMissing = errors.New("wire withdrawal params missing")
	// ErrAddressParamsMissing covers the address a crypto withdrawal needs
	ErrAddressParamsMissing = errors.New("withdrawal address param missing")
)

var (
	requiredKeys = []string{"withdraw_type", "walletselected", "amount"}
	wireKeys     = []string{"account_number", "bank_name", "bank_address", "bank_city", "bank_country"}

	// key = value, value optionally double quoted. Only lines opening with an
	// alphabetic character reach this pattern; everything else is a comment,
	// a blank line or noise.
	lineRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)\s*=\s*("?.*"?)\s*$`)
)

// Config is the ordered key/value mapping parsed from one source
type Config struct {
	keys   []string
	values map[string]string
}

// Parse reads a withdraw.conf source. A line is a candidate pair only if its
// first byte is alphabetic; matched pairs with the empty quoted value "" are
// discarded; a key appearing twice keeps its last value but its first
// position.
func Parse(r io.Reader) (*Config, error) {
	c := &Config{values: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || !isAlpha(line[0]) {
			continue
		}
		m := lineRe.FindStringSubmatch(line)
		if m == nil || m[2] == `""` {
			continue
		}
		c.set(m[1], strings.TrimSpace(m[2]))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) set(key, value string) {
	if _, seen := c.values[key]; !seen {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the raw value for key and whether it is present
func (c *Config) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *Config) has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := c.values[k]; !ok {
			return false
		}
	}
	return true
}

// Validate applies the conditional required-key rules. isDepositMethod is
// the whitelist membership predicate for withdraw_type; injecting it keeps
// this package free of the registry dependency.
func (c *Config) Validate(isDepositMethod func(string) bool) error {
	if !c.has(requiredKeys...) {
		return fmt.Errorf("%w: need %s", ErrRequiredParamsMissing,
			strings.Join(requiredKeys, ", "))
	}

	withdrawType := unquote(c.values["withdraw_type"])
	switch {
	case withdrawType == "wire":
		if !c.has(wireKeys...) {
			return fmt.Errorf("%w: need %s", ErrWireParamsMissing,
				strings.Join(wireKeys, ", "))
		}
	case isDepositMethod != nil && isDepositMethod(withdrawType):
		if !c.has("address") {
			return fmt.Errorf("%w: need address", ErrAddressParamsMissing)
		}
	}
	return nil
}

// Fragment serialises every pair as `,"key":value` in insertion order.
// Values are emitted verbatim: the config file's own quoting is trusted, so
// the fragment splices directly into an in-progress JSON object.
func (c *Config) Fragment() string {
	var b strings.Builder
	for _, k := range c.keys {
		b.WriteString(`,"`)
		b.WriteString(k)
		b.WriteString(`":`)
		b.WriteString(c.values[k])
	}
	return b.String()
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func unquote(v string) string {
	return strings.Trim(v, `"`)
}
