// Package auth implements the Bitfinex v1 request signing scheme. The
// parameters of an authenticated call travel in three HTTP headers: the API
// key, the base64 encoded JSON payload and a hex encoded HMAC-SHA384 of that
// base64 string keyed by the account secret.
package auth

import (
	"github.com/mmquant/bfx-go/common/crypto"
)

// Header names expected by the exchange
const (
	HeaderAPIKey    = "X-BFX-APIKEY"
	HeaderPayload   = "X-BFX-PAYLOAD"
	HeaderSignature = "X-BFX-SIGNATURE"
)

// Credentials holds an API key pair. The secret is only ever fed to the HMAC;
// it is never placed in a header, a log line or an error message.
type Credentials struct {
	Key    string
	Secret string
}

// IsSet reports whether both halves of the key pair are present
func (c *Credentials) IsSet() bool {
	return c.Key != "" && c.Secret != ""
}

// Sign derives the payload and signature header values for a JSON payload.
// It is a pure function: identical inputs always produce identical output,
// and an empty payload is signed like any other.
func Sign(payloadJSON []byte, secret string) (payload, signature string) {
	payload = crypto.Base64Encode(payloadJSON)
	mac := crypto.GetHMACSHA384([]byte(payload), []byte(secret))
	signature = crypto.HexEncodeToString(mac)
	return payload, signature
}

// NewHeaders signs payloadJSON and returns the complete authentication
// header set for one request. Headers are computed fresh per call and carry
// no hidden state.
func NewHeaders(c *Credentials, payloadJSON []byte) map[string]string {
	payload, signature := Sign(payloadJSON, c.Secret)
	return map[string]string{
		HeaderAPIKey:    c.Key,
		HeaderPayload:   payload,
		HeaderSignature: signature,
	}
}
