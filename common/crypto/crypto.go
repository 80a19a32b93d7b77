package crypto

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
)

// HexEncodeToString takes in a byte array and returns its lowercase
// hexadecimal string representation
func HexEncodeToString(input []byte) string {
	return hex.EncodeToString(input)
}

// Base64Encode takes in a byte array then returns an encoded base64 string.
// The encoder is unbounded; payloads of any size encode without truncation.
func Base64Encode(input []byte) string {
	return base64.StdEncoding.EncodeToString(input)
}

// Base64Decode takes in a Base64 string and returns a byte array and an error
func Base64Decode(input string) ([]byte, error) {
	result, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetHMACSHA384 returns a keyed-hash message authentication code using
// SHA-384, the digest Bitfinex v1 signs requests with
func GetHMACSHA384(input, key []byte) []byte {
	h := hmac.New(sha512.New384, key)
	h.Write(input)
	return h.Sum(nil)
}
