package token

import (
	"crypto/hmac"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Sign computes the embedded signature: hex(HMAC-SHA3-512(secret, payload))
// where payload is the canonical JSON of c without its signature field.
// The result depends only on c's public fields and the secret.
func Sign(secret []byte, c Claims) (string, error) {
	c.Signature = ""
	if c.User.Permissions == nil {
		c.User.Permissions = []string{}
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("canonical payload: %w", err)
	}

	mac := hmac.New(sha3.New512, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifySignature recomputes the embedded signature of c and compares it in
// constant time with the one it carries.
func VerifySignature(secret []byte, c Claims) bool {
	if c.Signature == "" {
		return false
	}
	expected, err := Sign(secret, c)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(c.Signature))
}
