// Package auth stands in for the exchange's header-signing scheme. Signing
// itself is an external collaborator of this system — only the interface
// below is specified; concrete signers are thin adapters around it.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// Signer produces the headers an exchange requires on a private REST call.
type Signer interface {
	Sign(method, path, body string) (map[string]string, error)
}

// NullSigner adds no headers. Useful against a sandbox/mock exchange where
// requests aren't authenticated.
type NullSigner struct{}

func (NullSigner) Sign(method, path, body string) (map[string]string, error) {
	return map[string]string{}, nil
}

// EnvSigner signs requests with a pre-shared HMAC-SHA256 key over
// "timestamp+method+path+body", base64-encoded, the same shape as a typical
// exchange's private-endpoint signature scheme.
type EnvSigner struct {
	APIKey     string
	Secret     string
	Passphrase string
}

func (s EnvSigner) Sign(method, path, body string) (map[string]string, error) {
	if s.Secret == "" {
		return nil, fmt.Errorf("signer: no secret configured")
	}
	key, err := base64.StdEncoding.DecodeString(s.Secret)
	if err != nil {
		key = []byte(s.Secret)
	}
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(ts + method + path + body))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"CB-ACCESS-KEY":        s.APIKey,
		"CB-ACCESS-SIGN":       sig,
		"CB-ACCESS-TIMESTAMP":  ts,
		"CB-ACCESS-PASSPHRASE": s.Passphrase,
	}, nil
}
