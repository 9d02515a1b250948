// Package pkce generates Proof Key for Code Exchange material (RFC 7636).
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// VerifierBytes is the number of random bytes drawn for the code verifier
// and the state token. 96 bytes encode to 128 base64url characters, the
// maximum code-verifier length allowed by RFC 7636.
const VerifierBytes = 96

// Triple holds the values needed for one authorization-code flow.
// The verifier stays server-side until exchange time; only the challenge
// and state travel through the browser.
type Triple struct {
	Verifier  string
	Challenge string
	State     string
}

// Generate produces a fresh verifier/challenge/state triple.
// The challenge is base64url(SHA-256(verifier)) per the S256 method.
// Failure of the system random source is fatal: the process cannot
// safely continue an OAuth flow without entropy.
func Generate() Triple {
	verifier := randomToken(VerifierBytes)
	sum := sha256.Sum256([]byte(verifier))
	return Triple{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(sum[:]),
		State:     randomToken(VerifierBytes),
	}
}

func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
