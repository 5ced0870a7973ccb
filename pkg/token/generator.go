// Package token provides credential generation and fingerprinting utilities.
package token

import (
	"crypto/rand"
	"encoding/base64"
)

// Prefix marks ScuttleKit app tokens so log redaction can recognize them.
const Prefix = "sktk_"

// DefaultLength is the default token length in bytes.
const DefaultLength = 32

// Generate generates a new app token: Prefix followed by DefaultLength
// random bytes, Base64 RawURL encoded.
func Generate() (string, error) {
	body, err := GenerateWithLength(DefaultLength)
	if err != nil {
		return "", err
	}
	return Prefix + body, nil
}

// GenerateWithLength generates an unprefixed random string from length bytes.
func GenerateWithLength(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
