// Package token provides credential generation and fingerprinting for ScuttleKit.
//
// Token Format:
//
//   - Prefix: sktk_ (5 characters)
//   - Body: 43 characters of Base64 RawURL encoded random bytes
//   - Total: 48 characters
//
// Tokens are stored verbatim in tokens.json because the node operator owns
// that file. Logs only ever carry a Fingerprint.
package token
