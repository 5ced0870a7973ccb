// Package domain defines the core domain models for ScuttleKit.
package domain

import (
	"encoding/json"
	"strings"
)

// Access is the level of access an app holds on a message type.
type Access string

const (
	// AccessRead allows reading messages of a type.
	AccessRead Access = "read"
	// AccessWrite allows reading and writing messages of a type.
	AccessWrite Access = "write"
)

// Valid reports whether a is a known access level.
func (a Access) Valid() bool {
	return a == AccessRead || a == AccessWrite
}

// Satisfies reports whether holding a is enough for required.
// Write implies read.
func (a Access) Satisfies(required Access) bool {
	switch required {
	case AccessRead:
		return a == AccessRead || a == AccessWrite
	case AccessWrite:
		return a == AccessWrite
	default:
		return false
	}
}

// AppSettings declares which message types the holder of a token may read or write.
type AppSettings struct {
	Name       string            `json:"name"`
	Identifier string            `json:"identifier"`
	Version    string            `json:"version"`
	Types      map[string]Access `json:"types"`
}

// Grants reports whether the settings allow access at the given level on messageType.
func (s AppSettings) Grants(messageType string, required Access) bool {
	held, ok := s.Types[messageType]
	if !ok {
		return false
	}
	return held.Satisfies(required)
}

// GrantsAny reports whether at least one message type is held at the given level.
func (s AppSettings) GrantsAny(required Access) bool {
	for _, held := range s.Types {
		if held.Satisfies(required) {
			return true
		}
	}
	return false
}

// TypesWith returns the message types held at the given level or above.
func (s AppSettings) TypesWith(required Access) []string {
	var types []string
	for t, held := range s.Types {
		if held.Satisfies(required) {
			types = append(types, t)
		}
	}
	return types
}

// Clone returns a deep copy of the settings.
func (s AppSettings) Clone() AppSettings {
	clone := s
	if s.Types != nil {
		clone.Types = make(map[string]Access, len(s.Types))
		for k, v := range s.Types {
			clone.Types[k] = v
		}
	}
	return clone
}

// Equal reports whether two settings are identical.
func (s AppSettings) Equal(other AppSettings) bool {
	if s.Name != other.Name || s.Identifier != other.Identifier || s.Version != other.Version {
		return false
	}
	if len(s.Types) != len(other.Types) {
		return false
	}
	for k, v := range s.Types {
		if ov, ok := other.Types[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Token binds an opaque credential to the settings granted at registration.
//
// Tokens are never mutated; they are only added or revoked.
type Token struct {
	Token    string      `json:"token"`
	Settings AppSettings `json:"settings"`
}

// tokenRecord mirrors Token with pointer fields so missing keys are detectable.
type tokenRecord struct {
	Token    *string      `json:"token"`
	Settings *AppSettings `json:"settings"`
}

// UnmarshalJSON rejects records missing "token" or "settings" and access
// levels other than read/write.
func (t *Token) UnmarshalJSON(data []byte) error {
	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.Token == nil || strings.TrimSpace(*rec.Token) == "" {
		return ErrStoreCorrupt.WithDetails("record missing token")
	}
	if rec.Settings == nil {
		return ErrStoreCorrupt.WithDetails("record missing settings")
	}
	for msgType, access := range rec.Settings.Types {
		if !access.Valid() {
			return ErrStoreCorrupt.WithDetails("invalid access " + string(access) + " for type " + msgType)
		}
	}
	t.Token = *rec.Token
	t.Settings = *rec.Settings
	return nil
}

// Clone returns a deep copy of the token.
func (t Token) Clone() Token {
	return Token{Token: t.Token, Settings: t.Settings.Clone()}
}

// CloneTokens returns a deep copy of a token sequence.
func CloneTokens(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		out[i] = t.Clone()
	}
	return out
}
