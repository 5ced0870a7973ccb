package service

import (
	"strings"
	"sync/atomic"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
)

// Requirement is what a token must grant before a service is dispatched.
//
// With MessageTypes empty the token must hold Access on at least one
// message type. Otherwise every listed type must be held at Access or
// above. A zero Access only requires a known token.
type Requirement struct {
	Access       domain.Access
	MessageTypes []string
}

// SatisfiedBy reports whether settings meet the requirement.
func (r Requirement) SatisfiedBy(s domain.AppSettings) bool {
	if r.Access == "" {
		return true
	}
	if len(r.MessageTypes) == 0 {
		return s.GrantsAny(r.Access)
	}
	for _, t := range r.MessageTypes {
		if !s.Grants(t, r.Access) {
			return false
		}
	}
	return true
}

func (r Requirement) String() string {
	if r.Access == "" {
		return "any token"
	}
	if len(r.MessageTypes) == 0 {
		return string(r.Access) + " on any type"
	}
	return string(r.Access) + " on " + strings.Join(r.MessageTypes, ",")
}

// snapshot is never modified after it is published.
type snapshot struct {
	byToken map[string]domain.AppSettings
	tokens  []domain.Token
}

func newSnapshot(tokens []domain.Token) *snapshot {
	s := &snapshot{
		byToken: make(map[string]domain.AppSettings, len(tokens)),
		tokens:  domain.CloneTokens(tokens),
	}
	for _, t := range s.tokens {
		s.byToken[t.Token] = t.Settings
	}
	return s
}

// Validator answers token questions from an immutable in-memory snapshot.
//
// Readers never lock. Refresh builds a new snapshot and swaps it in, so a
// reader sees either the old or the new token set, never a mix.
// The Validator never writes the store.
type Validator struct {
	current atomic.Pointer[snapshot]
	metrics Metrics
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorMetrics sets the metrics sink.
func WithValidatorMetrics(m Metrics) ValidatorOption {
	return func(v *Validator) {
		if m != nil {
			v.metrics = m
		}
	}
}

// NewValidator creates a Validator over tokens.
func NewValidator(tokens []domain.Token, opts ...ValidatorOption) *Validator {
	v := &Validator{metrics: noopMetrics{}}
	for _, opt := range opts {
		opt(v)
	}
	v.Refresh(tokens)
	return v
}

// Refresh replaces the snapshot with tokens.
func (v *Validator) Refresh(tokens []domain.Token) {
	s := newSnapshot(tokens)
	v.current.Store(s)
	v.metrics.SetTokens(len(s.tokens))
}

// Validate reports whether token is present verbatim in the snapshot.
func (v *Validator) Validate(token string) bool {
	_, ok := v.current.Load().byToken[token]
	if ok {
		v.metrics.RecordValidation("valid")
	} else {
		v.metrics.RecordValidation("invalid")
	}
	return ok
}

// AppSettings returns the settings bound to token.
func (v *Validator) AppSettings(token string) (domain.AppSettings, error) {
	s, ok := v.current.Load().byToken[token]
	if !ok {
		return domain.AppSettings{}, domain.ErrTokenNotFound
	}
	return s.Clone(), nil
}

// Authorize checks that token is known and meets req.
func (v *Validator) Authorize(token string, req Requirement) (domain.AppSettings, error) {
	if token == "" {
		v.metrics.RecordValidation("missing")
		return domain.AppSettings{}, domain.ErrUnauthorized.WithDetails("no token presented")
	}

	s, ok := v.current.Load().byToken[token]
	if !ok {
		v.metrics.RecordValidation("invalid")
		return domain.AppSettings{}, domain.ErrUnauthorized.WithDetails("unknown token")
	}
	if !req.SatisfiedBy(s) {
		v.metrics.RecordValidation("forbidden")
		return domain.AppSettings{}, domain.ErrUnauthorized.WithDetails("token does not grant " + req.String())
	}

	v.metrics.RecordValidation("valid")
	return s.Clone(), nil
}

// Len returns the number of tokens in the snapshot.
func (v *Validator) Len() int {
	return len(v.current.Load().tokens)
}

// Tokens returns a copy of the snapshot in store order.
func (v *Validator) Tokens() []domain.Token {
	return domain.CloneTokens(v.current.Load().tokens)
}
