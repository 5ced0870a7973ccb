package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
	"github.com/yndnr/scuttlekit-go/pkg/token"
)

// maxGenerateAttempts bounds retries when a freshly generated token
// collides with an existing one.
const maxGenerateAttempts = 3

// TokenRepository defines the storage interface for token persistence.
// Mutations return the full token sequence after the change.
type TokenRepository interface {
	Load() ([]domain.Token, error)
	AddToken(token string, settings domain.AppSettings) ([]domain.Token, error)
	RemoveToken(token string) ([]domain.Token, error)
}

// RegistrarConfig holds configuration for Registrar.
type RegistrarConfig struct {
	// Timeout bounds Register, Revoke and Reload (default: 5s).
	Timeout time.Duration

	// Logger defaults to logger.Default().
	Logger logger.Logger

	// Metrics defaults to a no-op sink.
	Metrics Metrics
}

// DefaultRegistrarConfig returns default configuration.
func DefaultRegistrarConfig() *RegistrarConfig {
	return &RegistrarConfig{
		Timeout: 5 * time.Second,
	}
}

// Registrar issues and revokes app tokens.
//
// Every mutation writes the store first and then refreshes the Validator
// while still holding the registrar lock, so the snapshot always matches
// the latest write. A token is usable as soon as Register returns.
type Registrar struct {
	repo      TokenRepository
	validator *Validator
	timeout   time.Duration
	log       logger.Logger
	metrics   Metrics

	mu sync.Mutex
}

// NewRegistrar creates a new Registrar.
func NewRegistrar(repo TokenRepository, validator *Validator, config *RegistrarConfig) *Registrar {
	if config == nil {
		config = DefaultRegistrarConfig()
	}

	r := &Registrar{
		repo:      repo,
		validator: validator,
		timeout:   config.Timeout,
		log:       config.Logger,
		metrics:   config.Metrics,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultRegistrarConfig().Timeout
	}
	if r.log == nil {
		r.log = logger.Default()
	}
	if r.metrics == nil {
		r.metrics = noopMetrics{}
	}
	return r
}

// RegisterResponse is returned to the app after a successful registration.
// The token is only ever handed out here.
type RegisterResponse struct {
	Token    string             `json:"token"`
	Settings domain.AppSettings `json:"settings"`
}

// Register validates params, issues a new token bound to the derived
// settings, persists it and publishes it to the Validator.
func (r *Registrar) Register(ctx context.Context, params *domain.RegistrationParams) (*RegisterResponse, error) {
	if params == nil {
		r.metrics.RecordRegistration("invalid")
		return nil, domain.ErrInvalidRegistration.WithDetails("missing registration parameters")
	}
	if err := params.Validate(); err != nil {
		r.metrics.RecordRegistration("invalid")
		return nil, err
	}
	settings := params.Settings()

	resp, err := withTimeout(ctx, r.timeout, func() (*RegisterResponse, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.register(settings)
	})
	if err != nil {
		r.metrics.RecordRegistration(outcome(err))
		r.log.Warn("app registration failed", "app", settings.Identifier, "error", err)
		return nil, err
	}

	r.metrics.RecordRegistration("ok")
	r.log.Info("app registered",
		"app", settings.Identifier,
		"name", settings.Name,
		"fingerprint", token.Fingerprint(resp.Token),
		"types", len(settings.Types),
	)
	return resp, nil
}

func (r *Registrar) register(settings domain.AppSettings) (*RegisterResponse, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		tok, err := token.Generate()
		if err != nil {
			return nil, domain.ErrInternal.WithDetails("generate token").WithCause(err)
		}

		tokens, err := r.repo.AddToken(tok, settings)
		if errors.Is(err, domain.ErrDuplicateToken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		r.validator.Refresh(tokens)
		return &RegisterResponse{Token: tok, Settings: settings.Clone()}, nil
	}
	return nil, domain.ErrDuplicateToken.WithDetails("could not generate a unique token")
}

// Revoke removes token from the store and the Validator.
func (r *Registrar) Revoke(ctx context.Context, tok string) error {
	_, err := withTimeout(ctx, r.timeout, func() (struct{}, error) {
		r.mu.Lock()
		defer r.mu.Unlock()

		tokens, err := r.repo.RemoveToken(tok)
		if err != nil {
			return struct{}{}, err
		}
		r.validator.Refresh(tokens)
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	r.log.Info("app token revoked", "fingerprint", token.Fingerprint(tok))
	return nil
}

// Reload re-reads the store and refreshes the Validator. It is used when
// the file was changed by another process.
func (r *Registrar) Reload(ctx context.Context) error {
	n, err := withTimeout(ctx, r.timeout, func() (int, error) {
		r.mu.Lock()
		defer r.mu.Unlock()

		tokens, err := r.repo.Load()
		if err != nil {
			return 0, err
		}
		r.validator.Refresh(tokens)
		return len(tokens), nil
	})
	if err != nil {
		r.log.Error("token store reload failed, keeping previous snapshot", "error", err)
		return err
	}

	r.log.Info("token store reloaded", "tokens", n)
	return nil
}

// withTimeout runs fn and waits for it at most timeout. On timeout fn keeps
// running to completion so the store and snapshot stay consistent; only
// the caller stops waiting.
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, domain.ErrTimeout.WithCause(ctx.Err())
		}
		return zero, domain.ErrInternal.WithDetails("canceled").WithCause(ctx.Err())
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateToken):
		return "duplicate"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrInvalidRegistration):
		return "invalid"
	default:
		return "error"
	}
}
