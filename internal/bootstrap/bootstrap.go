package bootstrap

import (
	"errors"
	"fmt"
	"os"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/storage/tokenstore"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
)

// dirPerm is the permission of the scuttlekit directory.
const dirPerm os.FileMode = 0o750

// Result is what EnsureInitialized hands back to the host.
type Result struct {
	// Store is the token store handle.
	Store *tokenstore.FileStore

	// Tokens is the token sequence loaded (or written) during initialization.
	Tokens []domain.Token

	// Created is true when this call created or repaired the store.
	Created bool
}

type options struct {
	log       logger.Logger
	storeOpts []tokenstore.Option
}

// Option configures EnsureInitialized.
type Option func(*options)

// WithLogger sets the logger used to report first-run and repair actions.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithStoreOptions passes options through to tokenstore.New.
func WithStoreOptions(opts ...tokenstore.Option) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// EnsureInitialized ensures dataDir holds a valid token store and returns it.
//
// On first run it creates <dataDir>/scuttlekit and writes an empty token
// sequence to tokens.json. On later runs it loads the existing file. If the
// directory exists but tokens.json is missing or zero-length, the empty
// sequence is written again.
//
// Errors are domain.ErrBootstrap; when the file exists but is not a valid
// token sequence the cause is domain.ErrStoreCorrupt.
func EnsureInitialized(dataDir string, opts ...Option) (*Result, error) {
	o := options{log: logger.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if dataDir == "" {
		return nil, domain.ErrBootstrap.WithDetails("data directory is required")
	}

	store := tokenstore.New(dataDir, o.storeOpts...)
	dir := store.Dir()

	firstRun, err := isFirstRun(dir)
	if err != nil {
		return nil, domain.ErrBootstrap.WithDetails("stat " + dir).WithCause(err)
	}

	if firstRun {
		o.log.Info("first run, creating token store", "dir", dir)
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, domain.ErrBootstrap.WithDetails("create " + dir).WithCause(err)
		}
		return writeEmpty(store)
	}

	needsRepair, err := isIncomplete(store.Path())
	if err != nil {
		return nil, domain.ErrBootstrap.WithDetails("stat " + store.Path()).WithCause(err)
	}
	if needsRepair {
		o.log.Warn("token store incomplete, rewriting empty store", "path", store.Path())
		return writeEmpty(store)
	}

	tokens, err := store.Load()
	if err != nil {
		return nil, domain.ErrBootstrap.WithDetails("load " + store.Path()).WithCause(err)
	}

	o.log.Info("token store loaded", "path", store.Path(), "tokens", len(tokens))
	return &Result{Store: store, Tokens: tokens}, nil
}

func writeEmpty(store *tokenstore.FileStore) (*Result, error) {
	if err := store.Save([]domain.Token{}); err != nil {
		return nil, domain.ErrBootstrap.WithDetails("write " + store.Path()).WithCause(err)
	}
	return &Result{Store: store, Tokens: []domain.Token{}, Created: true}, nil
}

// isFirstRun reports whether the scuttlekit directory is absent.
func isFirstRun(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s exists and is not a directory", dir)
	}
	return false, nil
}

// isIncomplete reports whether tokens.json is missing or empty.
func isIncomplete(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return info.Size() == 0, nil
}
