package tokenstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
)

const (
	// DirName is the directory created under the node data directory.
	DirName = "scuttlekit"

	// FileName is the token store document inside DirName.
	FileName = "tokens.json"
)

// DirPath returns <dataDir>/scuttlekit.
func DirPath(dataDir string) string {
	return filepath.Join(dataDir, DirName)
}

// FilePath returns <dataDir>/scuttlekit/tokens.json.
func FilePath(dataDir string) string {
	return filepath.Join(DirPath(dataDir), FileName)
}

// fileStoreConfig holds configuration for the FileStore.
type fileStoreConfig struct {
	filePerm os.FileMode
}

func defaultFileStoreConfig() fileStoreConfig {
	return fileStoreConfig{
		filePerm: 0o600,
	}
}

// Option configures a FileStore instance.
type Option func(*fileStoreConfig)

// WithFilePermissions sets the permissions of tokens.json.
// Default is 0o600 (owner only).
func WithFilePermissions(perm os.FileMode) Option {
	return func(c *fileStoreConfig) {
		c.filePerm = perm
	}
}

// FileStore provides file-based persistence for app tokens.
//
// Mutations (AddToken, RemoveToken) are serialized by mu; each one re-reads
// the file so edits made by other processes (the CLI) are not lost.
type FileStore struct {
	path   string
	config fileStoreConfig
	mu     sync.Mutex
}

// New creates a FileStore for the token file under dataDir.
// It does not touch the filesystem; see bootstrap.EnsureInitialized.
func New(dataDir string, opts ...Option) *FileStore {
	cfg := defaultFileStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FileStore{
		path:   FilePath(dataDir),
		config: cfg,
	}
}

// Path returns the path of tokens.json.
func (s *FileStore) Path() string {
	return s.path
}

// Dir returns the directory holding tokens.json.
func (s *FileStore) Dir() string {
	return filepath.Dir(s.path)
}

// Load reads the persisted token sequence.
//
// Returns domain.ErrStoreNotInitialized if the file does not exist and
// domain.ErrStoreCorrupt if it is not a well-formed token sequence.
func (s *FileStore) Load() ([]domain.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrStoreNotInitialized.WithDetails(s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("tokenstore: read %s: %w", s.path, err)
	}
	return Decode(data)
}

// Decode parses a tokens.json document.
func Decode(data []byte) ([]domain.Token, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, domain.ErrStoreCorrupt.WithDetails("document is not a JSON array")
	}

	var tokens []domain.Token
	if err := json.Unmarshal(trimmed, &tokens); err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, domain.ErrStoreCorrupt.WithCause(err)
	}

	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, dup := seen[t.Token]; dup {
			return nil, domain.ErrStoreCorrupt.WithDetails("token listed twice")
		}
		seen[t.Token] = struct{}{}
	}

	if tokens == nil {
		tokens = []domain.Token{}
	}
	return tokens, nil
}

// Save atomically replaces the persisted token sequence.
func (s *FileStore) Save(tokens []domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(tokens)
}

// AddToken appends a token and persists the result.
//
// Returns domain.ErrDuplicateToken, leaving the store unchanged, if the token
// is already present. On success it returns the full new sequence.
func (s *FileStore) AddToken(token string, settings domain.AppSettings) ([]domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.Load()
	if err != nil {
		return nil, err
	}

	for _, t := range tokens {
		if t.Token == token {
			return nil, domain.ErrDuplicateToken
		}
	}

	tokens = append(tokens, domain.Token{Token: token, Settings: settings.Clone()})
	if err := s.save(tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// RemoveToken revokes a token and persists the result.
//
// Returns domain.ErrTokenNotFound if the token is not present.
func (s *FileStore) RemoveToken(token string) ([]domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.Load()
	if err != nil {
		return nil, err
	}

	kept := tokens[:0]
	found := false
	for _, t := range tokens {
		if t.Token == token {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return nil, domain.ErrTokenNotFound
	}

	if err := s.save(kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// save writes tokens to a temp file in the same directory, syncs it, and
// renames it over the store. Caller must hold mu.
func (s *FileStore) save(tokens []domain.Token) error {
	if tokens == nil {
		tokens = []domain.Token{}
	}

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenstore: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("tokenstore: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: write: %w", err)
	}
	if err := tmp.Chmod(s.config.filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: close: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("tokenstore: rename: %w", err)
	}

	return syncDir(dir)
}

// syncDir flushes the directory entry so the rename survives a crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("tokenstore: open dir: %w", err)
	}
	defer d.Close()
	// Some platforms and filesystems do not support fsync on directories.
	_ = d.Sync()
	return nil
}
