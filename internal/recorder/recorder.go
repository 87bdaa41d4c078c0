package recorder

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DefaultBaseDir is where recordings live when Config.BaseDir is empty.
const DefaultBaseDir = "testdata/recordings"

// Config controls where transactions are stored.
type Config struct {
	BaseDir string // Base directory for storing recordings (default: testdata/recordings)
}

// Store hands out transactions below a recordings directory.
type Store struct {
	config Config
}

// NewStore creates a new store instance
func NewStore(config Config) *Store {
	if config.BaseDir == "" {
		config.BaseDir = DefaultBaseDir
	}
	return &Store{
		config: config,
	}
}

// BaseDir returns the recordings directory.
func (s *Store) BaseDir() string {
	return s.config.BaseDir
}

// Open returns a fresh transaction with its cursor at 1.
func (s *Store) Open(name string) (*Transaction, error) {
	return NewTransaction(s.config.BaseDir, name)
}

// Has reports whether a transaction has at least one recorded step.
func (s *Store) Has(name string) bool {
	tx, err := s.Open(name)
	if err != nil {
		return false
	}
	return tx.HasStep(1)
}

// List returns the names of all transactions below the recordings directory,
// i.e. every directory that holds a 1_request.json fixture.
func (s *Store) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.config.BaseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, statErr := os.Stat(filepath.Join(path, "1_request.json")); statErr != nil {
			return nil
		}
		rel, err := filepath.Rel(s.config.BaseDir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Files returns the base names of every regular file in a transaction
// directory, fixtures or not.
func (s *Store) Files(name string) ([]string, error) {
	tx, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	dir, err := tx.FilePath(false)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction directory: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

type contextKey string

// TransactionContextKey is used to pass a transaction name through context
const TransactionContextKey contextKey = "playback_transaction"

// WithTransactionName stores a transaction name in ctx.
func WithTransactionName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, TransactionContextKey, name)
}

// TransactionNameFromContext extracts a transaction name from ctx.
func TransactionNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(TransactionContextKey).(string)
	return name, ok && name != ""
}
