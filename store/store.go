// Package store implements the embedded, multi-chain wallet state store:
// transactions, address book, balances, allowances, a generic cache and an
// xpub-position counter, all built over a single ordered KV engine handle.
package store

import (
	"context"
	"fmt"

	"github.com/emerald-wallet/state/internal/kv"
	"github.com/emerald-wallet/state/internal/storeconfig"
	"github.com/emerald-wallet/state/pkg/logging"
)

// Store is the shared handle every domain operation runs against. It holds
// one kv.Engine reference; no domain owns engine state exclusively, the
// same way the teacher's wallet/swap/rpc packages all share one
// *storage.Storage.
type Store struct {
	engine kv.Engine
	log    *logging.Logger
}

// Option configures Open.
type Option func(*Store)

// WithLogger injects a logger; nil-safe, defaults to logging.Default().
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens (creating if absent) a store at path backed by goleveldb, and
// runs pending migrations. Migration failures are logged and never
// prevent opening, per the spec's versioning design.
func Open(path string, opts ...Option) (*Store, error) {
	engine, err := kv.OpenLevelDB(path)
	if err != nil {
		return nil, fmt.Errorf("store: opening engine at %s: %w", path, err)
	}
	return OpenWithEngine(engine, opts...)
}

// OpenWithEngine wraps an already-open engine, useful for tests that pass
// an in-memory engine (kv.OpenMemory) without going through Open's path
// handling.
func OpenWithEngine(engine kv.Engine, opts ...Option) (*Store, error) {
	s := &Store{engine: engine, log: logging.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.runMigrations(context.Background()); err != nil {
		s.log.Warn("migration failed, continuing to open", "error", err)
	}

	return s, nil
}

// OpenDefault opens the store at the platform default path.
func OpenDefault(opts ...Option) (*Store, error) {
	path, err := storeconfig.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("store: resolving default path: %w", err)
	}
	return Open(path, opts...)
}

// Close releases the underlying engine handle.
func (s *Store) Close() error {
	return s.engine.Close()
}
