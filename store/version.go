package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/emerald-wallet/state/internal/kv"
	"github.com/emerald-wallet/state/internal/storeconfig"
)

const versionKey = "version"

// migration is one domain's migrate hook, run in declared order when the
// persisted version is absent or behind storeconfig.CurrentSchemaVersion.
type migration struct {
	targetVersion int
	name          string
	run           func(ctx context.Context, engine kv.Engine, batch kv.Batch) error
}

// migrations lists every domain's migrate hook in declared order.
// Migration 1 purges balances (format changed, wallets reload anyway) and
// addr_cursor entries (forces re-indexing), per spec §4.J's illustrative
// example.
var migrations = []migration{
	{targetVersion: 1, name: "purge-balances", run: migrateBalances},
	{targetVersion: 1, name: "purge-addr-cursors", run: migrateAddrCursors},
}

func migrateBalances(ctx context.Context, engine kv.Engine, batch kv.Batch) error {
	return purgePrefix(ctx, engine, batch, []byte(balancePrefix))
}

func migrateAddrCursors(ctx context.Context, engine kv.Engine, batch kv.Batch) error {
	return purgePrefix(ctx, engine, batch, []byte(addrCursorPrefix))
}

func purgePrefix(ctx context.Context, engine kv.Engine, batch kv.Batch, prefix []byte) error {
	it, err := engine.PrefixIterator(ctx, prefix)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next() {
		batch.Delete(it.Entry().Key)
	}
	return it.Err()
}

// CurrentVersion reads the persisted schema version, or 0 if absent.
func (s *Store) CurrentVersion(ctx context.Context) (int, error) {
	raw, ok, err := s.engine.Get(ctx, []byte(versionKey))
	if err != nil {
		return 0, fmt.Errorf("store: reading version: %w", err)
	}
	if !ok {
		return 0, nil
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, nil
	}
	return v, nil
}

// runMigrations runs every migration hook whose target version exceeds
// the persisted version, then writes the new version. Failures are
// reported to the caller (Open logs and continues, per the spec: failed
// migrations never prevent opening).
func (s *Store) runMigrations(ctx context.Context) error {
	current, err := s.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if current >= storeconfig.CurrentSchemaVersion {
		return nil
	}

	batch := s.engine.NewBatch()
	for _, m := range migrations {
		if m.targetVersion <= current {
			continue
		}
		if err := m.run(ctx, s.engine, batch); err != nil {
			return fmt.Errorf("store: migration %q: %w", m.name, err)
		}
	}
	batch.Put([]byte(versionKey), []byte(strconv.Itoa(storeconfig.CurrentSchemaVersion)))
	if err := s.engine.Apply(ctx, batch); err != nil {
		return fmt.Errorf("store: applying migrations: %w", err)
	}
	return nil
}
