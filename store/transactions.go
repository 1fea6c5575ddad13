package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emerald-wallet/state/internal/backref"
	"github.com/emerald-wallet/state/internal/indexing"
	"github.com/emerald-wallet/state/internal/kv"
	"github.com/emerald-wallet/state/internal/model"
	"github.com/emerald-wallet/state/internal/storeerr"
)

const recentPosIfMissingBlock = 999_999

func transactionTimestamp(t model.Transaction) uint64 {
	if t.ConfirmTimestamp > 0 {
		return t.ConfirmTimestamp
	}
	return t.SinceTimestamp
}

func transactionIsRecent(t model.Transaction) bool {
	return t.State == model.TxStateSubmitted || t.State == model.TxStatePrepared
}

func transactionPos(t model.Transaction) uint64 {
	recent := transactionIsRecent(t)
	if recent {
		return indexing.TxidAsPos(t.TxID)
	}
	if t.HasBlock {
		return uint64(t.BlockPos)
	}
	return recentPosIfMissingBlock
}

// transactionIndexKeys computes every index key a transaction reaches: the
// global recency index plus, for every change whose wallet_id parses as a
// UUID, both wallet-scoped index families.
func transactionIndexKeys(t model.Transaction) []string {
	ts := transactionTimestamp(t)
	if ts == 0 {
		return nil
	}
	keys := []string{idxTxAll(ts)}

	recent := transactionIsRecent(t)
	pos := transactionPos(t)

	seenWallets := make(map[string]struct{})
	for _, c := range t.Changes {
		if _, err := uuid.Parse(c.WalletID); err != nil {
			continue
		}
		if _, ok := seenWallets[c.WalletID]; ok {
			continue
		}
		seenWallets[c.WalletID] = struct{}{}
		keys = append(keys, idxTxWallet(c.WalletID, ts))
		keys = append(keys, idxTxWalletRecent(c.WalletID, recent, ts, pos, t.TxID))
	}
	return keys
}

func (s *Store) putTransaction(ctx context.Context, batch kv.Batch, t model.Transaction, writeMs uint64) {
	key := txKey(t.Blockchain, t.TxID)
	indexKeys := transactionIndexKeys(t)
	backref.AddBackrefs(batch, key, writeMs, indexKeys)
	for _, idx := range indexKeys {
		batch.Put([]byte(idx), []byte(key))
	}
	batch.Put([]byte(key), t.Marshal())
}

// Submit writes each transaction, merging it into any existing stored
// record for the same (blockchain, tx_id) per mergeTransaction. All writes
// land in a single atomic batch.
func (s *Store) Submit(ctx context.Context, transactions []model.Transaction) error {
	now := uint64(time.Now().UnixMilli())
	batch := s.engine.NewBatch()

	for _, incoming := range transactions {
		key := txKey(incoming.Blockchain, incoming.TxID)

		final := incoming
		raw, ok, err := s.engine.Get(ctx, []byte(key))
		if err != nil {
			return storeerr.IOf(err, "reading existing transaction")
		}
		if ok {
			stored, err := model.UnmarshalTransaction(raw)
			if err == nil {
				if err := backref.RemoveBackrefs(ctx, s.engine, batch, key); err != nil {
					return storeerr.IOf(err, "removing transaction backrefs")
				}
				final = mergeTransaction(stored, incoming)
			}
		}
		s.putTransaction(ctx, batch, final, now)
	}

	if err := s.engine.Apply(ctx, batch); err != nil {
		return storeerr.IOf(err, "applying transaction batch")
	}
	return nil
}

// GetTx dereferences a single stored transaction.
func (s *Store) GetTx(ctx context.Context, blockchain uint32, txID string) (model.Transaction, error) {
	raw, ok, err := s.engine.Get(ctx, []byte(txKey(blockchain, txID)))
	if err != nil {
		return model.Transaction{}, storeerr.IOf(err, "reading transaction")
	}
	if !ok {
		return model.Transaction{}, storeerr.ErrNotFound
	}
	t, err := model.UnmarshalTransaction(raw)
	if err != nil {
		return model.Transaction{}, storeerr.Corruptedf(err, "transaction %d/%s", blockchain, txID)
	}
	return t, nil
}

// Forget removes a transaction's primary record and every backreferenced
// index entry.
func (s *Store) Forget(ctx context.Context, blockchain uint32, txID string) error {
	key := txKey(blockchain, txID)
	batch := s.engine.NewBatch()
	batch.Delete([]byte(key))
	if err := backref.RemoveBackrefs(ctx, s.engine, batch, key); err != nil {
		return storeerr.IOf(err, "removing transaction backrefs")
	}
	if err := s.engine.Apply(ctx, batch); err != nil {
		return storeerr.IOf(err, "applying transaction removal")
	}
	return nil
}

func (s *Store) transactionQueryBounds(filter TransactionFilter, nowMs uint64) (string, string) {
	if filter.Wallet != "" {
		prefix := idxTxWalletRecentPrefix(filter.Wallet)
		return prefix, prefix + "\xff"
	}
	return idxTxAll(nowMs), idxTxAll(0)
}

// Query runs a single paginated scan, over the wallet-recent index if
// filter.Wallet is set, otherwise over the global recency index, deduped
// and post-filtered identically to the address book.
func (s *Store) Query(ctx context.Context, filter TransactionFilter, page indexing.PageQuery) (indexing.PageResult[model.Transaction], error) {
	nowMs := uint64(time.Now().UnixMilli())
	lowerKey, upperKey := s.transactionQueryBounds(filter, nowMs)

	lower := kv.Inclusive([]byte(lowerKey))
	if page.Cursor != nil && page.Cursor.Offset != "" {
		lower = kv.Exclusive([]byte(page.Cursor.Offset))
	}
	upper := kv.Inclusive([]byte(upperKey))

	it, err := s.engine.RangeIterator(ctx, lower, upper)
	if err != nil {
		return indexing.PageResult[model.Transaction]{}, storeerr.IOf(err, "scanning transaction index")
	}
	defer it.Close()

	scanner := &transactionScanner{ctx: ctx, store: s, it: it, filter: filter, seen: make(map[string]struct{})}
	return indexing.Paginate[model.Transaction](scanner, page.EffectiveLimit())
}

// GetCount iterates the same range as Query without paging, returning the
// number of post-filtered primary records (index scans alone
// over-count because of the post-filter).
func (s *Store) GetCount(ctx context.Context, filter TransactionFilter) (int, error) {
	nowMs := uint64(time.Now().UnixMilli())
	lowerKey, upperKey := s.transactionQueryBounds(filter, nowMs)

	it, err := s.engine.RangeIterator(ctx, kv.Inclusive([]byte(lowerKey)), kv.Inclusive([]byte(upperKey)))
	if err != nil {
		return 0, storeerr.IOf(err, "scanning transaction index")
	}
	defer it.Close()

	seen := make(map[string]struct{})
	count := 0
	for it.Next() {
		e := it.Entry()
		primaryKey := string(e.Value)
		if _, dup := seen[primaryKey]; dup {
			continue
		}
		seen[primaryKey] = struct{}{}

		raw, ok, err := s.engine.Get(ctx, []byte(primaryKey))
		if err != nil {
			return 0, storeerr.IOf(err, "reading transaction")
		}
		if !ok {
			continue
		}
		t, err := model.UnmarshalTransaction(raw)
		if err != nil {
			continue
		}
		if filter.CheckFilter(t) {
			count++
		}
	}
	if err := it.Err(); err != nil {
		return 0, storeerr.IOf(err, "iterating transaction index")
	}
	return count, nil
}

type transactionScanner struct {
	ctx    context.Context
	store  *Store
	it     kv.Iterator
	filter TransactionFilter
	seen   map[string]struct{}

	currentPrimaryKey string
}

func (sc *transactionScanner) Next() (string, bool, error) {
	if !sc.it.Next() {
		return "", false, sc.it.Err()
	}
	e := sc.it.Entry()
	sc.currentPrimaryKey = string(e.Value)
	return string(e.Key), true, nil
}

func (sc *transactionScanner) Resolve() (model.Transaction, bool, error) {
	if _, dup := sc.seen[sc.currentPrimaryKey]; dup {
		return model.Transaction{}, false, nil
	}
	sc.seen[sc.currentPrimaryKey] = struct{}{}

	raw, ok, err := sc.store.engine.Get(sc.ctx, []byte(sc.currentPrimaryKey))
	if err != nil {
		return model.Transaction{}, false, err
	}
	if !ok {
		return model.Transaction{}, false, nil
	}
	t, err := model.UnmarshalTransaction(raw)
	if err != nil {
		return model.Transaction{}, false, nil
	}
	if !sc.filter.CheckFilter(t) {
		return model.Transaction{}, false, nil
	}
	return t, true, nil
}

// GetTxMeta dereferences a transaction's user annotation, if any.
func (s *Store) GetTxMeta(ctx context.Context, blockchain uint32, txID string) (model.TxMeta, bool, error) {
	raw, ok, err := s.engine.Get(ctx, []byte(txMetaKey(blockchain, txID)))
	if err != nil {
		return model.TxMeta{}, false, storeerr.IOf(err, "reading tx meta")
	}
	if !ok {
		return model.TxMeta{}, false, nil
	}
	m, err := model.UnmarshalTxMeta(raw)
	if err != nil {
		return model.TxMeta{}, false, storeerr.Corruptedf(err, "tx meta %d/%s", blockchain, txID)
	}
	return m, true, nil
}

// SetTxMeta writes meta if it is strictly newer than any stored record for
// the same tx id; an equal-or-older timestamp is silently dropped,
// returning the record actually stored.
func (s *Store) SetTxMeta(ctx context.Context, meta model.TxMeta) (model.TxMeta, error) {
	key := []byte(txMetaKey(meta.Blockchain, meta.TxID))

	existing, found, err := s.GetTxMeta(ctx, meta.Blockchain, meta.TxID)
	if err != nil {
		return model.TxMeta{}, err
	}
	if found && meta.Timestamp <= existing.Timestamp {
		return existing, nil
	}
	if err := s.engine.Put(ctx, key, meta.Marshal()); err != nil {
		return model.TxMeta{}, storeerr.IOf(err, "writing tx meta")
	}
	return meta, nil
}

// GetCursor dereferences the remote cursor stored for address. An empty
// stored token is reported as absent.
func (s *Store) GetCursor(ctx context.Context, address string) (model.RemoteCursor, bool, error) {
	raw, ok, err := s.engine.Get(ctx, []byte(addrCursorKey(address)))
	if err != nil {
		return model.RemoteCursor{}, false, storeerr.IOf(err, "reading cursor")
	}
	if !ok {
		return model.RemoteCursor{}, false, nil
	}
	c, err := model.UnmarshalRemoteCursor(raw)
	if err != nil {
		return model.RemoteCursor{}, false, storeerr.Corruptedf(err, "remote cursor %s", address)
	}
	if c.Token == "" {
		return model.RemoteCursor{}, false, nil
	}
	return c, true, nil
}

// SetCursor overwrites the remote cursor stored for address.
func (s *Store) SetCursor(ctx context.Context, address, token string) error {
	c := model.RemoteCursor{Address: address, Token: token, Timestamp: uint64(time.Now().UnixMilli())}
	if err := s.engine.Put(ctx, []byte(addrCursorKey(address)), c.Marshal()); err != nil {
		return storeerr.IOf(err, "writing cursor")
	}
	return nil
}
