package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emerald-wallet/state/internal/backref"
	"github.com/emerald-wallet/state/internal/chain"
	"github.com/emerald-wallet/state/internal/indexing"
	"github.com/emerald-wallet/state/internal/kv"
	"github.com/emerald-wallet/state/internal/model"
	"github.com/emerald-wallet/state/internal/storeerr"
	"github.com/emerald-wallet/state/internal/trigram"
	"github.com/emerald-wallet/state/internal/walletaddr"
)

// AddressBookEntry is what Get returns: the stored record plus the
// XPub-aware enrichment of its current usable address.
type AddressBookEntry struct {
	model.BookItem
	CurrentAddress string
}

// addressBookIndexKeys computes every index key a book item should be
// reachable from: the global recency index, the by-address index (if an
// address is set), and one trigram index entry per n-gram extracted from
// the label and address concatenated.
func addressBookIndexKeys(item model.BookItem) []string {
	ts := item.CreateTimestamp
	keys := []string{idxAddrbookAll(ts)}

	label := strings.TrimSpace(item.Label)
	addr := strings.TrimSpace(item.Address.Address)

	text := label
	if addr != "" {
		text += addr
		keys = append(keys, idxAddrbookAddr(strings.ToLower(addr), ts))
	}
	for _, ng := range trigram.Extract(text) {
		keys = append(keys, idxAddrbookTrigram(ng, ts))
	}
	return keys
}

// validateBookItem checks the id/blockchain/address invariants (spec
// §4.E): a valid UUID, a recognised blockchain, and an address that
// decodes per its field type and the blockchain's family.
func validateBookItem(item model.BookItem) error {
	if _, err := uuid.Parse(item.ID); err != nil {
		return storeerr.InvalidID("id")
	}
	if !chain.IsKnownBlockchainID(chain.BlockchainID(item.Blockchain)) {
		return storeerr.InvalidValue("blockchain")
	}

	switch item.Address.FieldType {
	case model.AddressFieldXPub:
		_, derivType, _, err := walletaddr.ParseXPub(item.Address.Address)
		if err != nil || derivType == walletaddr.DerivationUnknown {
			return storeerr.InvalidValue("address")
		}
	default:
		if chain.IsBitcoinFamily(chain.BlockchainID(item.Blockchain)) {
			if !walletaddr.CheckBitcoinAddress(item.Address.Address) {
				return storeerr.InvalidValue("address")
			}
		} else if !walletaddr.CheckEthereumAddress(item.Address.Address) {
			return storeerr.InvalidValue("address")
		}
	}
	return nil
}

// preprocessBookItem fills in id/timestamps and infers the XPub field
// type the way the spec's add() preprocessing step does, before
// validation runs.
func preprocessBookItem(item model.BookItem, now uint64) model.BookItem {
	if _, err := uuid.Parse(item.ID); err != nil {
		item.ID = uuid.NewString()
	}
	if item.CreateTimestamp == 0 {
		item.CreateTimestamp = now
	}
	if item.UpdateTimestamp == 0 {
		item.UpdateTimestamp = now
	}
	if walletaddr.IsXPub(item.Address.Address) {
		item.Address.FieldType = model.AddressFieldXPub
	}
	return item
}

func (s *Store) putBookItem(batch kv.Batch, item model.BookItem, writeMs uint64) {
	key := addrbookKey(item.ID)
	indexKeys := addressBookIndexKeys(item)
	backref.AddBackrefs(batch, key, writeMs, indexKeys)
	for _, idx := range indexKeys {
		batch.Put([]byte(idx), []byte(key))
	}
	batch.Put([]byte(key), item.Marshal())
}

// AddressBookAdd validates and stores each item, generating a fresh id for
// any item whose id doesn't already parse as a UUID, and returns the ids
// in input order.
func (s *Store) AddressBookAdd(ctx context.Context, items []model.BookItem) ([]string, error) {
	now := uint64(time.Now().UnixMilli())

	prepared := make([]model.BookItem, len(items))
	for i, item := range items {
		item = preprocessBookItem(item, now)
		if err := validateBookItem(item); err != nil {
			return nil, err
		}
		prepared[i] = item
	}

	batch := s.engine.NewBatch()
	ids := make([]string, len(prepared))
	for i, item := range prepared {
		s.putBookItem(batch, item, now)
		ids[i] = item.ID
	}
	if err := s.engine.Apply(ctx, batch); err != nil {
		return nil, storeerr.IOf(err, "writing address book batch")
	}
	return ids, nil
}

// AddressBookGet dereferences a single record and enriches it with the
// current usable address: the stored address for PLAIN, or the derived
// address at the xpub's next unused position for XPUB (empty string if
// derivation fails).
func (s *Store) AddressBookGet(ctx context.Context, id string) (AddressBookEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return AddressBookEntry{}, storeerr.InvalidID("id")
	}

	raw, ok, err := s.engine.Get(ctx, []byte(addrbookKey(id)))
	if err != nil {
		return AddressBookEntry{}, storeerr.IOf(err, "reading address book item")
	}
	if !ok {
		return AddressBookEntry{}, storeerr.ErrNotFound
	}
	item, err := model.UnmarshalBookItem(raw)
	if err != nil {
		return AddressBookEntry{}, storeerr.Corruptedf(err, "address book item %s", id)
	}

	current := item.Address.Address
	if item.Address.FieldType == model.AddressFieldXPub {
		current = s.currentXPubAddress(ctx, item.Address.Address)
	}
	return AddressBookEntry{BookItem: item, CurrentAddress: current}, nil
}

func (s *Store) currentXPubAddress(ctx context.Context, xpub string) string {
	pos, err := s.GetNextXPubPosition(ctx, xpub)
	if err != nil {
		return ""
	}
	derived, err := walletaddr.DeriveAddressAtIndex(xpub, pos)
	if err != nil {
		return ""
	}
	return derived
}

// AddressBookUpdate replaces the record at id with update, re-deriving its
// indexes. Unlike Add, it does not backfill create_timestamp if zero; it
// only stamps update_timestamp to now, matching the original's narrower
// update preprocessing.
func (s *Store) AddressBookUpdate(ctx context.Context, id string, item model.BookItem) error {
	if _, err := uuid.Parse(id); err != nil {
		return storeerr.InvalidID("id")
	}
	item.ID = id
	now := uint64(time.Now().UnixMilli())
	item.UpdateTimestamp = now
	if walletaddr.IsXPub(item.Address.Address) {
		item.Address.FieldType = model.AddressFieldXPub
	}
	if err := validateBookItem(item); err != nil {
		return err
	}

	key := addrbookKey(id)
	batch := s.engine.NewBatch()
	batch.Delete([]byte(key))
	if err := backref.RemoveBackrefs(ctx, s.engine, batch, key); err != nil {
		return storeerr.IOf(err, "removing address book backrefs")
	}
	s.putBookItem(batch, item, now)

	if err := s.engine.Apply(ctx, batch); err != nil {
		return storeerr.IOf(err, "applying address book update")
	}
	return nil
}

// AddressBookRemove deletes a record and every index key it reaches,
// idempotent if the id doesn't exist.
func (s *Store) AddressBookRemove(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return storeerr.InvalidID("id")
	}

	key := addrbookKey(id)
	batch := s.engine.NewBatch()
	batch.Delete([]byte(key))
	if err := backref.RemoveBackrefs(ctx, s.engine, batch, key); err != nil {
		return storeerr.IOf(err, "removing address book backrefs")
	}
	if err := s.engine.Apply(ctx, batch); err != nil {
		return storeerr.IOf(err, "applying address book removal")
	}
	return nil
}

// AddressBookQuery runs a single paginated scan over the trigram index (if
// filter.Text still has at least one code point after trigram
// normalisation) or the global recency index otherwise, post-filtered by filter, deduplicated by primary id, and
// enriched with each item's current usable address, the same way Get
// enriches a single record.
func (s *Store) AddressBookQuery(ctx context.Context, filter AddressBookFilter, page indexing.PageQuery) (indexing.PageResult[AddressBookEntry], error) {
	nowMs := uint64(time.Now().UnixMilli())

	var lowerKey, upperKey string
	if bound, ok := trigram.SearchBound(filter.Text); ok {
		lowerKey = idxAddrbookTrigram(bound, nowMs)
		upperKey = idxAddrbookTrigram(bound, 0)
	} else {
		lowerKey = idxAddrbookAll(nowMs)
		upperKey = idxAddrbookAll(0)
	}

	lower := kv.Inclusive([]byte(lowerKey))
	if page.Cursor != nil && page.Cursor.Offset != "" {
		lower = kv.Exclusive([]byte(page.Cursor.Offset))
	}
	upper := kv.Inclusive([]byte(upperKey))

	it, err := s.engine.RangeIterator(ctx, lower, upper)
	if err != nil {
		return indexing.PageResult[AddressBookEntry]{}, storeerr.IOf(err, "scanning address book index")
	}
	defer it.Close()

	scanner := &addressBookScanner{
		ctx:    ctx,
		store:  s,
		it:     it,
		filter: filter,
		seen:   make(map[string]struct{}),
	}
	return indexing.Paginate[AddressBookEntry](scanner, page.EffectiveLimit())
}

// addressBookScanner adapts a raw index range scan to indexing.Scanner,
// resolving each index entry's primary key to a BookItem, deduplicating
// repeats across multiple index families, applying the post-filter, and
// enriching the result with its current usable address.
type addressBookScanner struct {
	ctx    context.Context
	store  *Store
	it     kv.Iterator
	filter AddressBookFilter
	seen   map[string]struct{}

	currentPrimaryKey string
}

func (sc *addressBookScanner) Next() (string, bool, error) {
	if !sc.it.Next() {
		return "", false, sc.it.Err()
	}
	e := sc.it.Entry()
	sc.currentPrimaryKey = string(e.Value)
	return string(e.Key), true, nil
}

func (sc *addressBookScanner) Resolve() (AddressBookEntry, bool, error) {
	if _, dup := sc.seen[sc.currentPrimaryKey]; dup {
		return AddressBookEntry{}, false, nil
	}
	sc.seen[sc.currentPrimaryKey] = struct{}{}

	raw, ok, err := sc.store.engine.Get(sc.ctx, []byte(sc.currentPrimaryKey))
	if err != nil {
		return AddressBookEntry{}, false, err
	}
	if !ok {
		return AddressBookEntry{}, false, nil
	}
	item, err := model.UnmarshalBookItem(raw)
	if err != nil {
		return AddressBookEntry{}, false, nil
	}
	if !sc.filter.CheckFilter(item) {
		return AddressBookEntry{}, false, nil
	}

	current := item.Address.Address
	if item.Address.FieldType == model.AddressFieldXPub {
		current = sc.store.currentXPubAddress(sc.ctx, item.Address.Address)
	}
	return AddressBookEntry{BookItem: item, CurrentAddress: current}, true, nil
}
