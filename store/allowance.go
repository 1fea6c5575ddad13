package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emerald-wallet/state/internal/model"
	"github.com/emerald-wallet/state/internal/storeconfig"
	"github.com/emerald-wallet/state/internal/storeerr"
	"github.com/emerald-wallet/state/internal/walletaddr"
)

// AllowanceAdd validates and stores an ERC-20 allowance grant, stamping its
// timestamp and expiry. ttl of 0 falls back to storeconfig.AllowanceDefaultTTL,
// clamped to storeconfig.AllowanceMaxTTL. The key is a function of every
// identifying field, so adding the same (wallet, blockchain, token, owner,
// spender) tuple again overwrites rather than duplicates it.
func (s *Store) AllowanceAdd(ctx context.Context, a model.Allowance, ttl time.Duration) error {
	if !walletaddr.CheckEthereumAddress(a.Token) {
		return storeerr.InvalidValue("token")
	}
	if !walletaddr.CheckEthereumAddress(a.Owner) {
		return storeerr.InvalidValue("owner")
	}
	if !walletaddr.CheckEthereumAddress(a.Spender) {
		return storeerr.InvalidValue("spender")
	}
	if _, err := uuid.Parse(a.WalletID); err != nil {
		return storeerr.InvalidValue("wallet_id")
	}

	if ttl <= 0 {
		ttl = storeconfig.AllowanceDefaultTTL
	}
	if ttl > storeconfig.AllowanceMaxTTL {
		ttl = storeconfig.AllowanceMaxTTL
	}

	a.Timestamp = uint64(time.Now().UnixMilli())
	a.TTL = a.Timestamp + uint64(ttl.Milliseconds())

	key := allowanceKey(a.WalletID, a.Blockchain, a.Token, a.Owner, a.Spender)
	if err := s.engine.Put(ctx, []byte(key), a.Marshal()); err != nil {
		return storeerr.IOf(err, "writing allowance")
	}
	return nil
}

// AllowanceList returns every live (non-expired) allowance, or just those
// for walletID if it's non-empty. If expired entries outnumber the live
// ones returned, a best-effort purge of every expired allowance runs before
// this call returns; a purge failure is logged, not returned.
func (s *Store) AllowanceList(ctx context.Context, walletID string) ([]model.Allowance, error) {
	prefix := allowancePrefix
	if walletID != "" {
		prefix = allowanceWalletPrefix(walletID)
	}

	it, err := s.engine.PrefixIterator(ctx, []byte(prefix))
	if err != nil {
		return nil, storeerr.IOf(err, "scanning allowances")
	}
	defer it.Close()

	now := uint64(time.Now().UnixMilli())
	var result []model.Allowance
	outdated := 0
	for it.Next() {
		a, err := model.UnmarshalAllowance(it.Entry().Value)
		if err != nil {
			continue
		}
		if a.TTL < now {
			outdated++
			continue
		}
		result = append(result, a)
	}
	if err := it.Err(); err != nil {
		return nil, storeerr.IOf(err, "scanning allowances")
	}

	if outdated > len(result) {
		if _, err := s.allowancePurge(ctx); err != nil {
			s.log.Warn("allowance purge failed", "error", err)
		}
	}

	return result, nil
}

// AllowanceRemove deletes allowances for walletID matching the optional
// blockchain filter and the optional minTs filter (entries recorded before
// minTs are removed, i.e. "older than"), returning the count removed.
func (s *Store) AllowanceRemove(ctx context.Context, walletID string, blockchain *uint32, minTs *uint64) (int, error) {
	it, err := s.engine.PrefixIterator(ctx, []byte(allowanceWalletPrefix(walletID)))
	if err != nil {
		return 0, storeerr.IOf(err, "scanning allowances")
	}
	defer it.Close()

	batch := s.engine.NewBatch()
	count := 0
	for it.Next() {
		e := it.Entry()
		a, err := model.UnmarshalAllowance(e.Value)
		if err != nil {
			continue
		}
		if blockchain != nil && a.Blockchain != *blockchain {
			continue
		}
		if minTs != nil && a.Timestamp >= *minTs {
			continue
		}
		batch.Delete(e.Key)
		count++
	}
	if err := it.Err(); err != nil {
		return 0, storeerr.IOf(err, "scanning allowances")
	}

	if count > 0 {
		if err := s.engine.Apply(ctx, batch); err != nil {
			return 0, storeerr.IOf(err, "applying allowance removal")
		}
	}
	return count, nil
}

func (s *Store) allowancePurge(ctx context.Context) (int, error) {
	it, err := s.engine.PrefixIterator(ctx, []byte(allowancePrefix))
	if err != nil {
		return 0, storeerr.IOf(err, "scanning allowances")
	}
	defer it.Close()

	now := uint64(time.Now().UnixMilli())
	batch := s.engine.NewBatch()
	count := 0
	for it.Next() {
		e := it.Entry()
		a, err := model.UnmarshalAllowance(e.Value)
		if err != nil || a.TTL < now {
			batch.Delete(e.Key)
			count++
		}
	}
	if err := it.Err(); err != nil {
		return 0, storeerr.IOf(err, "scanning allowances")
	}
	if count > 0 {
		if err := s.engine.Apply(ctx, batch); err != nil {
			return 0, storeerr.IOf(err, "applying allowance purge")
		}
	}
	return count, nil
}
