package store

import (
	"context"
	"math/big"

	"github.com/emerald-wallet/state/internal/model"
	"github.com/emerald-wallet/state/internal/storeerr"
	"github.com/emerald-wallet/state/internal/walletaddr"
)

// validateBalance checks internal UTXO consistency: if utxo entries are
// present, their amounts must sum to exactly the balance's total amount.
// An inconsistent balance is kept but stripped of its utxo list, rather
// than rejected outright.
func validateBalance(b model.Balance) model.Balance {
	if len(b.Utxo) == 0 {
		return b
	}
	total := new(big.Int)
	for _, u := range b.Utxo {
		total.Add(total, new(big.Int).SetUint64(u.Amount))
	}
	amount, ok := new(big.Int).SetString(b.Amount, 10)
	if !ok || total.Cmp(amount) != 0 {
		b.Utxo = nil
	}
	return b
}

// concatBalance replaces any existing entry for the same (blockchain,
// asset) pair with extra, preserving the order of everything else.
func concatBalance(base []model.Balance, extra model.Balance) []model.Balance {
	result := make([]model.Balance, 0, len(base)+1)
	for _, b := range base {
		if b.Blockchain != extra.Blockchain || b.Asset != extra.Asset {
			result = append(result, b)
		}
	}
	result = append(result, extra)
	return result
}

// BalanceSet stores value, merging it into the existing list for its
// address by replacing any prior entry for the same (blockchain, asset).
func (s *Store) BalanceSet(ctx context.Context, value model.Balance) error {
	if !walletaddr.CheckAddress(value.Address) {
		return storeerr.InvalidValue("address")
	}
	value = validateBalance(value)

	key := []byte(balanceKey(value.Address))
	raw, ok, err := s.engine.Get(ctx, key)
	if err != nil {
		return storeerr.IOf(err, "reading balance")
	}

	var list []model.Balance
	if ok {
		bundle, err := model.UnmarshalBalanceBundle(raw)
		if err == nil {
			list = bundle.Balances
		}
	}
	list = concatBalance(list, value)

	bundle := model.BalanceBundle{Balances: list}
	if err := s.engine.Put(ctx, key, bundle.Marshal()); err != nil {
		return storeerr.IOf(err, "writing balance")
	}
	return nil
}

// BalanceList returns every known balance entry for a single plain
// address (not an xpub).
func (s *Store) BalanceList(ctx context.Context, address string) ([]model.Balance, error) {
	if !walletaddr.CheckAddress(address) {
		return nil, storeerr.InvalidValue("address")
	}

	raw, ok, err := s.engine.Get(ctx, []byte(balanceKey(address)))
	if err != nil {
		return nil, storeerr.IOf(err, "reading balance")
	}
	if !ok {
		return nil, nil
	}
	bundle, err := model.UnmarshalBalanceBundle(raw)
	if err != nil {
		return nil, nil
	}
	return bundle.Balances, nil
}

// BalanceClear removes every known balance entry for address.
func (s *Store) BalanceClear(ctx context.Context, address string) error {
	if !walletaddr.CheckAddress(address) {
		return storeerr.InvalidValue("address")
	}
	if err := s.engine.Delete(ctx, []byte(balanceKey(address))); err != nil {
		return storeerr.IOf(err, "clearing balance")
	}
	return nil
}
