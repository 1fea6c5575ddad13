package store

import (
	"strings"

	"github.com/emerald-wallet/state/internal/model"
)

// AddressBookFilter narrows an address-book query. Blockchain==0 means
// unconstrained (valid blockchain ids start at 1, per the glossary).
type AddressBookFilter struct {
	Blockchain uint32
	Text       string
}

// CheckFilter implements the post-filter applied after the trigram/all
// index scan already narrowed candidates: true iff blockchain matches (or
// is unconstrained) and the case-insensitive trimmed query substring
// appears in label or address.
func (f AddressBookFilter) CheckFilter(item model.BookItem) bool {
	if f.Blockchain != 0 && item.Blockchain != f.Blockchain {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Text))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.Label), q) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Address.Address), q) {
		return true
	}
	return false
}

// TransactionFilter narrows a transaction query. Zero-valued fields are
// unconstrained. Entry only applies in combination with Wallet.
type TransactionFilter struct {
	Blockchains []uint32
	Wallet      string
	Entry       *uint32
	After       uint64
	Before      uint64
	Addresses   []string
}

// CheckFilter applies the spec's per-field-category AND, per-field OR
// semantics: blockchain membership, a time window where either timestamp
// may satisfy (not both), wallet/entry scope, and address membership.
func (f TransactionFilter) CheckFilter(tx model.Transaction) bool {
	if len(f.Blockchains) > 0 && !containsU32(f.Blockchains, tx.Blockchain) {
		return false
	}
	if !f.timeMatches(tx) {
		return false
	}
	if !f.walletMatches(tx) {
		return false
	}
	if !f.addressMatches(tx) {
		return false
	}
	return true
}

func (f TransactionFilter) timeMatches(tx model.Transaction) bool {
	if f.After == 0 && f.Before == 0 {
		return true
	}
	return inWindow(tx.SinceTimestamp, f.After, f.Before) || inWindow(tx.ConfirmTimestamp, f.After, f.Before)
}

func inWindow(ts, after, before uint64) bool {
	if ts == 0 {
		return false
	}
	if after != 0 && ts < after {
		return false
	}
	if before != 0 && ts > before {
		return false
	}
	return true
}

func (f TransactionFilter) walletMatches(tx model.Transaction) bool {
	if f.Wallet == "" {
		return true
	}
	for _, c := range tx.Changes {
		if c.WalletID != f.Wallet {
			continue
		}
		if f.Entry == nil || c.EntryID == *f.Entry {
			return true
		}
	}
	return false
}

func (f TransactionFilter) addressMatches(tx model.Transaction) bool {
	if len(f.Addresses) == 0 {
		return true
	}
	for _, c := range tx.Changes {
		for _, a := range f.Addresses {
			if c.Address == a {
				return true
			}
		}
	}
	return false
}

func containsU32(list []uint32, v uint32) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
