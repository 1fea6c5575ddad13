// Package model defines the record types persisted by every store domain,
// with Marshal/Unmarshal built on internal/wire. This package treats wire
// layout as the only contract; it never depends on internal/kv or any
// domain logic.
package model

import (
	"fmt"

	"github.com/emerald-wallet/state/internal/wire"
)

// Direction is the side of value movement a Change represents.
type Direction int32

const (
	DirectionUnspecified Direction = 0
	DirectionSend        Direction = 1
	DirectionReceive     Direction = 2
)

// ChangeType discriminates a transfer from a fee within a transaction.
type ChangeType int32

const (
	ChangeTypeUnspecified ChangeType = 0
	ChangeTypeTransfer    ChangeType = 1
	ChangeTypeFee         ChangeType = 2
)

// TxState is the lifecycle state of a transaction.
type TxState int32

const (
	TxStateUnspecified TxState = 0
	TxStatePrepared    TxState = 1
	TxStateSubmitted   TxState = 2
	TxStateConfirmed   TxState = 3
	TxStateFailed      TxState = 4
	TxStateDropped     TxState = 5
)

// AddressFieldType discriminates a plain address from an XPub in the
// address book.
type AddressFieldType int32

const (
	AddressFieldPlain AddressFieldType = 0
	AddressFieldXPub  AddressFieldType = 1
)

// Change is one side of a transaction's value movement.
type Change struct {
	WalletID   string
	EntryID    uint32
	Address    string
	Amount     string
	Asset      string
	Direction  Direction
	ChangeType ChangeType
}

const (
	fChangeWalletID = iota + 1
	fChangeEntryID
	fChangeAddress
	fChangeAmount
	fChangeAsset
	fChangeDirection
	fChangeType
)

func (c Change) marshalInto(w *wire.Writer) {
	w.String(fChangeWalletID, c.WalletID)
	w.Uint32(fChangeEntryID, c.EntryID)
	w.String(fChangeAddress, c.Address)
	w.String(fChangeAmount, c.Amount)
	w.String(fChangeAsset, c.Asset)
	w.Uint32(fChangeDirection, uint32(c.Direction))
	w.Uint32(fChangeType, uint32(c.ChangeType))
}

func unmarshalChange(buf []byte) (Change, error) {
	var c Change
	err := wire.Range(buf, func(f wire.Field) error {
		var err error
		switch f.Number {
		case fChangeWalletID:
			c.WalletID, err = f.String()
		case fChangeEntryID:
			c.EntryID, err = f.Uint32()
		case fChangeAddress:
			c.Address, err = f.String()
		case fChangeAmount:
			c.Amount, err = f.String()
		case fChangeAsset:
			c.Asset, err = f.String()
		case fChangeDirection:
			var v uint32
			v, err = f.Uint32()
			c.Direction = Direction(v)
		case fChangeType:
			var v uint32
			v, err = f.Uint32()
			c.ChangeType = ChangeType(v)
		}
		return err
	})
	return c, err
}

// Transaction is the primary record at tx:<blockchain>/<txid>.
type Transaction struct {
	Blockchain       uint32
	TxID             string
	State            TxState
	SinceTimestamp   uint64
	ConfirmTimestamp uint64
	HasBlock         bool
	Block            uint64
	BlockPos         uint32
	Changes          []Change
}

const (
	fTxBlockchain = iota + 1
	fTxID
	fTxState
	fTxSince
	fTxConfirm
	fTxHasBlock
	fTxBlock
	fTxBlockPos
	fTxChange
)

func (t Transaction) Marshal() []byte {
	w := wire.NewWriter()
	w.Uint32(fTxBlockchain, t.Blockchain)
	w.String(fTxID, t.TxID)
	w.Uint32(fTxState, uint32(t.State))
	w.Uint64(fTxSince, t.SinceTimestamp)
	w.Uint64(fTxConfirm, t.ConfirmTimestamp)
	w.Bool(fTxHasBlock, t.HasBlock)
	w.Uint64(fTxBlock, t.Block)
	w.Uint32(fTxBlockPos, t.BlockPos)
	for _, c := range t.Changes {
		sub := wire.NewWriter()
		c.marshalInto(sub)
		w.Message(fTxChange, sub)
	}
	return w.Bytes()
}

func UnmarshalTransaction(buf []byte) (Transaction, error) {
	var t Transaction
	err := wire.Range(buf, func(f wire.Field) error {
		var err error
		switch f.Number {
		case fTxBlockchain:
			t.Blockchain, err = f.Uint32()
		case fTxID:
			t.TxID, err = f.String()
		case fTxState:
			var v uint32
			v, err = f.Uint32()
			t.State = TxState(v)
		case fTxSince:
			t.SinceTimestamp, err = f.Uint64()
		case fTxConfirm:
			t.ConfirmTimestamp, err = f.Uint64()
		case fTxHasBlock:
			t.HasBlock, err = f.Bool()
		case fTxBlock:
			t.Block, err = f.Uint64()
		case fTxBlockPos:
			t.BlockPos, err = f.Uint32()
		case fTxChange:
			var raw []byte
			raw, err = f.Message()
			if err != nil {
				return err
			}
			var c Change
			c, err = unmarshalChange(raw)
			if err == nil {
				t.Changes = append(t.Changes, c)
			}
		}
		return err
	})
	if err != nil {
		return Transaction{}, fmt.Errorf("model: unmarshal transaction: %w", err)
	}
	return t, nil
}

// TxMeta is a user annotation at txmeta:<blockchain>/<txid>.
type TxMeta struct {
	Blockchain uint32
	TxID       string
	Label      string
	Raw        []byte
	Timestamp  uint64
}

const (
	fMetaBlockchain = iota + 1
	fMetaTxID
	fMetaLabel
	fMetaRaw
	fMetaTimestamp
)

func (m TxMeta) Marshal() []byte {
	w := wire.NewWriter()
	w.Uint32(fMetaBlockchain, m.Blockchain)
	w.String(fMetaTxID, m.TxID)
	w.String(fMetaLabel, m.Label)
	w.Bytes_(fMetaRaw, m.Raw)
	w.Uint64(fMetaTimestamp, m.Timestamp)
	return w.Bytes()
}

func UnmarshalTxMeta(buf []byte) (TxMeta, error) {
	var m TxMeta
	err := wire.Range(buf, func(f wire.Field) error {
		var err error
		switch f.Number {
		case fMetaBlockchain:
			m.Blockchain, err = f.Uint32()
		case fMetaTxID:
			m.TxID, err = f.String()
		case fMetaLabel:
			m.Label, err = f.String()
		case fMetaRaw:
			m.Raw, err = f.Bytes()
		case fMetaTimestamp:
			m.Timestamp, err = f.Uint64()
		}
		return err
	})
	if err != nil {
		return TxMeta{}, fmt.Errorf("model: unmarshal tx meta: %w", err)
	}
	return m, nil
}

// RemoteCursor is the opaque resume token at addr_cursor:<address>.
type RemoteCursor struct {
	Address   string
	Token     string
	Timestamp uint64
}

const (
	fCursorAddress = iota + 1
	fCursorToken
	fCursorTimestamp
)

func (c RemoteCursor) Marshal() []byte {
	w := wire.NewWriter()
	w.String(fCursorAddress, c.Address)
	w.String(fCursorToken, c.Token)
	w.Uint64(fCursorTimestamp, c.Timestamp)
	return w.Bytes()
}

func UnmarshalRemoteCursor(buf []byte) (RemoteCursor, error) {
	var c RemoteCursor
	err := wire.Range(buf, func(f wire.Field) error {
		var err error
		switch f.Number {
		case fCursorAddress:
			c.Address, err = f.String()
		case fCursorToken:
			c.Token, err = f.String()
		case fCursorTimestamp:
			c.Timestamp, err = f.Uint64()
		}
		return err
	})
	if err != nil {
		return RemoteCursor{}, fmt.Errorf("model: unmarshal remote cursor: %w", err)
	}
	return c, nil
}

// Address is the address-book item's address sub-record.
type Address struct {
	Address   string
	FieldType AddressFieldType
}

// BookItem is the primary record at addrbook<uuid>.
type BookItem struct {
	ID              string
	Blockchain      uint32
	Label           string
	CreateTimestamp uint64
	UpdateTimestamp uint64
	Address         Address
}

const (
	fBookID = iota + 1
	fBookBlockchain
	fBookLabel
	fBookCreateTs
	fBookUpdateTs
	fBookAddress
	fBookAddressType
)

func (b BookItem) Marshal() []byte {
	w := wire.NewWriter()
	w.String(fBookID, b.ID)
	w.Uint32(fBookBlockchain, b.Blockchain)
	w.String(fBookLabel, b.Label)
	w.Uint64(fBookCreateTs, b.CreateTimestamp)
	w.Uint64(fBookUpdateTs, b.UpdateTimestamp)
	w.String(fBookAddress, b.Address.Address)
	w.Uint32(fBookAddressType, uint32(b.Address.FieldType))
	return w.Bytes()
}

func UnmarshalBookItem(buf []byte) (BookItem, error) {
	var b BookItem
	err := wire.Range(buf, func(f wire.Field) error {
		var err error
		switch f.Number {
		case fBookID:
			b.ID, err = f.String()
		case fBookBlockchain:
			b.Blockchain, err = f.Uint32()
		case fBookLabel:
			b.Label, err = f.String()
		case fBookCreateTs:
			b.CreateTimestamp, err = f.Uint64()
		case fBookUpdateTs:
			b.UpdateTimestamp, err = f.Uint64()
		case fBookAddress:
			b.Address.Address, err = f.String()
		case fBookAddressType:
			var v uint32
			v, err = f.Uint32()
			b.Address.FieldType = AddressFieldType(v)
		}
		return err
	})
	if err != nil {
		return BookItem{}, fmt.Errorf("model: unmarshal book item: %w", err)
	}
	return b, nil
}

// Utxo is one unspent output backing a Bitcoin-family Balance.
type Utxo struct {
	TxID   string
	Vout   uint32
	Amount uint64
}

const (
	fUtxoTxID = iota + 1
	fUtxoVout
	fUtxoAmount
)

func (u Utxo) marshalInto(w *wire.Writer) {
	w.String(fUtxoTxID, u.TxID)
	w.Uint32(fUtxoVout, u.Vout)
	w.Uint64(fUtxoAmount, u.Amount)
}

func unmarshalUtxo(buf []byte) (Utxo, error) {
	var u Utxo
	err := wire.Range(buf, func(f wire.Field) error {
		var err error
		switch f.Number {
		case fUtxoTxID:
			u.TxID, err = f.String()
		case fUtxoVout:
			u.Vout, err = f.Uint32()
		case fUtxoAmount:
			u.Amount, err = f.Uint64()
		}
		return err
	})
	return u, err
}

// Balance is one per-(blockchain,asset) entry in the list stored at
// balance:<address>.
type Balance struct {
	Address    string
	Amount     string
	Timestamp  uint64
	Blockchain uint32
	Asset      string
	Utxo       []Utxo
}

const (
	fBalAddress = iota + 1
	fBalAmount
	fBalTimestamp
	fBalBlockchain
	fBalAsset
	fBalUtxo
)

func (b Balance) marshalInto(w *wire.Writer) {
	w.String(fBalAddress, b.Address)
	w.String(fBalAmount, b.Amount)
	w.Uint64(fBalTimestamp, b.Timestamp)
	w.Uint32(fBalBlockchain, b.Blockchain)
	w.String(fBalAsset, b.Asset)
	for _, u := range b.Utxo {
		sub := wire.NewWriter()
		u.marshalInto(sub)
		w.Message(fBalUtxo, sub)
	}
}

func unmarshalBalance(buf []byte) (Balance, error) {
	var b Balance
	err := wire.Range(buf, func(f wire.Field) error {
		var err error
		switch f.Number {
		case fBalAddress:
			b.Address, err = f.String()
		case fBalAmount:
			b.Amount, err = f.String()
		case fBalTimestamp:
			b.Timestamp, err = f.Uint64()
		case fBalBlockchain:
			b.Blockchain, err = f.Uint32()
		case fBalAsset:
			b.Asset, err = f.String()
		case fBalUtxo:
			var raw []byte
			raw, err = f.Message()
			if err != nil {
				return err
			}
			var u Utxo
			u, err = unmarshalUtxo(raw)
			if err == nil {
				b.Utxo = append(b.Utxo, u)
			}
		}
		return err
	})
	return b, err
}

// BalanceBundle is the list stored at balance:<address>.
type BalanceBundle struct {
	Balances []Balance
}

const fBundleBalance = 1

func (bd BalanceBundle) Marshal() []byte {
	w := wire.NewWriter()
	for _, b := range bd.Balances {
		sub := wire.NewWriter()
		b.marshalInto(sub)
		w.Message(fBundleBalance, sub)
	}
	return w.Bytes()
}

func UnmarshalBalanceBundle(buf []byte) (BalanceBundle, error) {
	var bd BalanceBundle
	err := wire.Range(buf, func(f wire.Field) error {
		if f.Number != fBundleBalance {
			return nil
		}
		raw, err := f.Message()
		if err != nil {
			return err
		}
		b, err := unmarshalBalance(raw)
		if err != nil {
			return err
		}
		bd.Balances = append(bd.Balances, b)
		return nil
	})
	if err != nil {
		return BalanceBundle{}, fmt.Errorf("model: unmarshal balance bundle: %w", err)
	}
	return bd, nil
}

// Allowance is the record at allowance:_<wallet>_<blockchain>_<token>_<owner>_<spender>.
type Allowance struct {
	WalletID   string
	Blockchain uint32
	Token      string
	Owner      string
	Spender    string
	Amount     string
	Timestamp  uint64
	TTL        uint64
}

const (
	fAllowWallet = iota + 1
	fAllowBlockchain
	fAllowToken
	fAllowOwner
	fAllowSpender
	fAllowTs
	fAllowTTL
	fAllowAmount
)

func (a Allowance) Marshal() []byte {
	w := wire.NewWriter()
	w.String(fAllowWallet, a.WalletID)
	w.Uint32(fAllowBlockchain, a.Blockchain)
	w.String(fAllowToken, a.Token)
	w.String(fAllowOwner, a.Owner)
	w.String(fAllowSpender, a.Spender)
	w.Uint64(fAllowTs, a.Timestamp)
	w.Uint64(fAllowTTL, a.TTL)
	w.String(fAllowAmount, a.Amount)
	return w.Bytes()
}

func UnmarshalAllowance(buf []byte) (Allowance, error) {
	var a Allowance
	err := wire.Range(buf, func(f wire.Field) error {
		var err error
		switch f.Number {
		case fAllowWallet:
			a.WalletID, err = f.String()
		case fAllowBlockchain:
			a.Blockchain, err = f.Uint32()
		case fAllowToken:
			a.Token, err = f.String()
		case fAllowOwner:
			a.Owner, err = f.String()
		case fAllowSpender:
			a.Spender, err = f.String()
		case fAllowTs:
			a.Timestamp, err = f.Uint64()
		case fAllowTTL:
			a.TTL, err = f.Uint64()
		case fAllowAmount:
			a.Amount, err = f.String()
		}
		return err
	})
	if err != nil {
		return Allowance{}, fmt.Errorf("model: unmarshal allowance: %w", err)
	}
	return a, nil
}

// CacheEntry is the record at cache:<id>.
type CacheEntry struct {
	ID        string
	Value     string
	Timestamp uint64
	TTL       uint64
}

const (
	fCacheID = iota + 1
	fCacheValue
	fCacheTs
	fCacheTTL
)

func (c CacheEntry) Marshal() []byte {
	w := wire.NewWriter()
	w.String(fCacheID, c.ID)
	w.String(fCacheValue, c.Value)
	w.Uint64(fCacheTs, c.Timestamp)
	w.Uint64(fCacheTTL, c.TTL)
	return w.Bytes()
}

func UnmarshalCacheEntry(buf []byte) (CacheEntry, error) {
	var c CacheEntry
	err := wire.Range(buf, func(f wire.Field) error {
		var err error
		switch f.Number {
		case fCacheID:
			c.ID, err = f.String()
		case fCacheValue:
			c.Value, err = f.String()
		case fCacheTs:
			c.Timestamp, err = f.Uint64()
		case fCacheTTL:
			c.TTL, err = f.Uint64()
		}
		return err
	})
	if err != nil {
		return CacheEntry{}, fmt.Errorf("model: unmarshal cache entry: %w", err)
	}
	return c, nil
}
