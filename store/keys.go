package store

import (
	"fmt"

	"github.com/emerald-wallet/state/internal/indexing"
)

// Reserved, disjoint key prefixes (spec §6 "Persisted key layout").
const (
	txPrefix         = "tx:"
	txMetaPrefix     = "txmeta:"
	idxTxPrefix      = "idx:tx:"
	addrCursorPrefix = "addr_cursor:"
	addrbookPrefix   = "addrbook"
	idxAddrbookPfx   = "idx:addrbook:"
	balancePrefix    = "balance:"
	allowancePrefix  = "allowance:"
	cachePrefix      = "cache:"
	xpubposPrefix    = "xpubpos:"
)

func txKey(blockchain uint32, txID string) string {
	return fmt.Sprintf("%s%d/%s", txPrefix, blockchain, txID)
}

func txMetaKey(blockchain uint32, txID string) string {
	return fmt.Sprintf("%s%d/%s", txMetaPrefix, blockchain, txID)
}

func addrCursorKey(address string) string {
	return addrCursorPrefix + address
}

func addrbookKey(id string) string {
	return addrbookPrefix + id
}

func balanceKey(address string) string {
	return balancePrefix + address
}

func allowanceKey(wallet string, blockchain uint32, token, owner, spender string) string {
	return fmt.Sprintf("%s_%s_%d_%s_%s_%s", allowancePrefix, wallet, blockchain, token, owner, spender)
}

func allowanceWalletPrefix(wallet string) string {
	return fmt.Sprintf("%s_%s_", allowancePrefix, wallet)
}

func cacheKey(id string) string {
	return cachePrefix + id
}

func xpubposKey(xpub string) string {
	return xpubposPrefix + xpub
}

// Index key builders (spec §3 "Index keys" table).

func idxTxAll(ts uint64) string {
	return fmt.Sprintf("%s1/%s", idxTxPrefix, indexing.DescTimestamp(ts))
}

func idxTxWallet(wallet string, ts uint64) string {
	return fmt.Sprintf("%s2/%s/%s", idxTxPrefix, wallet, indexing.DescTimestamp(ts))
}

func idxTxWalletRecent(wallet string, recent bool, ts uint64, pos uint64, txID string) string {
	return fmt.Sprintf("%s3/%s/%s/%s/%s/%s",
		idxTxPrefix, wallet,
		indexing.BoolTF(recent),
		indexing.DescTimestamp(ts),
		indexing.DescU64(pos),
		indexing.AscU64(indexing.TxidAsPos(txID)),
	)
}

func idxTxWalletRecentPrefix(wallet string) string {
	return fmt.Sprintf("%s3/%s/", idxTxPrefix, wallet)
}

func idxAddrbookAll(ts uint64) string {
	return fmt.Sprintf("%s1/%s", idxAddrbookPfx, indexing.DescTimestamp(ts))
}

func idxAddrbookAddr(address string, ts uint64) string {
	return fmt.Sprintf("%s2/%s/%s", idxAddrbookPfx, address, indexing.DescTimestamp(ts))
}

func idxAddrbookTrigram(ngram string, ts uint64) string {
	return fmt.Sprintf("%s3/%s/%s", idxAddrbookPfx, ngram, indexing.DescTimestamp(ts))
}

func idxAddrbookTrigramPrefix(ngram string) string {
	return fmt.Sprintf("%s3/%s/", idxAddrbookPfx, ngram)
}
