package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emerald-wallet/state/internal/model"
)

func transferChange(wallet string, entry uint32, amount string) model.Change {
	return model.Change{
		WalletID:   wallet,
		EntryID:    entry,
		Address:    "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		Amount:     amount,
		Direction:  model.DirectionSend,
		ChangeType: model.ChangeTypeTransfer,
	}
}

func TestMergeSameTransaction(t *testing.T) {
	tx := model.Transaction{
		Blockchain:     100,
		SinceTimestamp: 1_647_313_850_992,
		Changes:        []model.Change{transferChange("72279ede-44c4-4951-925b-f51a7b9e929a", 0, "100000000")},
	}

	merged := mergeTransaction(tx, tx)
	assert.Equal(t, tx, merged)
}

func TestMergeKeepsWalletID(t *testing.T) {
	change1 := transferChange("72279ede-44c4-4951-925b-f51a7b9e929a", 1, "100000000")
	tx := model.Transaction{Blockchain: 100, SinceTimestamp: 1_647_313_850_992, Changes: []model.Change{change1}}

	change1Copy := change1
	change1Copy.WalletID = ""
	change1Copy.EntryID = 0
	txNew := tx
	txNew.Changes = []model.Change{change1Copy}

	merged := mergeTransaction(tx, txNew)
	assert.Equal(t, tx, merged)
}

func TestMergeUpdatesWalletID(t *testing.T) {
	change1 := transferChange("", 0, "100000000")
	tx := model.Transaction{Blockchain: 100, SinceTimestamp: 1_647_313_850_992, Changes: []model.Change{change1}}

	change1Copy := change1
	change1Copy.WalletID = "72279ede-44c4-4951-925b-f51a7b9e929a"
	change1Copy.EntryID = 5
	txNew := tx
	txNew.Changes = []model.Change{change1Copy}

	merged := mergeTransaction(tx, txNew)
	assert.Equal(t, txNew, merged)
}

func TestMergeReplacesSameChange(t *testing.T) {
	change1 := transferChange("72279ede-44c4-4951-925b-f51a7b9e929a", 5, "100000000")
	change2 := change1
	change2.Amount = "100000015"

	tx := model.Transaction{Blockchain: 100, SinceTimestamp: 1_647_313_850_992, Changes: []model.Change{change1}}
	txNew := tx
	txNew.Changes = []model.Change{change2}

	merged := mergeTransaction(tx, txNew)
	if assert.Len(t, merged.Changes, 1) {
		assert.Equal(t, change2, merged.Changes[0])
	}
}

func TestMergeReplacesAllChanges(t *testing.T) {
	change1 := transferChange("72279ede-44c4-4951-925b-f51a7b9e929a", 5, "100000000")
	change2 := change1
	change2.Amount = "100000015"
	change3 := transferChange("72279ede-44c4-4951-925b-f51a7b9e929a", 5, "500000")

	tx := model.Transaction{Blockchain: 100, SinceTimestamp: 1_647_313_850_992, Changes: []model.Change{change1}}
	txNew := tx
	txNew.Changes = []model.Change{change2, change3}

	merged := mergeTransaction(tx, txNew)
	if assert.Len(t, merged.Changes, 2) {
		assert.Equal(t, change2, merged.Changes[0])
		assert.Equal(t, change3, merged.Changes[1])
	}
}

func TestMergeKeepsFees(t *testing.T) {
	change1 := transferChange("72279ede-44c4-4951-925b-f51a7b9e929a", 5, "100000000")
	fee1 := change1
	fee1.Amount = "300"
	fee1.ChangeType = model.ChangeTypeFee

	change2 := change1
	change2.Amount = "100000015"
	change3 := transferChange("72279ede-44c4-4951-925b-f51a7b9e929a", 5, "500000")

	tx := model.Transaction{Blockchain: 100, SinceTimestamp: 1_647_313_850_992, Changes: []model.Change{change1, fee1}}
	txNew := tx
	txNew.Changes = []model.Change{change2, change3}

	merged := mergeTransaction(tx, txNew)
	if assert.Len(t, merged.Changes, 3) {
		assert.Equal(t, change2, merged.Changes[0])
		assert.Equal(t, change3, merged.Changes[1])
		assert.Equal(t, fee1, merged.Changes[2])
	}
}

func TestMergeUpdatesFeeIfNewComes(t *testing.T) {
	change1 := transferChange("72279ede-44c4-4951-925b-f51a7b9e929a", 5, "100000000")
	fee1 := change1
	fee1.Amount = "300"
	fee1.ChangeType = model.ChangeTypeFee

	change2 := change1
	change2.Amount = "100000015"
	change3 := transferChange("72279ede-44c4-4951-925b-f51a7b9e929a", 5, "500000")
	fee4 := fee1
	fee4.Amount = "381"

	tx := model.Transaction{Blockchain: 100, SinceTimestamp: 1_647_313_850_992, Changes: []model.Change{change1, fee1}}
	txNew := tx
	txNew.Changes = []model.Change{change2, change3, fee4}

	merged := mergeTransaction(tx, txNew)
	if assert.Len(t, merged.Changes, 3) {
		assert.Equal(t, change2, merged.Changes[0])
		assert.Equal(t, change3, merged.Changes[1])
		assert.Equal(t, fee4, merged.Changes[2])
	}
}
