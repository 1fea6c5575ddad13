package store

import "github.com/emerald-wallet/state/internal/model"

// mergeTransaction combines an existing stored transaction with a newly
// proposed update: most fields come from the update, except confirm
// timestamp (keep the later of the two) and since timestamp (keep the
// existing one if the update doesn't set it). Changes are merged
// separately by mergeChanges.
func mergeTransaction(existing, update model.Transaction) model.Transaction {
	merged := update
	if merged.ConfirmTimestamp < existing.ConfirmTimestamp {
		merged.ConfirmTimestamp = existing.ConfirmTimestamp
	}
	if merged.SinceTimestamp == 0 {
		merged.SinceTimestamp = existing.SinceTimestamp
	}
	merged.Changes = mergeChanges(existing.Changes, update.Changes)
	return merged
}

// changeIsSimilarTo reports whether two changes represent the same
// underlying movement: equal amount, direction, asset and address. Similar
// changes are merged together rather than treated as distinct entries.
func changeIsSimilarTo(a, b model.Change) bool {
	return a.Amount == b.Amount && a.Direction == b.Direction && a.Asset == b.Asset && a.Address == b.Address
}

// mergeChange merges an existing change with its matched update: fields
// come from the update, except wallet_id/entry_id are kept from the
// existing change when the update doesn't carry a wallet_id.
func mergeChange(existing, update model.Change) model.Change {
	merged := update
	if update.WalletID == "" {
		merged.WalletID = existing.WalletID
		merged.EntryID = existing.EntryID
	}
	return merged
}

func onlyChangeType(changes []model.Change, t model.ChangeType) []model.Change {
	var result []model.Change
	for _, c := range changes {
		if c.ChangeType == t {
			result = append(result, c)
		}
	}
	return result
}

// mergeChanges merges the transfer changes of existing and update by
// similarity match, dropping any existing transfer that has no match in
// the update, and keeps fees from the update if any are proposed,
// otherwise keeps the existing fees unchanged.
func mergeChanges(existing, update []model.Change) []model.Change {
	transfers := mergeTransfers(onlyChangeType(existing, model.ChangeTypeTransfer), onlyChangeType(update, model.ChangeTypeTransfer))

	fees := onlyChangeType(update, model.ChangeTypeFee)
	if len(fees) == 0 {
		fees = onlyChangeType(existing, model.ChangeTypeFee)
	}

	result := make([]model.Change, 0, len(transfers)+len(fees))
	result = append(result, transfers...)
	result = append(result, fees...)
	return result
}

// mergeTransfers matches each existing transfer against the update's
// transfers by similarity (first match wins, removed from the pool so it
// can't match twice), merges matched pairs, drops unmatched existing
// transfers, and appends whatever is left of the update's pool as new.
func mergeTransfers(existing, update []model.Change) []model.Change {
	pool := make([]model.Change, len(update))
	copy(pool, update)

	var result []model.Change
	for _, x := range existing {
		idx := -1
		for i, y := range pool {
			if changeIsSimilarTo(x, y) {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		matched := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)
		result = append(result, mergeChange(x, matched))
	}
	result = append(result, pool...)
	return result
}
