// Package backref implements the per-record backreference manager: a list
// of every index key synthesised for a primary record, recorded so that a
// delete or update can purge all of them in one prefix scan instead of a
// second index scan.
package backref

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/emerald-wallet/state/internal/kv"
)

const prefix = "idx_back:"

func backrefKey(primaryKey string, writeMs uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%d", prefix, primaryKey, writeMs))
}

func backrefPrefix(primaryKey string) []byte {
	return []byte(fmt.Sprintf("%s%s/", prefix, primaryKey))
}

// encodeIndexKeys joins index keys with a newline; they are printable
// strings by construction (spec §3) so this needs no escaping.
func encodeIndexKeys(keys []string) []byte {
	return []byte(strings.Join(keys, "\n"))
}

func decodeIndexKeys(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	return strings.Split(string(raw), "\n")
}

// AddBackrefs appends one backref generation, idx_back:<primaryKey>/<nowMs>,
// whose value is the serialised list of indexKeys. Callers pass the write
// time in milliseconds, which is independent of the timestamps embedded in
// the index keys; a second write for the same primary key in the same
// millisecond reuses, and overwrites, that generation's key. Multiple
// writes to the same primary accumulate multiple generations, which is
// intentional (see RemoveBackrefs).
func AddBackrefs(batch kv.Batch, primaryKey string, nowMs uint64, indexKeys []string) {
	if len(indexKeys) == 0 {
		return
	}
	batch.Put(backrefKey(primaryKey, nowMs), encodeIndexKeys(indexKeys))
}

// RemoveBackrefs prefix-scans every generation recorded for primaryKey,
// queues a batch delete for every distinct index key referenced across all
// generations, and queues deletes for the backref entries themselves. It
// is idempotent: removing backrefs for a primary key with none recorded is
// a no-op.
func RemoveBackrefs(ctx context.Context, engine kv.Engine, batch kv.Batch, primaryKey string) error {
	it, err := engine.PrefixIterator(ctx, backrefPrefix(primaryKey))
	if err != nil {
		return fmt.Errorf("backref: scanning generations for %s: %w", primaryKey, err)
	}
	defer it.Close()

	seen := make(map[string]struct{})
	for it.Next() {
		e := it.Entry()
		for _, ik := range decodeIndexKeys(e.Value) {
			if ik == "" {
				continue
			}
			if _, ok := seen[ik]; ok {
				continue
			}
			seen[ik] = struct{}{}
			batch.Delete([]byte(ik))
		}
		batch.Delete(e.Key)
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("backref: iterating generations for %s: %w", primaryKey, err)
	}
	return nil
}

// parseGeneration extracts the write-timestamp suffix of a backref key.
func parseGeneration(key string) (uint64, bool) {
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return 0, false
	}
	v, err := strconv.ParseUint(key[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
