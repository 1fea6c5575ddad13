package store

import (
	"context"
	"encoding/binary"

	"github.com/emerald-wallet/state/internal/storeerr"
)

// isValidXPubKey reports whether xpub can be used as a key component. Full
// BIP32 validation happens in internal/walletaddr; here we only need to
// know it's safe to embed in a key.
func isValidXPubKey(xpub string) bool {
	if xpub == "" {
		return false
	}
	for _, r := range xpub {
		if !isAlphaNumeric(r) {
			return false
		}
	}
	return true
}

func isAlphaNumeric(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	default:
		return false
	}
}

// serializeXPubPos encodes a position as a 4-byte big-endian value.
func serializeXPubPos(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// deserializeXPubPos decodes a stored position. Anything that isn't exactly
// 4 bytes (missing, truncated, or garbage) decodes as 0, same as a fresh
// counter.
func deserializeXPubPos(raw []byte) uint32 {
	if len(raw) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(raw)
}

// SetXPubPositionAtLeast records that xpub has been used up to pos. If the
// stored position is already >= pos, this is a no-op. Retries on
// compare-and-swap contention until it wins.
func (s *Store) SetXPubPositionAtLeast(ctx context.Context, xpub string, pos uint32) error {
	if !isValidXPubKey(xpub) {
		return storeerr.InvalidValue("xpub")
	}
	key := []byte(xpubposKey(xpub))

	for {
		prev, ok, err := s.engine.Get(ctx, key)
		if err != nil {
			return storeerr.IOf(err, "reading xpub position")
		}

		var expected []byte
		var next uint32
		if !ok {
			next = pos
		} else {
			expected = prev
			existing := deserializeXPubPos(prev)
			if existing == pos {
				return nil
			}
			if existing > pos {
				next = existing
			} else {
				next = pos
			}
		}

		swapped, err := s.engine.CompareAndSwap(ctx, key, expected, serializeXPubPos(next))
		if err != nil {
			return storeerr.IOf(err, "updating xpub position")
		}
		if swapped {
			return nil
		}
	}
}

// GetXPubPosition returns the known position for xpub, and false if none is
// recorded yet.
func (s *Store) GetXPubPosition(ctx context.Context, xpub string) (uint32, bool, error) {
	if !isValidXPubKey(xpub) {
		return 0, false, storeerr.InvalidValue("xpub")
	}
	raw, ok, err := s.engine.Get(ctx, []byte(xpubposKey(xpub)))
	if err != nil {
		return 0, false, storeerr.IOf(err, "reading xpub position")
	}
	if !ok {
		return 0, false, nil
	}
	return deserializeXPubPos(raw), true, nil
}

// GetNextXPubPosition returns the next unused position for xpub: one past
// the known position, or zero if nothing is recorded yet.
func (s *Store) GetNextXPubPosition(ctx context.Context, xpub string) (uint32, error) {
	current, ok, err := s.GetXPubPosition(ctx, xpub)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return current + 1, nil
}
