// Package indexing implements the lexicographic string encodings and the
// cursor/page types every composite index key and paginated query is built
// from.
package indexing

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// maxTimestamp is the spec's fixed pivot for descending-timestamp encoding:
// 9_999_999_999_999 ms, comfortably past any real wall-clock value this
// store will see but small enough to fit the fixed 13-digit field.
const maxTimestamp = 9_999_999_999_999

// DescTimestamp encodes ts so that ascending byte-lex order of the result
// matches descending chronological order: newest first. The result is
// always 14 characters: 'D' followed by 13 zero-padded decimal digits of
// (maxTimestamp - ts).
func DescTimestamp(ts uint64) string {
	v := maxTimestamp - ts
	if ts > maxTimestamp {
		v = 0
	}
	return fmt.Sprintf("D%013d", v)
}

// AscU64 encodes v so ascending byte-lex order matches ascending numeric
// order: 'A' followed by 20 zero-padded decimal digits.
func AscU64(v uint64) string {
	return fmt.Sprintf("A%020d", v)
}

// DescU64 encodes v so ascending byte-lex order matches descending numeric
// order: 'D' followed by 20 zero-padded decimal digits of (math.MaxUint64 - v).
func DescU64(v uint64) string {
	return fmt.Sprintf("D%020d", ^uint64(0)-v)
}

// BoolTF encodes true before false in ascending order ("recent-first").
func BoolTF(b bool) string {
	if b {
		return "T0"
	}
	return "T1"
}

// BoolFT encodes false before true in ascending order.
func BoolFT(b bool) string {
	if b {
		return "T1"
	}
	return "T0"
}

// TxidAsPos extracts the first 8 bytes (16 hex characters) of a tx id,
// stripping an optional "0x" prefix and left-padding with zeros if the id
// is shorter, then interprets them big-endian as a uint64. A hex-decode
// failure returns 0, matching the original's recall-first, never-fail
// posture for sort keys (a bad id just sorts with everything else at 0).
func TxidAsPos(id string) uint64 {
	s := strings.TrimPrefix(strings.TrimPrefix(id, "0x"), "0X")
	if len(s) < 16 {
		s = strings.Repeat("0", 16-len(s)) + s
	} else {
		s = s[:16]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return 0
	}
	var v uint64
	for _, by := range b {
		v = v<<8 | uint64(by)
	}
	return v
}
