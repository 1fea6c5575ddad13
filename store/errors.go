package store

import (
	"github.com/emerald-wallet/state/internal/storeerr"
)

// Re-exported so callers of this package don't need to import
// internal/storeerr directly.
type (
	// ErrCode classifies a store-level failure.
	ErrCode = storeerr.Code
)

const (
	ErrCodeIO           = storeerr.CodeIO
	ErrCodeInvalidID    = storeerr.CodeInvalidID
	ErrCodeInvalidValue = storeerr.CodeInvalidValue
	ErrCodeCorrupted    = storeerr.CodeCorrupted
)

// StoreError is the concrete error type every exported operation returns
// on failure.
type StoreError = storeerr.Error

// ErrNotFound is returned by single-record lookups that find nothing.
var ErrNotFound = storeerr.ErrNotFound

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return storeerr.IsNotFound(err)
}

// IsCorrupted reports whether err is a corrupted-value error.
func IsCorrupted(err error) bool {
	return storeerr.IsCorrupted(err)
}
