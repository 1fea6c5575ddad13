// Package storeconfig centralises the store's tunable knobs in one file of
// typed constants, the way the teacher's internal/config avoids scattering
// hardcoded values across packages.
package storeconfig

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Schema version compiled into this build. Store.Open compares this
// against the persisted version key and runs migrations when behind.
const CurrentSchemaVersion = 1

// Default and maximum TTLs, component G (allowance) and H (cache).
const (
	AllowanceDefaultTTL = 24 * time.Hour
	AllowanceMaxTTL     = 30 * AllowanceDefaultTTL

	CacheDefaultTTL    = 7 * 24 * time.Hour
	CacheMaxTTL        = 30 * 24 * time.Hour
	CachePurgeInterval = time.Hour
)

// DefaultPageLimit is the page size used when a caller leaves
// PageQuery.Limit unset. Mirrors internal/indexing.DefaultPageLimit; kept
// here too so operators configuring the CLI have one place to look.
const DefaultPageLimit = 100

// DefaultPath returns the platform-specific default data directory,
// adapted from the teacher's expandPath helper in internal/storage/storage.go.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Emerald", "state"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, ".emerald", "state"), nil
	default:
		return filepath.Join(home, ".emerald", "state"), nil
	}
}
