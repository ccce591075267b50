package driven

import "github.com/custodia-labs/sercha-indexsync/internal/core/domain"

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
type ConfigStore interface {
	// Load reads configuration from storage.
	// A missing file yields the defaults, not an error.
	Load() (domain.SyncConfig, error)

	// Save persists configuration to storage.
	Save(cfg domain.SyncConfig) error

	// Path returns the configuration file path.
	Path() string
}
