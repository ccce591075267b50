package domain

import (
	"fmt"
	"time"
)

// Sync defaults.
const (
	// DefaultIndexName names the index instance. Use a distinct name per
	// data source so each keeps its own client state.
	DefaultIndexName = "spotlight"

	// DefaultMaxItemsPerBatch is the per-call ceiling of the host index.
	DefaultMaxItemsPerBatch = 32767

	// DefaultFetchTimeout bounds FetchLastClientState. A timeout counts as a
	// fetch failure.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultFetchAttempts disables fetch retries.
	DefaultFetchAttempts = 1
)

// SyncConfig holds the tunables of the sync client.
type SyncConfig struct {
	// IndexName selects the index instance.
	IndexName string

	// DomainIdentifier is attached to every item.
	DomainIdentifier string

	// IndexPath is the location of the index database. Empty uses the data directory.
	IndexPath string

	// RecordsPath is a TOML file of records. Empty uses the built-in demo records.
	RecordsPath string

	// GitHubRepository reads the issues of an owner/name repository as
	// records. It cannot be combined with RecordsPath.
	GitHubRepository string

	// GitHubIssueState selects open, closed or all issues. Empty means open.
	GitHubIssueState string

	// MaxItemsPerBatch caps the items submitted in one batch.
	MaxItemsPerBatch int

	// FetchTimeout bounds one fetch of the client state.
	FetchTimeout time.Duration

	// FetchAttempts is how many times a failed fetch is tried before the
	// check fails open. 1 means no retry.
	FetchAttempts int

	// BatchesPerSecond paces batches on the lane. 0 means unlimited.
	BatchesPerSecond float64
}

// DefaultSyncConfig returns the default configuration.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		IndexName:        DefaultIndexName,
		DomainIdentifier: DefaultDomainIdentifier,
		MaxItemsPerBatch: DefaultMaxItemsPerBatch,
		FetchTimeout:     DefaultFetchTimeout,
		FetchAttempts:    DefaultFetchAttempts,
	}
}

// WithDefaults fills zero values from DefaultSyncConfig.
func (c SyncConfig) WithDefaults() SyncConfig {
	def := DefaultSyncConfig()
	if c.IndexName == "" {
		c.IndexName = def.IndexName
	}
	if c.DomainIdentifier == "" {
		c.DomainIdentifier = def.DomainIdentifier
	}
	if c.MaxItemsPerBatch == 0 {
		c.MaxItemsPerBatch = def.MaxItemsPerBatch
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	if c.FetchAttempts == 0 {
		c.FetchAttempts = def.FetchAttempts
	}
	return c
}

// Validate checks the configuration for values the sync client cannot use.
func (c SyncConfig) Validate() error {
	if c.IndexName == "" {
		return fmt.Errorf("%w: index name is required", ErrInvalidInput)
	}
	if c.MaxItemsPerBatch < 1 || c.MaxItemsPerBatch > DefaultMaxItemsPerBatch {
		return fmt.Errorf("%w: max items per batch must be between 1 and %d",
			ErrInvalidInput, DefaultMaxItemsPerBatch)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("%w: fetch timeout must not be negative", ErrInvalidInput)
	}
	if c.FetchAttempts < 1 {
		return fmt.Errorf("%w: fetch attempts must be at least 1", ErrInvalidInput)
	}
	if c.BatchesPerSecond < 0 {
		return fmt.Errorf("%w: batches per second must not be negative", ErrInvalidInput)
	}
	if c.RecordsPath != "" && c.GitHubRepository != "" {
		return fmt.Errorf("%w: records path and github repository are exclusive", ErrInvalidInput)
	}
	return nil
}
