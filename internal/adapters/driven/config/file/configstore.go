package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// DirName is the configuration directory under the user's home.
const DirName = ".sercha-indexsync"

// fileConfig is the on-disk layout of config.toml.
type fileConfig struct {
	Index   indexSection   `toml:"index"`
	Sync    syncSection    `toml:"sync"`
	Records recordsSection `toml:"records"`
}

type indexSection struct {
	Name   string `toml:"name,omitempty"`
	Domain string `toml:"domain,omitempty"`
	Path   string `toml:"path,omitempty"`
}

type syncSection struct {
	MaxItemsPerBatch int     `toml:"max_items_per_batch,omitempty"`
	FetchTimeout     string  `toml:"fetch_timeout,omitempty"`
	FetchAttempts    int     `toml:"fetch_attempts,omitempty"`
	BatchesPerSecond float64 `toml:"batches_per_second,omitempty"`
}

type recordsSection struct {
	Path        string `toml:"path,omitempty"`
	GitHub      string `toml:"github,omitempty"`
	GitHubState string `toml:"github_state,omitempty"`
}

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Configuration is stored in config.toml within the config directory.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.sercha-indexsync/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, DirName)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &ConfigStore{filePath: filepath.Join(configDir, "config.toml")}, nil
}

// Load reads the configuration. Missing keys, or a missing file, take
// their defaults. The result is validated.
func (s *ConfigStore) Load() (domain.SyncConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return domain.DefaultSyncConfig(), nil
	}
	if err != nil {
		return domain.SyncConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return domain.SyncConfig{}, fmt.Errorf("%w: parsing %s: %w", domain.ErrInvalidInput, s.filePath, err)
	}

	cfg := domain.SyncConfig{
		IndexName:        fc.Index.Name,
		DomainIdentifier: fc.Index.Domain,
		IndexPath:        fc.Index.Path,
		RecordsPath:      fc.Records.Path,
		GitHubRepository: fc.Records.GitHub,
		GitHubIssueState: fc.Records.GitHubState,
		MaxItemsPerBatch: fc.Sync.MaxItemsPerBatch,
		FetchAttempts:    fc.Sync.FetchAttempts,
		BatchesPerSecond: fc.Sync.BatchesPerSecond,
	}
	if fc.Sync.FetchTimeout != "" {
		d, err := time.ParseDuration(fc.Sync.FetchTimeout)
		if err != nil {
			return domain.SyncConfig{}, fmt.Errorf("%w: sync.fetch_timeout: %w", domain.ErrInvalidInput, err)
		}
		cfg.FetchTimeout = d
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return domain.SyncConfig{}, err
	}
	return cfg, nil
}

// Save writes cfg to the TOML file with restricted permissions.
func (s *ConfigStore) Save(cfg domain.SyncConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	fc := fileConfig{
		Index: indexSection{
			Name:   cfg.IndexName,
			Domain: cfg.DomainIdentifier,
			Path:   cfg.IndexPath,
		},
		Sync: syncSection{
			MaxItemsPerBatch: cfg.MaxItemsPerBatch,
			FetchAttempts:    cfg.FetchAttempts,
			BatchesPerSecond: cfg.BatchesPerSecond,
		},
		Records: recordsSection{
			Path:        cfg.RecordsPath,
			GitHub:      cfg.GitHubRepository,
			GitHubState: cfg.GitHubIssueState,
		},
	}
	if cfg.FetchTimeout > 0 {
		fc.Sync.FetchTimeout = cfg.FetchTimeout.String()
	}

	data, err := toml.Marshal(fc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
