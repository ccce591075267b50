package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/sercha-indexsync/internal/adapters/driven/config/file"
	idxmem "github.com/custodia-labs/sercha-indexsync/internal/adapters/driven/index/memory"
	recmem "github.com/custodia-labs/sercha-indexsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-indexsync/internal/adapters/driven/storage/recordfile"
	"github.com/custodia-labs/sercha-indexsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-indexsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-indexsync/internal/connectors/github"
	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexsync/internal/core/services"
	"github.com/custodia-labs/sercha-indexsync/internal/logger"
)

// tokenEnv names the environment variable holding a GitHub token.
const tokenEnv = "GITHUB_TOKEN"

// indexBackend is what the services need from an index implementation.
type indexBackend interface {
	driven.SearchIndex
	driven.ReindexNotifier
	driven.ItemQuerier
}

// bootstrap loads configuration and wires the adapters into services.
func bootstrap(opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	cfg, err := configStore.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg = applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	index, requests, closeIndex, err := openIndex(cfg, opts)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeIndex)

	source, watcher, err := openRecords(cfg)
	if err != nil {
		_ = closeAll()
		return nil, err
	}

	sync := services.NewSynchronizer(index, cfg)
	closers = append(closers, sync.Close)

	coord := services.NewCoordinator(sync, index, source, cfg)
	logger.Debug("Index %s ready, records from %s", cfg.IndexName, recordsLabel(cfg))

	return &cli.Services{
		Coordinator:  coord,
		Synchronizer: sync,
		Inspector:    services.NewInspector(sync, index, index, source, coord),
		Activity:     services.NewActivityResolver(source),
		Notifier:     index,
		Watcher:      watcher,
		Requests:     requests,
		Config:       configStore,
		Close:        closeAll,
	}, nil
}

// applyOverrides lets command-line flags win over the config file.
func applyOverrides(cfg domain.SyncConfig, opts cli.Options) domain.SyncConfig {
	if opts.IndexName != "" {
		cfg.IndexName = opts.IndexName
	}
	if opts.RecordsPath != "" {
		cfg.RecordsPath = opts.RecordsPath
		cfg.GitHubRepository = ""
	}
	if opts.GitHub != "" {
		cfg.GitHubRepository = opts.GitHub
		cfg.RecordsPath = ""
	}
	return cfg.WithDefaults()
}

// openIndex opens the sqlite index, or an in-memory one when ephemeral.
// requests is nil for the in-memory index.
func openIndex(cfg domain.SyncConfig, opts cli.Options) (indexBackend, cli.RequestStore, func() error, error) {
	if opts.Ephemeral {
		mem := idxmem.New(idxmem.WithName(cfg.IndexName))
		return mem, nil, mem.Close, nil
	}

	var (
		store *sqlite.Store
		err   error
	)
	switch {
	case opts.DataDir != "":
		store, err = sqlite.NewStore(opts.DataDir)
	case cfg.IndexPath != "":
		store, err = sqlite.Open(cfg.IndexPath)
	default:
		store, err = sqlite.NewStore("")
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening index: %w", err)
	}

	idx := store.Index(cfg.IndexName)
	closeIndex := func() error {
		return errors.Join(idx.Close(), store.Close())
	}
	return idx, idx, closeIndex, nil
}

// openRecords returns the configured record source. The GitHub source
// cannot be watched, so its watcher is nil.
func openRecords(cfg domain.SyncConfig) (driven.RecordSource, driven.RecordWatcher, error) {
	switch {
	case cfg.GitHubRepository != "":
		client, err := github.NewClient(context.Background(), os.Getenv(tokenEnv))
		if err != nil {
			return nil, nil, err
		}
		var opts []github.SourceOption
		if cfg.GitHubIssueState != "" {
			opts = append(opts, github.WithState(cfg.GitHubIssueState))
		}
		src, err := github.NewSource(client, cfg.GitHubRepository, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("opening github records: %w", err)
		}
		return src, nil, nil
	case cfg.RecordsPath != "":
		src := recordfile.New(cfg.RecordsPath)
		return src, src, nil
	default:
		demo := recmem.NewDemoRecordSource()
		return demo, demo, nil
	}
}

func recordsLabel(cfg domain.SyncConfig) string {
	switch {
	case cfg.GitHubRepository != "":
		return "github.com/" + cfg.GitHubRepository
	case cfg.RecordsPath != "":
		return cfg.RecordsPath
	default:
		return "demo records"
	}
}
