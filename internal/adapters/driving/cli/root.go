// Package cli provides the cobra command tree for sercha-indexsync.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexsync/internal/logger"
)

// version is set at build time.
var version = "dev"

// RequestStore records reindex requests for any process serving the index.
type RequestStore interface {
	// RequestReindex stores a request for ids, or everything when empty.
	RequestReindex(ctx context.Context, ids ...string) (string, error)

	// Rebuild rebuilds the index's search tables and requests a full republish.
	Rebuild(ctx context.Context) (string, error)
}

// Services holds everything the commands drive.
type Services struct {
	Coordinator  driving.ReindexCoordinator
	Synchronizer driving.BatchSynchronizer
	Inspector    driving.IndexInspector
	Activity     driving.ActivityService

	// Notifier delivers reindex requests to the watch command.
	Notifier driven.ReindexNotifier

	// Watcher reports record changes to the watch command. Nil when the
	// record source cannot be watched.
	Watcher driven.RecordWatcher

	// Requests is nil when the index does not persist requests.
	Requests RequestStore

	// Config is the configuration file backing these services.
	Config driven.ConfigStore

	// Close releases the services after the command finishes.
	Close func() error
}

// Options are the global flags passed to the bootstrap function.
type Options struct {
	ConfigDir   string
	DataDir     string
	RecordsPath string
	GitHub      string
	IndexName   string
	Verbose     bool
	Ephemeral   bool
}

// BootstrapFunc builds the services for one command invocation.
type BootstrapFunc func(opts Options) (*Services, error)

var (
	bootstrap BootstrapFunc
	options   Options

	coordinator   driving.ReindexCoordinator
	synchronizer  driving.BatchSynchronizer
	inspector     driving.IndexInspector
	activity      driving.ActivityService
	notifier      driven.ReindexNotifier
	watcher       driven.RecordWatcher
	requestStore  RequestStore
	configStore   driven.ConfigStore
	closeServices func() error
)

var rootCmd = &cobra.Command{
	Use:   "sercha-indexsync",
	Short: "Keep a local search index in sync with a record source",
	Long: `sercha-indexsync publishes records to a search index in batches and
tracks whether the index has caught up with a one-byte client state.

On startup it reads the last client state. If the index is not marked
finished, every record is republished. The watch command also serves
reindex requests from the index and follows changes to the records file.`,
	SilenceUsage:       true,
	PersistentPreRunE:  runBootstrap,
	PersistentPostRunE: runShutdown,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&options.ConfigDir, "config", "", "config directory (default ~/.sercha-indexsync)")
	flags.StringVar(&options.DataDir, "data-dir", "", "directory holding the index database")
	flags.StringVar(&options.RecordsPath, "records", "", "TOML file of records (default built-in demo records)")
	flags.StringVar(&options.GitHub, "github", "", "read records from the issues of a GitHub owner/name repository")
	flags.StringVar(&options.IndexName, "index", "", "index instance name")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&options.Ephemeral, "ephemeral", false, "use an in-memory index")
}

// SetBootstrap sets the function that builds services before each command.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	if options.Verbose {
		logger.SetVerbose(true)
	}
	if bootstrap == nil || cmd == versionCmd {
		return nil
	}

	svc, err := bootstrap(options)
	if err != nil {
		return fmt.Errorf("starting: %w", err)
	}

	coordinator = svc.Coordinator
	synchronizer = svc.Synchronizer
	inspector = svc.Inspector
	activity = svc.Activity
	notifier = svc.Notifier
	watcher = svc.Watcher
	requestStore = svc.Requests
	configStore = svc.Config
	closeServices = svc.Close
	return nil
}

func runShutdown(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	fn := closeServices
	closeServices = nil
	if err := fn(); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

var errNotConfigured = errors.New("not configured")

func notConfigured(name string) error {
	return fmt.Errorf("%s service %w", name, errNotConfigured)
}

// Shutdown releases services left open when a command failed before its
// post-run hook.
func Shutdown() error {
	return runShutdown(nil, nil)
}
