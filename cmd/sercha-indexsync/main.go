// Command sercha-indexsync keeps a local search index in sync with a
// record source.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/sercha-indexsync/internal/adapters/driving/cli"
)

// version is set via -ldflags at build time.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.Execute(context.Background())
	if shutdownErr := cli.Shutdown(); err == nil {
		err = shutdownErr
	}
	if err != nil {
		os.Exit(1)
	}
}
