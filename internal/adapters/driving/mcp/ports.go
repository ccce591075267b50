package mcp

import (
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Inspector reports status and searches the index.
	Inspector driving.IndexInspector

	// Coordinator republishes records.
	Coordinator driving.ReindexCoordinator

	// Synchronizer deletes items.
	Synchronizer driving.BatchSynchronizer

	// Activity resolves records by identifier.
	Activity driving.ActivityService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Inspector == nil {
		return ErrMissingInspector
	}
	// Mutating tools and the record resource are optional
	return nil
}
