// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants inspect the search index, search it, and trigger
// reindexing or deletion through the same single lane the CLI uses.
package mcp

import "errors"

// ErrMissingInspector is returned when the inspector is not provided.
var ErrMissingInspector = errors.New("mcp: index inspector is required")

// errNotConfigured is returned by tools whose port was not provided.
var errNotConfigured = errors.New("mcp: operation not configured")
