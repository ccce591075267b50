// Package domain defines the core types for keeping an external search
// index in step with a local record source.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Record: A source record owned by the application
//   - IndexItem: The projection of a Record pushed to the index
//   - ClientState: The opaque sync marker the index stores for us
//   - BatchOp / BatchResult: One begin/end bounded group of mutations
//   - ReindexRequest / ReindexAck: The index asking us to republish items
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
