// Package driving defines the interfaces that infrastructure calls INTO core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI and MCP adapters depend on these interfaces, and core services
// implement them.
//
// # Interfaces
//
//   - BatchSynchronizer: Serialised add, delete and delete-all batches
//   - ReindexCoordinator: Startup checks and reindex requests
//   - IndexInspector: Read-only status and search
//   - ActivityService: Resolving a selected search result
//
// Operations report through callbacks. Await turns one into a blocking call.
//
// # Import Rules
//
//   - Can Import: domain and driven packages
//   - Cannot Import: Any adapter package, any service package
package driving
