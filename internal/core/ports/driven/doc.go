// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SearchIndex: The external batch index. A black box that stores items
//     and the client state attached to the last completed batch.
//   - RecordSource: Read-only access to the records being published.
//   - ConfigStore: Application configuration.
//
// # Optional Interfaces
//
// These can be absent - the application degrades gracefully:
//
//   - ReindexNotifier: Reindex requests raised by the index. Without it,
//     only startup checks and explicit commands trigger republishing.
//   - ItemQuerier: Read access to indexed items, used for inspection only.
//   - RecordWatcher: Change notifications from the record source.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
