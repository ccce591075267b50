// Package services implements the driving port interfaces.
// Services contain the sync protocol and orchestrate calls to driven
// ports (adapters).
//
// Every mutation of the search index goes through a single Synchronizer
// lane, so batches never overlap and client state writes are strictly
// ordered. The Coordinator decides when to republish; it never talks to
// the index's mutation methods directly.
package services
