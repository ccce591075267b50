// Package sqlite provides a search index stored in SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One Store holds any number of named indexes; each keeps
// its own items, client state and reindex requests.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Items live in a regular table mirrored into an FTS5 table by
// triggers, so search results are ranked with bm25.
//
// # Reindex Requests
//
// Requests are rows in reindex_requests. Any process, for example the CLI
// request and rebuild commands, can insert one; the process serving the
// index polls for them and deletes each row when it is acknowledged.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-indexsync/data/index.db
package sqlite
