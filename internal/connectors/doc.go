// Package connectors provides record sources backed by remote services.
// Each connector reads records from one service and implements
// driven.RecordSource, so the coordinator can republish them like any
// local source.
package connectors
