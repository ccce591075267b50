package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
)

func TestExtractRecordID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid URI",
			uri:      "sercha-indexsync://records/3",
			expected: "3",
		},
		{
			name:     "id with slash",
			uri:      "sercha-indexsync://records/a/b",
			expected: "a/b",
		},
		{
			name:     "wrong scheme",
			uri:      "sercha://records/3",
			expected: "",
		},
		{
			name:     "status URI",
			uri:      "sercha-indexsync://status",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractRecordID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleStatusResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns status json", func(t *testing.T) {
		inspector := &mockInspector{
			status: &driving.IndexStatus{IndexName: "spotlight", Available: true, ItemCount: -1},
		}
		server := newTestServer(t, &Ports{Inspector: inspector})

		result, err := server.handleStatusResource(ctx, makeReadResourceRequest("sercha-indexsync://status"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var status StatusOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &status))
		assert.Equal(t, "spotlight", status.IndexName)
		assert.Equal(t, -1, status.ItemCount)
	})

	t.Run("returns error from inspector", func(t *testing.T) {
		server := newTestServer(t, &Ports{Inspector: &mockInspector{err: errors.New("boom")}})

		_, err := server.handleStatusResource(ctx, makeReadResourceRequest("sercha-indexsync://status"))

		assert.ErrorContains(t, err, "boom")
	})
}

func TestServer_handleRecordResource(t *testing.T) {
	ctx := context.Background()
	activity := &mockActivity{records: map[string]domain.Record{
		"3": {ID: "3", Title: "3", Description: "this is 3"},
	}}

	t.Run("returns record", func(t *testing.T) {
		server := newTestServer(t, &Ports{Inspector: &mockInspector{}, Activity: activity})

		result, err := server.handleRecordResource(ctx, makeReadResourceRequest("sercha-indexsync://records/3"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"description": "this is 3"`)
	})

	t.Run("unknown record is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Inspector: &mockInspector{}, Activity: activity})

		_, err := server.handleRecordResource(ctx, makeReadResourceRequest("sercha-indexsync://records/9"))

		assert.Error(t, err)
	})

	t.Run("missing id is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Inspector: &mockInspector{}, Activity: activity})

		_, err := server.handleRecordResource(ctx, makeReadResourceRequest("sercha-indexsync://records/"))

		assert.Error(t, err)
	})

	t.Run("no activity service", func(t *testing.T) {
		server := newTestServer(t, &Ports{Inspector: &mockInspector{}})

		_, err := server.handleRecordResource(ctx, makeReadResourceRequest("sercha-indexsync://records/3"))

		assert.Error(t, err)
	})
}
