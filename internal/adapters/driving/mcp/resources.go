package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for index sync resources.
	uriScheme = "sercha-indexsync://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Current index and sync status",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "records/{recordId}",
		Name:        "record",
		Description: "A source record, as opened from a search result",
		MIMEType:    "application/json",
	}, s.handleRecordResource)
}

// handleStatusResource returns the status snapshot as JSON.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	_, status, err := s.handleStatus(ctx, nil, StatusInput{})
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}
	return jsonResource(req.Params.URI, status)
}

// handleRecordResource resolves a record the way a selected search result
// is continued.
func (s *Server) handleRecordResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Activity == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract recordId from URI: sercha-indexsync://records/{recordId}
	id := extractRecordID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	record, err := s.ports.Activity.Continue(ctx, map[string]any{domain.ActivityIdentifierKey: id})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving record: %w", err)
	}

	type recordInfo struct {
		ID          string   `json:"id"`
		Title       string   `json:"title"`
		Description string   `json:"description,omitempty"`
		Keywords    []string `json:"keywords,omitempty"`
	}
	return jsonResource(req.Params.URI, recordInfo{
		ID:          record.ID,
		Title:       record.Title,
		Description: record.Description,
		Keywords:    record.Keywords,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRecordID extracts the record ID from a URI like sercha-indexsync://records/{recordId}.
func extractRecordID(uri string) string {
	const prefix = uriScheme + "records/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
