package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
)

// defaultSearchLimit applies when the caller gives no limit.
const defaultSearchLimit = 10

// StatusInput is the input schema for the index_status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the index_status tool.
type StatusOutput struct {
	IndexName   string `json:"index_name"`
	Available   bool   `json:"available"`
	ClientState string `json:"client_state"`
	Phase       string `json:"phase"`
	ItemCount   int    `json:"item_count"`
	RecordCount int    `json:"record_count"`
}

// SearchInput is the input schema for the search_index tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to match against indexed items"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search_index tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search hit.
type SearchResultOutput struct {
	ID          string   `json:"id"`
	Domain      string   `json:"domain"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Score       float64  `json:"score"`
}

// ReindexInput is the input schema for the reindex tool.
type ReindexInput struct {
	IDs []string `json:"ids,omitempty" jsonschema:"record identifiers to republish; omit to republish everything"`
}

// ReindexOutput is the output schema for the reindex tool.
type ReindexOutput struct {
	RequestID string `json:"request_id"`
	Requested int    `json:"requested"`
	Matched   int    `json:"matched"`
}

// DeleteInput is the input schema for the delete_items tool.
type DeleteInput struct {
	IDs []string `json:"ids" jsonschema:"identifiers of the items to remove from the index"`
}

// DeleteOutput is the output schema for the delete_items tool.
type DeleteOutput struct {
	BatchID string `json:"batch_id"`
	Deleted int    `json:"deleted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the index name, client state, sync phase and item counts",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_index",
		Description: "Search items in the index",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reindex",
		Description: "Republish records to the index, all of them or only the given identifiers",
	}, s.handleReindex)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_items",
		Description: "Remove items from the index by identifier",
	}, s.handleDelete)
}

// handleStatus handles the index_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	status, err := s.ports.Inspector.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	return nil, StatusOutput{
		IndexName:   status.IndexName,
		Available:   status.Available,
		ClientState: status.State.String(),
		Phase:       status.Phase.String(),
		ItemCount:   status.ItemCount,
		RecordCount: status.RecordCount,
	}, nil
}

// handleSearch handles the search_index tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	hits, err := s.ports.Inspector.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}
	for i := range hits {
		item := hits[i].Item
		output.Results[i] = SearchResultOutput{
			ID:          item.UniqueIdentifier,
			Domain:      item.DomainIdentifier,
			Title:       item.Title,
			Description: item.Description,
			Keywords:    item.Keywords,
			Score:       hits[i].Score,
		}
	}
	return nil, output, nil
}

// handleReindex handles the reindex tool invocation. The call is handled
// as a reindex request so it is logged and acknowledged like one.
func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	if s.ports.Coordinator == nil {
		return nil, ReindexOutput{}, fmt.Errorf("reindex: %w", errNotConfigured)
	}

	req := domain.ReindexRequest{ID: uuid.New().String(), IDs: input.IDs}
	ack := s.ports.Coordinator.HandleReindexRequest(ctx, req)
	if ack.Err != nil {
		return nil, ReindexOutput{}, ack.Err
	}

	return nil, ReindexOutput{
		RequestID: ack.RequestID,
		Requested: ack.Requested,
		Matched:   ack.Matched,
	}, nil
}

// handleDelete handles the delete_items tool invocation.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if s.ports.Synchronizer == nil {
		return nil, DeleteOutput{}, fmt.Errorf("delete_items: %w", errNotConfigured)
	}
	if len(input.IDs) == 0 {
		return nil, DeleteOutput{}, fmt.Errorf("%w: ids is required", domain.ErrInvalidInput)
	}

	res, err := driving.Await(ctx, func(done func(domain.BatchResult)) error {
		return s.ports.Synchronizer.DeleteItems(input.IDs, done)
	})
	if err != nil {
		return nil, DeleteOutput{}, err
	}
	if res.Err != nil {
		return nil, DeleteOutput{}, res.Err
	}

	return nil, DeleteOutput{BatchID: res.BatchID, Deleted: res.Count}, nil
}
