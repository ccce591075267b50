package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
)

// Ensure ActivityResolver implements the interface.
var _ driving.ActivityService = (*ActivityResolver)(nil)

// ActivityResolver maps a selected search result back to its record.
type ActivityResolver struct {
	source driven.RecordSource
}

// NewActivityResolver creates a resolver backed by source.
func NewActivityResolver(source driven.RecordSource) *ActivityResolver {
	return &ActivityResolver{source: source}
}

// Continue extracts the item identifier from payload and returns the
// matching record.
func (a *ActivityResolver) Continue(ctx context.Context, payload map[string]any) (*domain.Record, error) {
	id, ok := domain.ActivityIdentifier(payload)
	if !ok {
		return nil, fmt.Errorf("%w: payload has no %q", domain.ErrInvalidInput, domain.ActivityIdentifierKey)
	}

	record, err := a.source.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}
	return record, nil
}
