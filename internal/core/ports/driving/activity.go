package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
)

// ActivityService resolves a search result the user selected.
type ActivityService interface {
	// Continue extracts the item identifier from payload and returns the
	// matching record.
	Continue(ctx context.Context, payload map[string]any) (*domain.Record, error)
}
