package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
)

var (
	// ErrInvalidRepository is returned for a repository not in owner/name form.
	ErrInvalidRepository = errors.New("github: repository must be owner/name")

	// ErrUnauthorized means the token is missing or cannot read the repository.
	ErrUnauthorized = errors.New("github: unauthorized")
)

// RateLimitError reports that the API refuses calls until ResetAt.
type RateLimitError struct {
	Op        string
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: %s: rate limited until %s", e.Op, e.ResetAt.Format(time.RFC3339))
}

// APIError is a failed API call. It matches ErrUnauthorized for 401 and
// domain.ErrNotFound for 404 under errors.Is.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return nil
	}
}
