package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Client wraps the go-github client with rate limiting.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// WithBaseURL points the client at another API root, such as a GitHub
// Enterprise server.
func WithBaseURL(raw string) ClientOption {
	return func(c *Client) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse base url: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.gh.BaseURL = u
		return nil
	}
}

// WithRequestRate sets the proactive request rate.
func WithRequestRate(r rate.Limit) ClientOption {
	return func(c *Client) error {
		c.rateLimiter = NewRateLimiter(r)
		return nil
	}
}

// NewClient creates a GitHub client. An empty token makes unauthenticated
// requests.
func NewClient(ctx context.Context, token string, opts ...ClientOption) (*Client, error) {
	httpClient := &http.Client{Timeout: DefaultTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = DefaultTimeout
	}

	c := &Client{
		gh:          gh.NewClient(httpClient),
		rateLimiter: NewRateLimiter(DefaultRate),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ListIssues lists every issue of a repository matching opts, following
// pagination.
func (c *Client) ListIssues(
	ctx context.Context, owner, repo string, opts *gh.IssueListByRepoOptions,
) ([]*gh.Issue, error) {
	var allIssues []*gh.Issue

	for {
		select {
		case <-ctx.Done():
			return allIssues, ctx.Err()
		default:
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, c.wrapError(err, "list issues")
		}

		c.updateRateLimitFromResponse(resp)
		allIssues = append(allIssues, issues...)

		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}

	return allIssues, nil
}

// GetIssue fetches a single issue.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*gh.Issue, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	issue, resp, err := c.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, c.wrapError(err, "get issue")
	}

	c.updateRateLimitFromResponse(resp)
	return issue, nil
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError maps go-github failures onto RateLimitError and APIError.
func (c *Client) wrapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var limited *gh.RateLimitError
	if errors.As(err, &limited) {
		return &RateLimitError{
			Op:        op,
			ResetAt:   limited.Rate.Reset.Time,
			Remaining: limited.Rate.Remaining,
			Limit:     limited.Rate.Limit,
		}
	}

	var resp *gh.ErrorResponse
	if errors.As(err, &resp) && resp.Response != nil {
		return &APIError{Op: op, StatusCode: resp.Response.StatusCode, Message: resp.Message}
	}

	return fmt.Errorf("%s: %w", op, err)
}
