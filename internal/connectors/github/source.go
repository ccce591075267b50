package github

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.RecordSource = (*Source)(nil)

// maxDescription caps the description taken from an issue body, in runes.
const maxDescription = 280

// Issue states accepted by WithState.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// Source reads the issues of one repository as records.
type Source struct {
	client *Client
	owner  string
	repo   string
	state  string
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithState selects which issues are listed. The default is StateOpen.
func WithState(state string) SourceOption {
	return func(s *Source) {
		s.state = state
	}
}

// ParseRepository splits "owner/name".
func ParseRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepository, repository)
	}
	return owner, repo, nil
}

// NewSource creates a source for repository, given as "owner/name".
func NewSource(client *Client, repository string, opts ...SourceOption) (*Source, error) {
	owner, repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}

	s := &Source{client: client, owner: owner, repo: repo, state: StateOpen}
	for _, opt := range opts {
		opt(s)
	}

	switch s.state {
	case StateOpen, StateClosed, StateAll:
	default:
		return nil, fmt.Errorf("%w: issue state %q", domain.ErrInvalidInput, s.state)
	}
	return s, nil
}

// Repository returns "owner/name".
func (s *Source) Repository() string {
	return s.owner + "/" + s.repo
}

// List returns the repository's issues, oldest first. Pull requests are
// skipped.
func (s *Source) List(ctx context.Context) ([]domain.Record, error) {
	opts := &gh.IssueListByRepoOptions{
		State:     s.state,
		Sort:      "created",
		Direction: "asc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	issues, err := s.client.ListIssues(ctx, s.owner, s.repo, opts)
	if err != nil {
		return nil, fmt.Errorf("list issues of %s: %w", s.Repository(), err)
	}

	records := make([]domain.Record, 0, len(issues))
	for _, issue := range issues {
		// The issues endpoint also returns pull requests
		if issue.IsPullRequest() {
			continue
		}
		records = append(records, issueRecord(issue))
	}
	return records, nil
}

// Get returns the issue with the given number.
func (s *Source) Get(ctx context.Context, id string) (*domain.Record, error) {
	number, err := strconv.Atoi(id)
	if err != nil || number <= 0 {
		return nil, fmt.Errorf("%w: issue %q", domain.ErrNotFound, id)
	}

	issue, err := s.client.GetIssue(ctx, s.owner, s.repo, number)
	if err != nil {
		return nil, fmt.Errorf("issue %d of %s: %w", number, s.Repository(), err)
	}
	if issue.IsPullRequest() {
		return nil, fmt.Errorf("%w: %d is a pull request", domain.ErrNotFound, number)
	}

	r := issueRecord(issue)
	return &r, nil
}

// issueRecord projects an issue into a record.
func issueRecord(issue *gh.Issue) domain.Record {
	keywords := make([]string, 0, len(issue.Labels)+1)
	for _, l := range issue.Labels {
		keywords = append(keywords, l.GetName())
	}
	if login := issue.GetUser().GetLogin(); login != "" {
		keywords = append(keywords, login)
	}

	return domain.Record{
		ID:          strconv.Itoa(issue.GetNumber()),
		Title:       issue.GetTitle(),
		Description: summarise(issue.GetBody()),
		Keywords:    keywords,
	}
}

// summarise returns the first paragraph of body as plain text, cut to
// maxDescription runes.
func summarise(body string) string {
	body = stripMarkdown(strings.ReplaceAll(body, "\r\n", "\n"))
	if para, _, ok := strings.Cut(body, "\n\n"); ok {
		body = para
	}
	body = strings.Join(strings.Fields(body), " ")

	if utf8.RuneCountInString(body) <= maxDescription {
		return body
	}
	runes := []rune(body)
	return strings.TrimSpace(string(runes[:maxDescription-1])) + "…"
}
