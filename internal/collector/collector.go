package collector

import (
	"context"
	"time"

	"pr-contrib-report/internal/domain"
)

// Client defines the interface for querying GitHub
type Client interface {
	// VerifyToken checks the token against the API and returns the
	// authenticated login
	VerifyToken(ctx context.Context) (string, error)

	// ListOrgRepositories retrieves all repositories for an organization
	ListOrgRepositories(ctx context.Context, org string) ([]domain.RepositoryRef, error)

	// CheckAccess verifies that the repository can be read. A 403 or 404
	// response yields an access error the caller records into the skip list
	CheckAccess(ctx context.Context, repo domain.RepositoryRef) error

	// PullRequests returns a lazy iterator over the repository's pull
	// requests created within the date range
	PullRequests(repo domain.RepositoryRef, since, until time.Time) PullRequestIterator
}

// PullRequestIterator yields pull requests one at a time, fetching pages
// from the API as needed. It is finite and not restartable once consumed.
type PullRequestIterator interface {
	// Next advances to the next pull request. It returns false when the
	// sequence is exhausted or an error occurred.
	Next(ctx context.Context) bool

	// PullRequest returns the current pull request. Valid only after a
	// call to Next that returned true.
	PullRequest() *domain.PullRequest

	// Err returns the error that terminated iteration, if any.
	Err() error
}
