package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v55/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"pr-contrib-report/internal/domain"
	apperrors "pr-contrib-report/internal/errors"
)

// searchPageSize is deliberately small: every node carries nested reviews,
// comments and review threads, and larger pages hit the API's query
// complexity limit.
const searchPageSize = 20

// GitHubClient implements Client against the GitHub REST and GraphQL APIs.
// Both underlying clients share one authenticated HTTP client wrapped in a
// secondary-rate-limit waiter.
type GitHubClient struct {
	rest    *github.Client
	graphql *githubv4.Client
	logger  *log.Logger
}

// NewGitHubClient creates a new GitHubClient authenticated with token.
func NewGitHubClient(token string, logger *log.Logger) (*GitHubClient, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubClient{
		rest:    github.NewClient(httpClient),
		graphql: githubv4.NewClient(httpClient),
		logger:  logger,
	}, nil
}

// VerifyToken checks the token by fetching the authenticated user.
func (c *GitHubClient) VerifyToken(ctx context.Context) (string, error) {
	var login string
	err := c.withRateLimitRetry(ctx, func() error {
		user, resp, err := c.rest.Users.Get(ctx, "")
		if err != nil {
			if isRateLimit(err) {
				return err
			}
			if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				return apperrors.NewAuthenticationError("GitHub rejected the token", err)
			}
			return err
		}
		login = user.GetLogin()
		return nil
	})
	if err != nil {
		if apperrors.IsAuthentication(err) || apperrors.IsRateLimited(err) {
			return "", err
		}
		return "", apperrors.NewNetworkError("", err)
	}
	return login, nil
}

// ListOrgRepositories retrieves all repositories for an organization.
func (c *GitHubClient) ListOrgRepositories(ctx context.Context, org string) ([]domain.RepositoryRef, error) {
	c.logger.Printf("fetching repositories for organization %s", org)

	var refs []domain.RepositoryRef
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		var repos []*github.Repository
		var resp *github.Response
		err := c.withRateLimitRetry(ctx, func() error {
			var err error
			repos, resp, err = c.rest.Repositories.ListByOrg(ctx, org, opts)
			return err
		})
		if err != nil {
			if apperrors.IsRateLimited(err) {
				return nil, err
			}
			if resp != nil && (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound) {
				return nil, apperrors.NewAccessError(org, fmt.Sprintf("organization listing returned %d", resp.StatusCode))
			}
			return nil, apperrors.NewNetworkError("", fmt.Errorf("failed to list repositories for %s: %w", org, err))
		}

		for _, repo := range repos {
			refs = append(refs, domain.RepositoryRef{Owner: org, Name: repo.GetName()})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.logger.Printf("found %d repositories in %s", len(refs), org)
	return refs, nil
}

// CheckAccess verifies that the repository can be read.
func (c *GitHubClient) CheckAccess(ctx context.Context, repo domain.RepositoryRef) error {
	err := c.withRateLimitRetry(ctx, func() error {
		_, resp, err := c.rest.Repositories.Get(ctx, repo.Owner, repo.Name)
		if err != nil {
			if isRateLimit(err) {
				return err
			}
			if resp != nil && (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound) {
				return apperrors.NewAccessError(repo.FullName(), fmt.Sprintf("repository returned %d", resp.StatusCode))
			}
			return err
		}
		return nil
	})
	if err == nil || apperrors.IsAccess(err) || apperrors.IsRateLimited(err) {
		return err
	}
	return apperrors.NewNetworkError(repo.FullName(), err)
}

// PullRequests returns a lazy iterator over the repository's pull requests
// created within the date range, newest page first as returned by search.
func (c *GitHubClient) PullRequests(repo domain.RepositoryRef, since, until time.Time) PullRequestIterator {
	const dateLayout = "2006-01-02"
	query := fmt.Sprintf("repo:%s is:pr created:%s..%s",
		repo.FullName(), since.Format(dateLayout), until.Format(dateLayout))
	return &prIterator{
		client: c,
		repo:   repo,
		query:  query,
	}
}

// prNode is the pull request shape requested from the search query: the
// pull request itself with its labels, reviews, issue comments and
// review-thread comments nested, so one page needs one round trip.
type prNode struct {
	Number    int
	Author    struct{ Login string }
	CreatedAt githubv4.DateTime
	MergedAt  *githubv4.DateTime
	Additions int
	Deletions int
	Labels    struct {
		Nodes []struct{ Name string }
	} `graphql:"labels(first: 20)"`
	Reviews struct {
		Nodes []struct {
			Author struct{ Login string }
			State  string
		}
	} `graphql:"reviews(first: 50)"`
	Comments struct {
		Nodes []struct {
			Author struct{ Login string }
		}
	} `graphql:"comments(first: 50)"`
	ReviewThreads struct {
		Nodes []struct {
			Comments struct {
				Nodes []struct {
					Author struct{ Login string }
				}
			} `graphql:"comments(first: 50)"`
		}
	} `graphql:"reviewThreads(first: 50)"`
}

// prSearchQuery pages through the pull requests of one repository.
type prSearchQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Nodes []struct {
			Typename    string `graphql:"__typename"`
			PullRequest prNode `graphql:"... on PullRequest"`
		}
	} `graphql:"search(query: $query, type: ISSUE, first: $pageSize, after: $cursor)"`
}

// prIterator pages through the GraphQL search results for one repository.
type prIterator struct {
	client *GitHubClient
	repo   domain.RepositoryRef
	query  string
	cursor *githubv4.String
	buf    []*domain.PullRequest
	cur    *domain.PullRequest
	done   bool
	err    error
}

func (it *prIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	for len(it.buf) == 0 {
		if it.done {
			return false
		}
		if err := it.fetchPage(ctx); err != nil {
			it.err = err
			return false
		}
	}
	it.cur = it.buf[0]
	it.buf = it.buf[1:]
	return true
}

func (it *prIterator) PullRequest() *domain.PullRequest {
	return it.cur
}

func (it *prIterator) Err() error {
	return it.err
}

func (it *prIterator) fetchPage(ctx context.Context) error {
	variables := map[string]interface{}{
		"query":    githubv4.String(it.query),
		"pageSize": githubv4.Int(searchPageSize),
		"cursor":   it.cursor,
	}

	var q prSearchQuery
	err := it.client.withRateLimitRetry(ctx, func() error {
		return it.client.graphql.Query(ctx, &q, variables)
	})
	if err != nil {
		if apperrors.IsRateLimited(err) {
			return err
		}
		return apperrors.NewNetworkError(it.repo.FullName(), fmt.Errorf("failed to execute search query: %w", err))
	}

	for _, node := range q.Search.Nodes {
		if node.Typename != "PullRequest" {
			continue
		}
		it.buf = append(it.buf, convertPullRequest(&node.PullRequest))
	}

	if q.Search.PageInfo.HasNextPage {
		it.cursor = githubv4.NewString(q.Search.PageInfo.EndCursor)
		it.client.logger.Printf("fetching next page for %s", it.repo.FullName())
	} else {
		it.done = true
	}
	return nil
}

func convertPullRequest(node *prNode) *domain.PullRequest {
	// A deleted account leaves a null author; attribute to "unknown" like
	// unattributed commits.
	author := node.Author.Login
	if author == "" {
		author = "unknown"
	}

	pr := &domain.PullRequest{
		Number:    node.Number,
		Author:    author,
		CreatedAt: node.CreatedAt.Time,
		Additions: node.Additions,
		Deletions: node.Deletions,
	}
	if node.MergedAt != nil {
		t := node.MergedAt.Time
		pr.MergedAt = &t
	}

	for _, l := range node.Labels.Nodes {
		pr.Labels = append(pr.Labels, l.Name)
	}

	for _, rv := range node.Reviews.Nodes {
		if rv.Author.Login == "" {
			continue
		}
		state, ok := convertReviewState(rv.State)
		if !ok {
			// PENDING and DISMISSED reviews carry no outcome.
			continue
		}
		pr.Reviews = append(pr.Reviews, domain.Review{
			Author: rv.Author.Login,
			State:  state,
		})
	}

	for _, cm := range node.Comments.Nodes {
		if cm.Author.Login == "" {
			continue
		}
		pr.Comments = append(pr.Comments, domain.Comment{Author: cm.Author.Login})
	}
	for _, thread := range node.ReviewThreads.Nodes {
		for _, cm := range thread.Comments.Nodes {
			if cm.Author.Login == "" {
				continue
			}
			pr.Comments = append(pr.Comments, domain.Comment{Author: cm.Author.Login})
		}
	}

	return pr
}

func convertReviewState(state string) (domain.ReviewState, bool) {
	switch state {
	case "APPROVED":
		return domain.ReviewApproved, true
	case "CHANGES_REQUESTED":
		return domain.ReviewChangesRequested, true
	case "COMMENTED":
		return domain.ReviewCommented, true
	default:
		return "", false
	}
}

// isRateLimit reports whether err is a primary or secondary rate limit
// response, which must never be classified as an access failure.
func isRateLimit(err error) bool {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	return errors.As(err, &abuseErr)
}

// withRateLimitRetry runs fn, sleeping until the reported reset instant and
// retrying whenever the API signals a primary rate limit. It retries
// indefinitely; any other error is returned as-is.
func (c *GitHubClient) withRateLimitRetry(ctx context.Context, fn func() error) error {
	for {
		err := fn()
		if err == nil {
			return nil
		}
		wait, ok := c.rateLimitWait(ctx, err)
		if !ok {
			return err
		}
		if wait < time.Second {
			wait = time.Second
		}
		c.logger.Printf("rate limit hit, sleeping %s until reset", wait.Round(time.Second))
		select {
		case <-ctx.Done():
			return apperrors.NewRateLimitedError("interrupted while waiting for rate limit reset", ctx.Err())
		case <-time.After(wait):
		}
	}
}

// rateLimitWait classifies err and returns how long to wait before retrying.
func (c *GitHubClient) rateLimitWait(ctx context.Context, err error) (time.Duration, bool) {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return time.Until(rateErr.Rate.Reset.Time), true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		if abuseErr.RetryAfter != nil {
			return *abuseErr.RetryAfter, true
		}
		return time.Minute, true
	}

	// GraphQL rate limit errors arrive as plain messages without a reset
	// time; ask the REST rate limit endpoint for the GraphQL reset instant.
	msg := err.Error()
	if strings.Contains(msg, "RATE_LIMITED") || strings.Contains(msg, "API rate limit exceeded") {
		if limits, _, lerr := c.rest.RateLimits(ctx); lerr == nil && limits.GetGraphQL() != nil {
			return time.Until(limits.GetGraphQL().Reset.Time), true
		}
		return time.Minute, true
	}
	return 0, false
}
