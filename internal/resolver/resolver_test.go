package resolver

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pr-contrib-report/internal/config"
	"pr-contrib-report/internal/domain"
	apperrors "pr-contrib-report/internal/errors"
	"pr-contrib-report/internal/skiplist"
)

// mockLister is a mock implementation of the RepoLister interface.
type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListOrgRepositories(ctx context.Context, org string) ([]domain.RepositoryRef, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RepositoryRef), args.Error(1)
}

func testConfig() *config.Config {
	now := time.Now()
	return &config.Config{
		Start: now.AddDate(0, 0, -30),
		End:   now,
	}
}

func emptySkipList(t *testing.T) *skiplist.SkipList {
	t.Helper()
	s, err := skiplist.Load(filepath.Join(t.TempDir(), "skipped.txt"))
	require.NoError(t, err)
	return s
}

func newTestResolver(lister RepoLister) *Resolver {
	return New(lister, log.New(io.Discard, "", 0))
}

func TestResolve_ExplicitAndDiscoveredAreUnioned(t *testing.T) {
	cfg := testConfig()
	cfg.Organization = "acme"
	cfg.Repositories = []string{"acme/web", "other/tool"}

	lister := new(mockLister)
	lister.On("ListOrgRepositories", mock.Anything, "acme").Return([]domain.RepositoryRef{
		{Owner: "acme", Name: "web"}, // also listed explicitly
		{Owner: "acme", Name: "api"},
		{Owner: "acme", Name: "zed"},
	}, nil)

	repos, err := newTestResolver(lister).Resolve(context.Background(), cfg, emptySkipList(t))
	require.NoError(t, err)

	// Explicit order first, then discovered repos sorted by full name,
	// duplicates dropped.
	assert.Equal(t, []domain.RepositoryRef{
		{Owner: "acme", Name: "web"},
		{Owner: "other", Name: "tool"},
		{Owner: "acme", Name: "api"},
		{Owner: "acme", Name: "zed"},
	}, repos)
	lister.AssertExpectations(t)
}

func TestResolve_SkipListExcludesWithoutNetworkCall(t *testing.T) {
	cfg := testConfig()
	cfg.Repositories = []string{"org/repo1", "org/repo2"}

	skip := emptySkipList(t)
	require.NoError(t, skip.Add("org/repo2"))

	// No organization is configured, so the lister must never be called.
	lister := new(mockLister)

	repos, err := newTestResolver(lister).Resolve(context.Background(), cfg, skip)
	require.NoError(t, err)
	assert.Equal(t, []domain.RepositoryRef{{Owner: "org", Name: "repo1"}}, repos)
	lister.AssertNotCalled(t, "ListOrgRepositories", mock.Anything, mock.Anything)
}

func TestResolve_MalformedRepositoryEntry(t *testing.T) {
	cfg := testConfig()
	cfg.Repositories = []string{"not-a-repo"}

	_, err := newTestResolver(new(mockLister)).Resolve(context.Background(), cfg, emptySkipList(t))
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestResolve_InaccessibleOrgKeepsExplicitRepos(t *testing.T) {
	cfg := testConfig()
	cfg.Organization = "locked"
	cfg.Repositories = []string{"org/repo1"}

	lister := new(mockLister)
	lister.On("ListOrgRepositories", mock.Anything, "locked").
		Return(nil, apperrors.NewAccessError("locked", "organization listing returned 403"))

	repos, err := newTestResolver(lister).Resolve(context.Background(), cfg, emptySkipList(t))
	require.NoError(t, err)
	assert.Equal(t, []domain.RepositoryRef{{Owner: "org", Name: "repo1"}}, repos)
}

func TestResolve_OrgNetworkErrorIsFatal(t *testing.T) {
	cfg := testConfig()
	cfg.Organization = "acme"

	lister := new(mockLister)
	lister.On("ListOrgRepositories", mock.Anything, "acme").
		Return(nil, apperrors.NewNetworkError("", assert.AnError))

	_, err := newTestResolver(lister).Resolve(context.Background(), cfg, emptySkipList(t))
	assert.Error(t, err)
}
