// Package aggregator folds fetched pull request records into per-user
// activity accumulators.
package aggregator

import (
	"strings"

	"pr-contrib-report/internal/domain"
)

// botSuffix matches GitHub App logins such as "dependabot[bot]". Users
// matching it never appear in an accumulator.
const botSuffix = "[bot]"

// Aggregator accumulates user activity per repository. Records are folded
// one at a time; accumulation is commutative, so folding order does not
// affect the totals.
type Aggregator struct {
	skipUsers  map[string]bool
	skipLabels map[string]bool
	byRepo     map[string]map[string]*domain.UserStats
}

// New creates a new Aggregator. Label matching is case-insensitive; user
// matching is exact.
func New(skipUsers, skipLabels []string) *Aggregator {
	a := &Aggregator{
		skipUsers:  make(map[string]bool, len(skipUsers)),
		skipLabels: make(map[string]bool, len(skipLabels)),
		byRepo:     make(map[string]map[string]*domain.UserStats),
	}
	for _, u := range skipUsers {
		a.skipUsers[u] = true
	}
	for _, l := range skipLabels {
		a.skipLabels[strings.ToLower(l)] = true
	}
	return a
}

// Add folds one pull request and its nested reviews and comments into the
// accumulators for the given repository.
func (a *Aggregator) Add(repo domain.RepositoryRef, pr *domain.PullRequest) {
	users := a.repoUsers(repo.FullName())
	skipSize := pr.HasAnyLabel(a.skipLabels)

	if !a.skipped(pr.Author) {
		s := a.user(users, pr.Author)
		s.PRsCreated++
		if !skipSize {
			s.LinesChanged += pr.Additions + pr.Deletions
			s.SizedPRs++
			if pr.Merged() {
				s.MergeTimesHours = append(s.MergeTimesHours, pr.MergedAt.Sub(pr.CreatedAt).Hours())
			}
		}
	}

	for _, rv := range pr.Reviews {
		if a.skipped(rv.Author) {
			continue
		}
		s := a.user(users, rv.Author)
		switch rv.State {
		case domain.ReviewApproved:
			s.ReviewsApproved++
		case domain.ReviewChangesRequested:
			s.ReviewsChangesRequested++
		case domain.ReviewCommented:
			s.ReviewsCommented++
		}
	}

	for _, cm := range pr.Comments {
		if a.skipped(cm.Author) {
			continue
		}
		a.user(users, cm.Author).Comments++
	}
}

// Results returns the accumulators keyed by repository full name, then by
// user login.
func (a *Aggregator) Results() map[string]map[string]*domain.UserStats {
	return a.byRepo
}

// Combined merges the accumulators of all repositories into a single
// per-user map.
func (a *Aggregator) Combined() map[string]*domain.UserStats {
	merged := make(map[string]*domain.UserStats)
	for _, users := range a.byRepo {
		for login, s := range users {
			m, ok := merged[login]
			if !ok {
				m = &domain.UserStats{Login: login}
				merged[login] = m
			}
			m.PRsCreated += s.PRsCreated
			m.ReviewsApproved += s.ReviewsApproved
			m.ReviewsChangesRequested += s.ReviewsChangesRequested
			m.ReviewsCommented += s.ReviewsCommented
			m.Comments += s.Comments
			m.LinesChanged += s.LinesChanged
			m.SizedPRs += s.SizedPRs
			m.MergeTimesHours = append(m.MergeTimesHours, s.MergeTimesHours...)
		}
	}
	return merged
}

func (a *Aggregator) skipped(login string) bool {
	return login == "" || a.skipUsers[login] || strings.HasSuffix(login, botSuffix)
}

func (a *Aggregator) repoUsers(repo string) map[string]*domain.UserStats {
	users, ok := a.byRepo[repo]
	if !ok {
		users = make(map[string]*domain.UserStats)
		a.byRepo[repo] = users
	}
	return users
}

func (a *Aggregator) user(users map[string]*domain.UserStats, login string) *domain.UserStats {
	s, ok := users[login]
	if !ok {
		s = &domain.UserStats{Login: login}
		users[login] = s
	}
	return s
}
