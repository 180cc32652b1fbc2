// Package resolver builds the final set of repositories to query from the
// explicit repository list and organization auto-discovery.
package resolver

import (
	"context"
	"log"
	"sort"

	"pr-contrib-report/internal/config"
	"pr-contrib-report/internal/domain"
	apperrors "pr-contrib-report/internal/errors"
	"pr-contrib-report/internal/skiplist"
)

// RepoLister lists the repositories of an organization.
type RepoLister interface {
	ListOrgRepositories(ctx context.Context, org string) ([]domain.RepositoryRef, error)
}

// Resolver merges explicit and auto-discovered repositories into an
// ordered, deduplicated set with skip-list exclusions applied.
type Resolver struct {
	lister RepoLister
	logger *log.Logger
}

// New creates a new Resolver instance.
func New(lister RepoLister, logger *log.Logger) *Resolver {
	return &Resolver{
		lister: lister,
		logger: logger,
	}
}

// Resolve returns the repositories to query. Explicit repositories keep
// their configured order; discovered repositories follow, sorted by full
// name. Repositories present in the skip list are excluded without any
// network call for them.
func (r *Resolver) Resolve(ctx context.Context, cfg *config.Config, skip *skiplist.SkipList) ([]domain.RepositoryRef, error) {
	seen := make(map[string]bool)
	var repos []domain.RepositoryRef

	add := func(ref domain.RepositoryRef) {
		full := ref.FullName()
		if seen[full] {
			return
		}
		seen[full] = true
		if skip.Contains(full) {
			r.logger.Printf("skipping %s: recorded in skip list", full)
			return
		}
		repos = append(repos, ref)
	}

	for _, s := range cfg.Repositories {
		ref, err := domain.ParseRepositoryRef(s)
		if err != nil {
			return nil, apperrors.NewConfigurationError(err.Error())
		}
		add(ref)
	}

	if cfg.Organization != "" {
		discovered, err := r.lister.ListOrgRepositories(ctx, cfg.Organization)
		if err != nil {
			// An inaccessible organization only loses the discovered
			// repositories; explicit ones are still processed.
			if apperrors.IsAccess(err) {
				r.logger.Printf("cannot list repositories for %s: %v", cfg.Organization, err)
			} else {
				return nil, err
			}
		}
		sort.Slice(discovered, func(i, j int) bool {
			return discovered[i].FullName() < discovered[j].FullName()
		})
		for _, ref := range discovered {
			add(ref)
		}
	}

	r.logger.Printf("resolved %d repositories", len(repos))
	return repos, nil
}
