// Package domain contains the core data structures for the application.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// RepositoryRef identifies a single repository by owner and name.
// It is immutable once resolved.
type RepositoryRef struct {
	Owner string
	Name  string
}

// ParseRepositoryRef parses a repository given in "owner/name" form.
func ParseRepositoryRef(s string) (RepositoryRef, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" {
		return RepositoryRef{}, fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return RepositoryRef{Owner: owner, Name: name}, nil
}

// FullName returns the repository in "owner/name" form.
func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// ReviewState represents the outcome of a pull request review.
type ReviewState string

const (
	ReviewApproved         ReviewState = "approved"
	ReviewChangesRequested ReviewState = "changes_requested"
	ReviewCommented        ReviewState = "commented"
)

// Review is a single review submitted on a pull request.
type Review struct {
	Author string
	State  ReviewState
}

// Comment is a single comment on a pull request. Issue-style comments and
// review-thread comments are treated identically.
type Comment struct {
	Author string
}

// PullRequest carries everything the aggregator needs for one pull request,
// including its nested reviews and comments. Instances are fetched once per
// run and discarded after aggregation.
type PullRequest struct {
	Number    int
	Author    string
	CreatedAt time.Time
	MergedAt  *time.Time
	Additions int
	Deletions int
	Labels    []string
	Reviews   []Review
	Comments  []Comment
}

// Merged reports whether the pull request has been merged.
func (p *PullRequest) Merged() bool {
	return p.MergedAt != nil
}

// HasAnyLabel reports whether any of the pull request's labels is present in
// the given set. The set is expected to hold lowercased names; labels are
// lowercased before matching.
func (p *PullRequest) HasAnyLabel(set map[string]bool) bool {
	for _, l := range p.Labels {
		if set[strings.ToLower(l)] {
			return true
		}
	}
	return false
}
