package domain

// UserStats accumulates per-user activity totals during aggregation.
// An instance is created lazily on a user's first contribution and is never
// persisted across runs.
type UserStats struct {
	Login                   string
	PRsCreated              int
	ReviewsApproved         int
	ReviewsChangesRequested int
	ReviewsCommented        int
	Comments                int

	// LinesChanged and SizedPRs hold the size total and its divisor.
	// Pull requests carrying a skip-label contribute to neither.
	LinesChanged int
	SizedPRs     int

	// MergeTimesHours holds one sample per merged, non-skip-labeled pull
	// request authored by the user.
	MergeTimesHours []float64
}

// Active reports whether the user has any recorded activity at all.
func (s *UserStats) Active() bool {
	return s.PRsCreated > 0 ||
		s.ReviewsApproved > 0 ||
		s.ReviewsChangesRequested > 0 ||
		s.ReviewsCommented > 0 ||
		s.Comments > 0
}
