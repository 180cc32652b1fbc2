package domain

// MetricKey identifies a reportable metric column.
type MetricKey string

const (
	MetricPRCreated               MetricKey = "pr_created"
	MetricReviewsApproved         MetricKey = "reviews_approved"
	MetricReviewsChangesRequested MetricKey = "reviews_changes_requested"
	MetricReviewsCommented        MetricKey = "reviews_commented"
	MetricComments                MetricKey = "comments"
	MetricAvgPRSize               MetricKey = "avg_pr_size"
	MetricAvgMergeTime            MetricKey = "avg_merge_time"
	MetricMedianMergeTime         MetricKey = "median_merge_time"
)

// DefaultMetrics is the column set used when the configuration lists no
// metrics of its own.
var DefaultMetrics = []MetricKey{
	MetricPRCreated,
	MetricReviewsApproved,
	MetricReviewsChangesRequested,
	MetricReviewsCommented,
	MetricComments,
	MetricAvgPRSize,
	MetricAvgMergeTime,
}

var knownMetrics = map[MetricKey]bool{
	MetricPRCreated:               true,
	MetricReviewsApproved:         true,
	MetricReviewsChangesRequested: true,
	MetricReviewsCommented:        true,
	MetricComments:                true,
	MetricAvgPRSize:               true,
	MetricAvgMergeTime:            true,
	MetricMedianMergeTime:         true,
}

// ValidMetric reports whether key names a known metric.
func ValidMetric(key MetricKey) bool {
	return knownMetrics[key]
}
