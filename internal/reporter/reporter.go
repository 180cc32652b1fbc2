// Package reporter computes derived metrics, sorts the aggregated rows and
// renders them as GitHub-flavored Markdown tables.
package reporter

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"

	"pr-contrib-report/internal/domain"
)

var metricHeaders = map[domain.MetricKey]string{
	domain.MetricPRCreated:               "PRs Created",
	domain.MetricReviewsApproved:         "Reviews: Approved",
	domain.MetricReviewsChangesRequested: "Reviews: Changes Req.",
	domain.MetricReviewsCommented:        "Reviews: Commented",
	domain.MetricComments:                "Total Comments",
	domain.MetricAvgPRSize:               "Avg PR Size (loc)",
	domain.MetricAvgMergeTime:            "Avg Merge Time (h)",
	domain.MetricMedianMergeTime:         "Median Merge Time (h)",
}

// Section is one table of the report: a title and the user accumulators
// behind it.
type Section struct {
	Title string
	Users map[string]*domain.UserStats
}

// Options configures report generation.
type Options struct {
	Metrics         []domain.MetricKey
	SortBy          domain.MetricKey
	OutputFile      string
	PrintToTerminal bool
}

// Reporter renders aggregated results. It has no side effects beyond
// writing the report to the configured destinations.
type Reporter struct {
	opts   Options
	out    io.Writer
	logger *log.Logger
}

// New creates a new Reporter writing terminal output to stdout.
func New(opts Options, logger *log.Logger) *Reporter {
	if len(opts.Metrics) == 0 {
		opts.Metrics = domain.DefaultMetrics
	}
	if opts.SortBy == "" {
		opts.SortBy = domain.MetricPRCreated
	}
	return &Reporter{
		opts:   opts,
		out:    os.Stdout,
		logger: logger,
	}
}

// Generate renders all sections and writes the report to the terminal
// and/or the output file, per the options.
func (r *Reporter) Generate(sections []Section) error {
	var buf bytes.Buffer

	rendered := 0
	for _, sec := range sections {
		if r.renderSection(&buf, sec) {
			rendered++
		}
	}
	if rendered == 0 {
		fmt.Fprintln(&buf, "No data found.")
	}

	if r.opts.PrintToTerminal {
		if _, err := r.out.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write report to terminal: %w", err)
		}
	}
	if r.opts.OutputFile != "" {
		if err := os.WriteFile(r.opts.OutputFile, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to save report to %s: %w", r.opts.OutputFile, err)
		}
		r.logger.Printf("report saved to %s", r.opts.OutputFile)
	}
	return nil
}

type row struct {
	login string
	cells []string
	// sortValue is the value of the sort metric; undefined sorts last.
	sortValue float64
}

func (r *Reporter) renderSection(w io.Writer, sec Section) bool {
	var rows []row
	for login, s := range sec.Users {
		if !s.Active() {
			continue
		}
		rw := row{login: login, sortValue: math.Inf(-1)}
		keep := false
		for _, key := range r.opts.Metrics {
			v, ok := metricValue(s, key)
			rw.cells = append(rw.cells, metricCell(key, v, ok))
			if ok && v > 0 {
				keep = true
			}
		}
		if v, ok := metricValue(s, r.opts.SortBy); ok {
			rw.sortValue = v
		}
		// Users whose activity falls entirely outside the selected
		// columns are dropped.
		if keep {
			rows = append(rows, rw)
		}
	}
	if len(rows) == 0 {
		return false
	}

	// Descending by the configured metric, ties broken by login.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].sortValue != rows[j].sortValue {
			return rows[i].sortValue > rows[j].sortValue
		}
		return rows[i].login < rows[j].login
	})

	fmt.Fprintf(w, "\nStats for %s:\n", sec.Title)

	headers := []string{"User"}
	for _, key := range r.opts.Metrics {
		headers = append(headers, metricHeaders[key])
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	for _, rw := range rows {
		table.Append(append([]string{rw.login}, rw.cells...))
	}
	table.Render()
	fmt.Fprintln(w)
	return true
}

// metricValue computes the value of one metric for one user. The second
// return value is false when the metric is undefined for the user, which is
// distinct from zero.
func metricValue(s *domain.UserStats, key domain.MetricKey) (float64, bool) {
	switch key {
	case domain.MetricPRCreated:
		return float64(s.PRsCreated), true
	case domain.MetricReviewsApproved:
		return float64(s.ReviewsApproved), true
	case domain.MetricReviewsChangesRequested:
		return float64(s.ReviewsChangesRequested), true
	case domain.MetricReviewsCommented:
		return float64(s.ReviewsCommented), true
	case domain.MetricComments:
		return float64(s.Comments), true
	case domain.MetricAvgPRSize:
		if s.SizedPRs == 0 {
			return 0, false
		}
		return float64(s.LinesChanged) / float64(s.SizedPRs), true
	case domain.MetricAvgMergeTime:
		if len(s.MergeTimesHours) == 0 {
			return 0, false
		}
		m, err := stats.Mean(s.MergeTimesHours)
		if err != nil {
			return 0, false
		}
		return m, true
	case domain.MetricMedianMergeTime:
		if len(s.MergeTimesHours) == 0 {
			return 0, false
		}
		m, err := stats.Median(s.MergeTimesHours)
		if err != nil {
			return 0, false
		}
		return m, true
	default:
		return 0, false
	}
}

func metricCell(key domain.MetricKey, v float64, ok bool) string {
	if !ok {
		return "-"
	}
	switch key {
	case domain.MetricAvgMergeTime, domain.MetricMedianMergeTime:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%d", int(math.Round(v)))
	}
}
