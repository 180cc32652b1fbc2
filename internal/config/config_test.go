package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pr-contrib-report/internal/domain"
	apperrors "pr-contrib-report/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "test-token")
	path := writeConfig(t, "organization: acme\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.Token)
	assert.Equal(t, "acme", cfg.Organization)
	assert.Equal(t, "pr_created", cfg.SortBy)
	assert.Equal(t, []string{"release"}, cfg.SkipLabels)
	assert.Equal(t, "skipped_repos.txt", cfg.SkipListFile)
	assert.False(t, cfg.PrintToTerminal)
	assert.Equal(t, domain.DefaultMetrics, cfg.MetricKeys())

	// Date range defaults to the last 30 days.
	assert.WithinDuration(t, time.Now(), cfg.End, time.Minute)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -30), cfg.Start, time.Minute)
}

func TestLoad_FullDocument(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "test-token")
	path := writeConfig(t, `
organization: acme
repositories:
  - acme/api
  - acme/web
start_date: "2024-01-01"
end_date: "2024-03-31"
skip_users:
  - bot-account
skip_labels:
  - Release
  - Dependencies
metrics:
  - pr_created
  - avg_merge_time
sort_by: avg_merge_time
output_file: report.md
print_to_terminal: true
combined: true
skip_list_file: .skipped
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"acme/api", "acme/web"}, cfg.Repositories)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Start)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), cfg.End)
	assert.Equal(t, []string{"release", "dependencies"}, cfg.SkipLabels, "skip labels are lowercased")
	assert.Equal(t, []domain.MetricKey{domain.MetricPRCreated, domain.MetricAvgMergeTime}, cfg.MetricKeys())
	assert.Equal(t, "avg_merge_time", cfg.SortBy)
	assert.Equal(t, "report.md", cfg.OutputFile)
	assert.True(t, cfg.PrintToTerminal)
	assert.True(t, cfg.Combined)
	assert.Equal(t, ".skipped", cfg.SkipListFile)
}

func TestLoad_ExplicitEmptySkipLabels(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "test-token")
	path := writeConfig(t, "organization: acme\nskip_labels: []\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.SkipLabels, "an explicitly empty list disables label skipping")
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		token    string
		content  string
		wantAuth bool
	}{
		{
			name:     "missing token",
			content:  "organization: acme\n",
			wantAuth: true,
		},
		{
			name:    "neither organization nor repositories",
			token:   "test-token",
			content: "print_to_terminal: true\n",
		},
		{
			name:    "inverted date range",
			token:   "test-token",
			content: "organization: acme\nstart_date: \"2024-03-31\"\nend_date: \"2024-01-01\"\n",
		},
		{
			name:    "invalid start date",
			token:   "test-token",
			content: "organization: acme\nstart_date: \"01/02/2024\"\n",
		},
		{
			name:    "unknown sort key",
			token:   "test-token",
			content: "organization: acme\nsort_by: popularity\n",
		},
		{
			name:    "unknown metric",
			token:   "test-token",
			content: "organization: acme\nmetrics:\n  - pr_created\n  - velocity\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("GITHUB_TOKEN", tc.token)
			path := writeConfig(t, tc.content)

			_, err := Load(path)
			require.Error(t, err)
			if tc.wantAuth {
				assert.True(t, apperrors.IsAuthentication(err))
			} else {
				assert.True(t, apperrors.IsConfiguration(err))
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "test-token")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}
