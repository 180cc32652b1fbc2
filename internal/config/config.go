package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"pr-contrib-report/internal/domain"
	apperrors "pr-contrib-report/internal/errors"
)

const dateLayout = "2006-01-02"

// Config holds the application configuration. It is loaded once at startup
// from the YAML config file and the environment, and is immutable afterwards.
type Config struct {
	Organization    string   `yaml:"organization"`
	Repositories    []string `yaml:"repositories"`
	StartDate       string   `yaml:"start_date"`
	EndDate         string   `yaml:"end_date"`
	SkipUsers       []string `yaml:"skip_users"`
	SkipLabels      []string `yaml:"skip_labels"`
	Metrics         []string `yaml:"metrics"`
	SortBy          string   `yaml:"sort_by"`
	OutputFile      string   `yaml:"output_file"`
	PrintToTerminal bool     `yaml:"print_to_terminal"`
	Combined        bool     `yaml:"combined"`
	SkipListFile    string   `yaml:"skip_list_file"`

	// Resolved during Load, not part of the YAML document.
	Token string    `yaml:"-"`
	Start time.Time `yaml:"-"`
	End   time.Time `yaml:"-"`
}

// Load reads the configuration file at path, loads .env into the
// environment, and validates everything that can be checked without a
// network call.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read config %s: %v", path, err))
	}

	cfg.Token = os.Getenv("GITHUB_TOKEN")
	if cfg.Token == "" {
		return nil, apperrors.NewAuthenticationError("GITHUB_TOKEN not found in environment variables", nil)
	}

	cfg.applyDefaults()

	if err := cfg.parseDates(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SortBy == "" {
		c.SortBy = string(domain.MetricPRCreated)
	}
	if c.SkipListFile == "" {
		c.SkipListFile = "skipped_repos.txt"
	}
	// An explicitly empty skip_labels list disables label skipping; only an
	// absent key gets the default.
	if c.SkipLabels == nil {
		c.SkipLabels = []string{"release"}
	}
	for i, l := range c.SkipLabels {
		c.SkipLabels[i] = strings.ToLower(l)
	}
}

func (c *Config) parseDates() error {
	now := time.Now()
	c.End = now
	c.Start = now.AddDate(0, 0, -30)

	if c.EndDate != "" {
		t, err := time.Parse(dateLayout, c.EndDate)
		if err != nil {
			return apperrors.NewConfigurationError(fmt.Sprintf("invalid end_date %q: expected YYYY-MM-DD", c.EndDate))
		}
		c.End = t
	}
	if c.StartDate != "" {
		t, err := time.Parse(dateLayout, c.StartDate)
		if err != nil {
			return apperrors.NewConfigurationError(fmt.Sprintf("invalid start_date %q: expected YYYY-MM-DD", c.StartDate))
		}
		c.Start = t
	} else if c.EndDate != "" {
		c.Start = c.End.AddDate(0, 0, -30)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Organization == "" && len(c.Repositories) == 0 {
		return apperrors.NewConfigurationError("config must have a 'repositories' list or an 'organization'")
	}
	if c.Start.After(c.End) {
		return apperrors.NewConfigurationError(fmt.Sprintf(
			"start_date %s is after end_date %s",
			c.Start.Format(dateLayout), c.End.Format(dateLayout)))
	}
	if !domain.ValidMetric(domain.MetricKey(c.SortBy)) {
		return apperrors.NewConfigurationError(fmt.Sprintf("unknown sort_by metric %q", c.SortBy))
	}
	for _, m := range c.Metrics {
		if !domain.ValidMetric(domain.MetricKey(m)) {
			return apperrors.NewConfigurationError(fmt.Sprintf("unknown metric %q", m))
		}
	}
	return nil
}

// MetricKeys returns the configured metric columns, falling back to the
// default set when none are configured.
func (c *Config) MetricKeys() []domain.MetricKey {
	if len(c.Metrics) == 0 {
		return domain.DefaultMetrics
	}
	keys := make([]domain.MetricKey, 0, len(c.Metrics))
	for _, m := range c.Metrics {
		keys = append(keys, domain.MetricKey(m))
	}
	return keys
}
