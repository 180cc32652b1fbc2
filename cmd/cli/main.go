package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"pr-contrib-report/internal/aggregator"
	"pr-contrib-report/internal/collector"
	"pr-contrib-report/internal/config"
	"pr-contrib-report/internal/domain"
	apperrors "pr-contrib-report/internal/errors"
	"pr-contrib-report/internal/reporter"
	"pr-contrib-report/internal/resolver"
	"pr-contrib-report/internal/skiplist"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pr-contrib-report",
	Short: "Per-contributor GitHub pull request activity report",
	Long: `pr-contrib-report queries the GitHub API for the pull requests, reviews
and comments of a configured repository set and date range, aggregates
per-contributor activity metrics, and renders them as Markdown tables to the
console and/or a file.`,
	SilenceUsage: true,
	RunE:         runReport,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runReport(cmd *cobra.Command, args []string) error {
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()

	client, err := collector.NewGitHubClient(cfg.Token, logger)
	if err != nil {
		return err
	}

	login, err := client.VerifyToken(ctx)
	if err != nil {
		return err
	}
	logger.Printf("authenticated as %s", login)

	skip, err := skiplist.Load(cfg.SkipListFile)
	if err != nil {
		return err
	}

	repos, err := resolver.New(client, logger).Resolve(ctx, cfg, skip)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		fmt.Println("No repositories found to process.")
		return nil
	}

	agg := aggregator.New(cfg.SkipUsers, cfg.SkipLabels)

	for _, repo := range repos {
		fmt.Printf("Fetching data for %s...\n", repo.FullName())

		if err := client.CheckAccess(ctx, repo); err != nil {
			if apperrors.IsAccess(err) {
				fmt.Printf("  Skipping %s: %v\n", repo.FullName(), err)
				if addErr := skip.Add(repo.FullName()); addErr != nil {
					logger.Printf("failed to record %s in skip list: %v", repo.FullName(), addErr)
				}
				continue
			}
			return err
		}

		it := client.PullRequests(repo, cfg.Start, cfg.End)
		fetched := 0
		for it.Next(ctx) {
			agg.Add(repo, it.PullRequest())
			fetched++
		}
		if err := it.Err(); err != nil {
			// A mid-fetch failure aborts the whole run; results already
			// aggregated are not emitted.
			return err
		}
		fmt.Printf("  Processed %d pull requests.\n", fetched)
	}

	rep := reporter.New(reporter.Options{
		Metrics:         cfg.MetricKeys(),
		SortBy:          domain.MetricKey(cfg.SortBy),
		OutputFile:      cfg.OutputFile,
		PrintToTerminal: cfg.PrintToTerminal,
	}, logger)

	if err := rep.Generate(buildSections(agg, cfg.Combined)); err != nil {
		return err
	}
	if cfg.OutputFile != "" {
		fmt.Printf("\nReport saved to %s\n", cfg.OutputFile)
	}
	return nil
}

// buildSections turns the accumulators into report sections, one per
// repository sorted by full name, or a single merged section.
func buildSections(agg *aggregator.Aggregator, combined bool) []reporter.Section {
	if combined {
		return []reporter.Section{{Title: "all repositories", Users: agg.Combined()}}
	}

	byRepo := agg.Results()
	names := make([]string, 0, len(byRepo))
	for name := range byRepo {
		names = append(names, name)
	}
	sort.Strings(names)

	sections := make([]reporter.Section, 0, len(names))
	for _, name := range names {
		sections = append(sections, reporter.Section{Title: name, Users: byRepo[name]})
	}
	return sections
}
