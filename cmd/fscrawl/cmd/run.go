package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/fscrawl/internal/logger"
	"github.com/dbsmedya/fscrawl/internal/orchestrator"
	"github.com/dbsmedya/fscrawl/internal/session"
)

const treeServiceBaseURL = "https://www.familysearch.org"

var runFlags crawlFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a new crawl (default command)",
	Long: `Run starts a fresh BFS crawl from the given seed individuals, or from
the logged-in user's own person id when --individuals is omitted.

Example:
  fscrawl run --username jdoe --individuals LZXR-1Q2 --hopcount 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCrawl(cmd, &runFlags, false)
	},
}

func init() {
	addCrawlFlags(runCmd, &runFlags)
	rootCmd.AddCommand(runCmd)
}

// runCrawl is shared by `run` and `resume`: the only difference is
// whether an empty frontier is reseeded when no queues hold state yet.
func runCrawl(cmd *cobra.Command, f *crawlFlags, resume bool) error {
	for _, id := range f.individuals {
		if err := orchestrator.ValidateSeeds([]string{id}); err != nil {
			return &ExitError{Code: 2, Err: err}
		}
	}

	cfg, err := buildConfig(f)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("init logger: %w", err)}
	}
	log.Infow("effective configuration",
		"hop_count", cfg.HopCount,
		"outdir", cfg.OutDir,
		"basename", cfg.Basename,
		"requests_per_second", cfg.Throttle.RequestsPerSecond,
		"person_batch_size", cfg.Throttle.PersonBatchSize,
		"strict_resolve", cfg.Resolution.Strict,
	)

	if f.username == "" {
		return &ExitError{Code: 2, Err: fmt.Errorf("--username is required")}
	}
	password, err := resolvePassword(f)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	opts := orchestrator.Options{
		Seeds:   f.individuals,
		Resume:  resume,
		Auth:    session.NewFamilySearchAuth(),
		BaseURL: treeServiceBaseURL,
		Out:     os.Stderr,
	}
	creds := orchestrator.Credentials{Username: f.username, Password: password}

	lastCompleted, err := orchestrator.Run(context.Background(), cfg, creds, opts, log)
	if err != nil {
		log.Errorw("crawl failed", "error", err, "last_completed_iteration", lastCompleted)
		fmt.Fprintf(os.Stderr, "fatal: %v\nlast completed iteration: %d (use `fscrawl resume` to continue)\n", err, lastCompleted)
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			return &ExitError{Code: 2, Err: err}
		}
		return &ExitError{Code: 1, Err: err}
	}
	log.Infow("crawl finished", "last_completed_iteration", lastCompleted)
	return nil
}
