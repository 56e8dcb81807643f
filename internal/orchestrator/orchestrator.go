// Package orchestrator binds the Session, Store, Engine, Control Plane,
// and Telemetry into the run/resume entry point spec.md §4.9 describes.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dbsmedya/fscrawl/internal/config"
	"github.com/dbsmedya/fscrawl/internal/control"
	"github.com/dbsmedya/fscrawl/internal/engine"
	"github.com/dbsmedya/fscrawl/internal/logger"
	"github.com/dbsmedya/fscrawl/internal/model"
	"github.com/dbsmedya/fscrawl/internal/session"
	"github.com/dbsmedya/fscrawl/internal/store"
	"github.com/dbsmedya/fscrawl/internal/telemetry"
)

// Credentials carries the login username/password. Password is never
// logged, written to the settings file, or included in run_configuration.
type Credentials struct {
	Username string
	Password string
}

// Options is everything the orchestrator needs beyond *config.Config:
// the seed set, whether to resume, and the authenticator/output wiring
// the core never hardcodes.
type Options struct {
	Seeds   []string
	Resume  bool
	Auth    session.Authenticator
	BaseURL string
	Out     io.Writer // progress indicator output
}

// Run executes spec.md §4.9's orchestration sequence: build the session,
// open the store, seed the frontier, iterate up to HopCount, then resolve.
// Returns the last-completed iteration (for the "resume" hint in fatal
// error output) and any error.
func Run(ctx context.Context, cfg *config.Config, creds Credentials, opts Options, log *logger.Logger) (lastCompletedIteration int, err error) {
	lastCompletedIteration = -1

	settingsPath := filepath.Join(cfg.OutDir, cfg.Basename+".settings")
	prior, loadErr := config.LoadSettings(settingsPath)
	if loadErr != nil {
		log.Warnw("read settings file", "error", loadErr)
	}
	if err := writeSettingsFile(settingsPath, cfg, prior.DefaultStartID); err != nil {
		log.Warnw("write settings file", "error", err)
	}

	sess := session.New(opts.BaseURL, opts.Auth, cfg.Throttle, cfg.Timeout, cfg.Logging.Level == "debug", log)
	if err := sess.Login(ctx, creds.Username, creds.Password); err != nil {
		return lastCompletedIteration, fmt.Errorf("login: %w", err)
	}

	// SPEC_FULL.md §2.3: cache the logged-in user's own person id (or keep
	// the previously cached one when login yields none) so a later run
	// without --individuals can fall back to it.
	cachedID := sess.Identity().PersonID
	if cachedID == "" {
		cachedID = prior.DefaultStartID
	}
	if err := writeSettingsFile(settingsPath, cfg, cachedID); err != nil {
		log.Warnw("update settings file", "error", err)
	}

	dbPath := filepath.Join(cfg.OutDir, cfg.Basename+".db")
	st, err := store.OpenSQLite(ctx, dbPath)
	if err != nil {
		return lastCompletedIteration, fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if closeErr := st.Close(cfg.GenSQL); closeErr != nil && err == nil {
			err = fmt.Errorf("close store: %w", closeErr)
		}
	}()

	if err := st.RecordRunConfiguration(ctx, redactedRunConfiguration(cfg)); err != nil {
		return lastCompletedIteration, fmt.Errorf("record run configuration: %w", err)
	}

	seeds := opts.Seeds
	if len(seeds) == 0 && !opts.Resume {
		startID := sess.Identity().PersonID
		if startID == "" {
			startID = prior.DefaultStartID
		}
		if startID != "" {
			seeds = []string{startID}
		}
	}
	if len(seeds) > 0 {
		n, err := st.SeedFrontierIfEmpty(ctx, seeds)
		if err != nil {
			return lastCompletedIteration, fmt.Errorf("seed frontier: %w", err)
		}
		if n == 0 {
			log.Infow("frontier already populated; continuing from stored state")
		}
	}

	status, err := st.GetCheckpointStatus(ctx)
	if err != nil {
		return lastCompletedIteration, fmt.Errorf("get checkpoint status: %w", err)
	}
	lastCompletedIteration = status.LastCompletedIteration

	telPath := filepath.Join(cfg.OutDir, cfg.Basename+".telemetry.jsonl")
	tel, err := telemetry.NewFile(telPath)
	if err != nil {
		return lastCompletedIteration, fmt.Errorf("open telemetry: %w", err)
	}
	defer func() {
		if closeErr := tel.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close telemetry: %w", closeErr)
		}
	}()

	plane := control.NewPlane()
	cancelSignals := control.WatchSignals(ctx, plane)
	defer cancelSignals()

	cancelFileWatch, err := control.WatchFile(ctx, cfg.PauseFile, plane, log)
	if err != nil {
		return lastCompletedIteration, fmt.Errorf("watch pause file: %w", err)
	}
	defer cancelFileWatch()

	eng := engine.New(sess, st, plane, tel, cfg.Throttle, log, opts.Out)

	for iteration := status.StartingIteration; iteration < cfg.HopCount; iteration++ {
		if err := eng.Iterate(ctx, iteration); err != nil {
			var stopReq *engine.StopRequested
			if errors.As(err, &stopReq) {
				log.Infow("stop requested", "reason", stopReq.Reason, "iteration", iteration)
				if ckErr := st.Checkpoint(ctx, iteration, "stop"); ckErr != nil {
					log.Warnw("checkpoint stop", "error", ckErr)
				}
				return lastCompletedIteration, nil
			}
			return lastCompletedIteration, fmt.Errorf("iterate %d: %w", iteration, err)
		}
		lastCompletedIteration = iteration
	}

	if err := eng.Resolve(ctx, cfg.Resolution.Strict); err != nil {
		return lastCompletedIteration, fmt.Errorf("resolve: %w", err)
	}
	return lastCompletedIteration, nil
}

// redactedRunConfiguration is the JOB_METADATA snapshot of the effective
// throttle/resolution settings, with no credentials (there are none in
// ThrottleConfig/ResolutionConfig to redact, but this is the single
// choke point where a future field addition would need to be).
func redactedRunConfiguration(cfg *config.Config) map[string]any {
	return map[string]any{
		"throttle":    cfg.Throttle,
		"strict":      cfg.Resolution.Strict,
		"hop_count":   cfg.HopCount,
		"recorded_at": time.Now().UTC().Format(time.RFC3339),
	}
}

// writeSettingsFile writes the redacted `.settings` audit artifact
// (SPEC_FULL.md §2.3). startID is the cached default starting identifier:
// the previous file's value before login, and afterward the logged-in
// person id (or the previous value again when login yields none).
func writeSettingsFile(path string, cfg *config.Config, startID string) error {
	if err := mkdirForFile(path); err != nil {
		return err
	}
	return config.SaveSettings(path, config.Settings{
		DefaultStartID:                startID,
		HopCount:                      cfg.HopCount,
		RequestsPerSecond:             cfg.Throttle.RequestsPerSecond,
		PersonBatchSize:               cfg.Throttle.PersonBatchSize,
		MaxConcurrentPersonRequests:   cfg.Throttle.MaxConcurrentPersonRequests,
		MaxConcurrentRelationshipReqs: cfg.Throttle.MaxConcurrentRelationshipReqs,
		Strict:                        cfg.Resolution.Strict,
	})
}

func mkdirForFile(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// validIdentifiers reports whether every id in ids matches the external
// identifier format, for the CLI's pre-flight argument check (spec.md
// §6: "mismatches abort with a non-zero exit").
func validIdentifiers(ids []string) error {
	for _, id := range ids {
		if !model.ValidID(id) {
			return fmt.Errorf("invalid identifier %q: expected format XXXX-XXX", id)
		}
	}
	return nil
}

// ValidateSeeds is the exported pre-flight check the CLI layer calls
// before Run.
func ValidateSeeds(ids []string) error {
	return validIdentifiers(ids)
}
