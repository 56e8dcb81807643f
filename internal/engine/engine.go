// Package engine implements the BFS Engine (spec.md §4.5) and Resolution
// Engine (spec.md §4.6): the iteration loop that fetches a row of person
// batches concurrently and the pass that fetches facts for ambiguous
// parent-child edges, both cooperating with the Control Plane and
// emitting telemetry.
package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/fscrawl/internal/config"
	"github.com/dbsmedya/fscrawl/internal/control"
	"github.com/dbsmedya/fscrawl/internal/decode"
	"github.com/dbsmedya/fscrawl/internal/logger"
	"github.com/dbsmedya/fscrawl/internal/partition"
	"github.com/dbsmedya/fscrawl/internal/progress"
	"github.com/dbsmedya/fscrawl/internal/session"
	"github.com/dbsmedya/fscrawl/internal/store"
	"github.com/dbsmedya/fscrawl/internal/telemetry"
)

// StopRequested signals that the Control Plane latched a stop mid-run;
// the Orchestrator treats this as a clean, checkpointed exit rather than
// a failure.
type StopRequested struct {
	Reason string
}

func (e *StopRequested) Error() string { return "stop requested: " + e.Reason }

// Engine drives one iteration's person fetches or the resolution pass
// over a Store, bounded by cfg and the supplied Control Plane.
type Engine struct {
	session *session.Session
	store   store.Store
	plane   *control.Plane
	tel     *telemetry.Emitter
	cfg     config.ThrottleConfig
	log     *logger.Logger
	out     io.Writer
}

// New builds an Engine. out receives the progress indicator's output
// (typically os.Stderr); tel may be nil to disable telemetry.
func New(sess *session.Session, st store.Store, plane *control.Plane, tel *telemetry.Emitter, cfg config.ThrottleConfig, log *logger.Logger, out io.Writer) *Engine {
	return &Engine{session: sess, store: st, plane: plane, tel: tel, cfg: cfg, log: log, out: out}
}

// checkControl raises StopRequested if stop has been latched, blocking
// first if paused (spec.md §4.5 step 1/4, §4.7).
func (e *Engine) checkControl(ctx context.Context, iteration int) error {
	if stop, reason := e.plane.ShouldStop(); stop {
		return &StopRequested{Reason: reason}
	}
	if e.plane.IsPaused() {
		if err := e.store.Checkpoint(ctx, iteration, "pause"); err != nil {
			return err
		}
		e.tel.Emit("pause", map[string]any{"reason": "control plane"})
		e.plane.WaitIfPaused()
	}
	if stop, reason := e.plane.ShouldStop(); stop {
		return &StopRequested{Reason: reason}
	}
	return nil
}

// Iterate runs one BFS hop: it moves the current frontier into
// processing, fetches every id in bounded concurrent rows, and feeds
// each response to the decoder.
func (e *Engine) Iterate(ctx context.Context, iteration int) error {
	if err := e.checkControl(ctx, iteration); err != nil {
		return err
	}
	if err := e.store.StartIteration(ctx, iteration); err != nil {
		return fmt.Errorf("start iteration %d: %w", iteration, err)
	}
	iterLog := e.log.With("iteration", iteration)
	iterLog.Infow("iteration started")
	e.tel.Emit("iteration_start", map[string]any{"iteration": iteration})

	ids, err := e.store.GetIDsToProcess(ctx)
	if err != nil {
		return fmt.Errorf("get ids to process: %w", err)
	}

	partitioned := partition.Partition(ids, e.cfg.PersonBatchSize, e.cfg.MaxConcurrentPersonRequests)
	bar := progress.New(e.out, partitioned.NumRows, fmt.Sprintf("iteration %d", iteration))

	start := time.Now()
	rowsSinceCheckpoint := 0
	rowIndex := 0
	for row := range partitioned.Rows {
		if err := e.checkControl(ctx, iteration); err != nil {
			return err
		}

		rowIndex++
		rowLog := iterLog.With("row", rowIndex)
		rowStart := time.Now()
		requests, err := e.fetchRow(ctx, row, iteration, rowLog)
		if err != nil {
			return fmt.Errorf("iteration %d row %d: %w", iteration, rowIndex, err)
		}
		bar.Advance()

		frontierSize, err := e.store.FrontierSize(ctx)
		if err != nil {
			return err
		}
		processingSize, err := e.store.ProcessingSize(ctx)
		if err != nil {
			return err
		}
		e.tel.Emit("person_batch", map[string]any{
			"iteration":         iteration,
			"row":               rowIndex,
			"batch_duration_ms": time.Since(rowStart).Milliseconds(),
			"requests":          requests,
			"frontier":          frontierSize,
			"processing":        processingSize,
		})

		rowsSinceCheckpoint++
		if rowsSinceCheckpoint > config.PartialWriteThreshold {
			if err := e.store.Checkpoint(ctx, iteration, "partial-write"); err != nil {
				return err
			}
			rowsSinceCheckpoint = 0
		} else {
			sleep(ctx, e.cfg.DelayBetweenPersonBatches)
		}
	}
	bar.Finish()

	if err := e.store.EndIteration(ctx, iteration, time.Since(start)); err != nil {
		return fmt.Errorf("end iteration %d: %w", iteration, err)
	}

	counts, err := e.store.GetRelationshipCount(ctx)
	if err != nil {
		return err
	}
	vertices, err := e.store.VertexCount(ctx)
	if err != nil {
		return err
	}
	frontierSize, err := e.store.FrontierSize(ctx)
	if err != nil {
		return err
	}
	e.tel.Emit("iteration_complete", map[string]any{
		"iteration":      iteration,
		"duration_ms":    time.Since(start).Milliseconds(),
		"vertices":       vertices,
		"frontier":       frontierSize,
		"edges":          counts.Within,
		"spanning_edges": counts.Spanning,
		"frontier_edges": counts.Frontier,
	})
	return e.store.Checkpoint(ctx, iteration, "iteration-complete")
}

// fetchRow issues one concurrent GET per batch in row, bounded by
// MaxConcurrentPersonRequests, and feeds every successful payload to the
// decoder. The first error from any batch is returned, canceling the
// rest via errgroup's derived context (spec.md §4.5 step 4: "propagate
// the first one as fatal").
func (e *Engine) fetchRow(ctx context.Context, row partition.Row, iteration int, rowLog *logger.Logger) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrentPersonRequests)

	requests := 0
	for _, batch := range row {
		batch := batch
		requests++
		g.Go(func() error {
			path := "/platform/tree/persons/.json?pids=" + strings.Join(batch, ",")
			result := e.session.GET(gctx, path)
			if result.Err != nil {
				return fmt.Errorf("fetch %v: %w", batch, result.Err)
			}
			if err := decode.ProcessPersonsResult(gctx, e.store, result.Body, iteration); err != nil {
				return fmt.Errorf("process %v: %w", batch, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return requests, err
	}
	rowLog.Debugw("row fetched", "requests", requests)
	return requests, nil
}

// Resolve runs the resolution pass: every relationship currently marked
// Resolve is refetched for its facts and its edge type rewritten.
// Per-relationship failures are logged and tolerated (spec.md §4.6:
// "facts are advisory"); only a Control Plane stop aborts the pass.
func (e *Engine) Resolve(ctx context.Context, strict bool) error {
	start := time.Now()
	relIDs, err := e.store.GetRelationshipsToResolve(ctx, strict)
	if err != nil {
		return fmt.Errorf("get relationships to resolve: %w", err)
	}

	partitioned := partition.Partition(relIDs, 1, e.cfg.MaxConcurrentRelationshipReqs)
	bar := progress.New(e.out, partitioned.NumRows, "resolving relationships")

	rowIndex := 0
	for row := range partitioned.Rows {
		if stop, reason := e.plane.ShouldStop(); stop {
			return &StopRequested{Reason: reason}
		}
		e.plane.WaitIfPaused()

		rowIndex++
		rowLog := e.log.With("row", rowIndex)
		rowStart := time.Now()
		requests := e.resolveRow(ctx, row, rowLog)
		bar.Advance()

		e.tel.Emit("relationship_batch", map[string]any{
			"row":               rowIndex,
			"batch_duration_ms": time.Since(rowStart).Milliseconds(),
			"requests":          requests,
		})
		sleep(ctx, e.cfg.DelayBetweenRelationshipBatches)
	}
	bar.Finish()

	if err := e.store.Checkpoint(ctx, -1, "relationships"); err != nil {
		return err
	}
	e.tel.Emit("resolution_complete", map[string]any{
		"resolved":    len(relIDs),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func (e *Engine) resolveRow(ctx context.Context, row partition.Row, rowLog *logger.Logger) int {
	var wg sync.WaitGroup
	requests := 0
	for _, batch := range row {
		for _, relID := range batch {
			relID := relID
			requests++
			wg.Add(1)
			go func() {
				defer wg.Done()
				relLog := rowLog.With("rel_id", relID)
				path := fmt.Sprintf("/platform/tree/child-and-parents-relationships/%s.json", relID)
				result := e.session.GET(ctx, path)
				if result.Err != nil {
					relLog.Warnw("resolve relationship failed", "error", result.Err)
					return
				}
				if err := decode.ProcessRelationshipResult(ctx, e.store, result.Body, relLog); err != nil {
					relLog.Warnw("decode relationship failed", "error", err)
				}
			}()
		}
	}
	wg.Wait()
	return requests
}

func sleep(ctx context.Context, seconds float64) {
	if seconds <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	}
}
