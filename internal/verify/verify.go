// Package verify checks the quantified invariants spec.md §8 states for
// a Store: queue mutual exclusivity, iteration bookkeeping consistency,
// and checkpoint-phase consistency. It is adapted from the teacher's verifier
// package, which compared row counts between a source and destination
// database; here there is one database and the "expected" side is the
// invariant itself rather than a second copy.
package verify

import (
	"context"
	"fmt"

	"github.com/dbsmedya/fscrawl/internal/logger"
	"github.com/dbsmedya/fscrawl/internal/store"
)

// CheckName identifies one invariant check.
type CheckName string

const (
	CheckQueueExclusivity      CheckName = "queue_exclusivity"
	CheckIterationBookkeeping  CheckName = "iteration_bookkeeping"
	CheckCheckpointConsistency CheckName = "checkpoint_consistency"
)

// Result holds the outcome of a single check.
type Result struct {
	Check  CheckName
	Passed bool
	Detail string
}

// Report is the outcome of running every check against a Store.
type Report struct {
	Results []Result
	Passed  int
	Failed  int
}

// anyFailed reports whether any check in the report failed.
func (r *Report) anyFailed() bool { return r.Failed > 0 }

// Verifier runs invariant checks against a Store, logging failures the
// way the teacher's Verifier logs row-count mismatches.
type Verifier struct {
	store store.Store
	log   *logger.Logger
}

// New builds a Verifier for st. A nil logger falls back to a default one.
func New(st store.Store, log *logger.Logger) *Verifier {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Verifier{store: st, log: log}
}

// Verify runs every check and returns a Report. A non-nil error is
// returned only when a check could not even run (store I/O failure);
// a detected invariant violation is reported via Result.Passed=false,
// not via error, so callers can decide whether to treat it as fatal.
func (v *Verifier) Verify(ctx context.Context) (*Report, error) {
	report := &Report{}

	checks := []func(context.Context) (Result, error){
		v.checkQueueExclusivity,
		v.checkIterationBookkeeping,
		v.checkCheckpointConsistency,
	}

	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("verification interrupted: %w", err)
		}
		result, err := check(ctx)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, result)
		if result.Passed {
			report.Passed++
			v.log.Debugw("check passed", "check", result.Check)
		} else {
			report.Failed++
			v.log.Errorw("check failed", "check", result.Check, "detail", result.Detail)
		}
	}

	return report, nil
}

// checkQueueExclusivity verifies spec.md §8's first quantified
// invariant: no identifier appears in more than one of
// VERTEX/FRONTIER_QUEUE/PROCESSING_QUEUE at once. It reads both queues
// in full and checks all three pairings — frontier-vs-VERTEX,
// processing-vs-VERTEX, and frontier-vs-processing — since nothing in
// the Store's write paths structurally rules any one of them out on
// its own (a resumed run, for instance, reloads both queues from disk
// independently).
func (v *Verifier) checkQueueExclusivity(ctx context.Context) (Result, error) {
	size, err := v.store.FrontierSize(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("frontier size: %w", err)
	}
	frontier, err := v.store.PeekFrontier(ctx, size)
	if err != nil {
		return Result{}, fmt.Errorf("peek frontier: %w", err)
	}
	processing, err := v.store.GetIDsToProcess(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("get ids to process: %w", err)
	}

	inProcessing := make(map[string]bool, len(processing))
	for _, id := range processing {
		inProcessing[id] = true
	}

	for _, id := range frontier {
		isVertex, err := v.store.IsVertex(ctx, id)
		if err != nil {
			return Result{}, fmt.Errorf("is vertex %s: %w", id, err)
		}
		if isVertex {
			return Result{
				Check:  CheckQueueExclusivity,
				Passed: false,
				Detail: fmt.Sprintf("%s is in both FRONTIER_QUEUE and VERTEX", id),
			}, nil
		}
		if inProcessing[id] {
			return Result{
				Check:  CheckQueueExclusivity,
				Passed: false,
				Detail: fmt.Sprintf("%s is in both FRONTIER_QUEUE and PROCESSING_QUEUE", id),
			}, nil
		}
	}
	for _, id := range processing {
		isVertex, err := v.store.IsVertex(ctx, id)
		if err != nil {
			return Result{}, fmt.Errorf("is vertex %s: %w", id, err)
		}
		if isVertex {
			return Result{
				Check:  CheckQueueExclusivity,
				Passed: false,
				Detail: fmt.Sprintf("%s is in both PROCESSING_QUEUE and VERTEX", id),
			}, nil
		}
	}

	return Result{
		Check:  CheckQueueExclusivity,
		Passed: true,
		Detail: fmt.Sprintf("%d frontier ids, %d processing ids checked", len(frontier), len(processing)),
	}, nil
}

// checkIterationBookkeeping checks the recorded iteration markers: an
// active_iteration, when set, must be greater than
// last_completed_iteration. It does not compare last_completed_iteration
// against the iteration LOG.
func (v *Verifier) checkIterationBookkeeping(ctx context.Context) (Result, error) {
	status, err := v.store.GetCheckpointStatus(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("get checkpoint status: %w", err)
	}
	if status.ActiveIteration != -1 && status.ActiveIteration <= status.LastCompletedIteration {
		return Result{
			Check:  CheckIterationBookkeeping,
			Passed: false,
			Detail: fmt.Sprintf("active_iteration=%d not cleared past last_completed_iteration=%d", status.ActiveIteration, status.LastCompletedIteration),
		}, nil
	}
	return Result{
		Check:  CheckIterationBookkeeping,
		Passed: true,
		Detail: fmt.Sprintf("last_completed_iteration=%d", status.LastCompletedIteration),
	}, nil
}

// checkCheckpointConsistency verifies that a recorded last checkpoint,
// if any, names a phase the engine actually emits.
func (v *Verifier) checkCheckpointConsistency(ctx context.Context) (Result, error) {
	status, err := v.store.GetCheckpointStatus(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("get checkpoint status: %w", err)
	}
	if status.LastCheckpoint == nil {
		return Result{Check: CheckCheckpointConsistency, Passed: true, Detail: "no checkpoint recorded yet"}, nil
	}
	switch status.LastCheckpoint.Phase {
	case "start", "pause", "stop", "partial-write", "iteration-complete", "relationships":
		return Result{
			Check:  CheckCheckpointConsistency,
			Passed: true,
			Detail: fmt.Sprintf("phase=%s", status.LastCheckpoint.Phase),
		}, nil
	default:
		return Result{
			Check:  CheckCheckpointConsistency,
			Passed: false,
			Detail: fmt.Sprintf("unrecognized checkpoint phase %q", status.LastCheckpoint.Phase),
		}, nil
	}
}

// Err returns a non-nil error summarizing every failed check, or nil if
// the report is clean — the shape the teacher's Verify returns directly
// from its mismatch path.
func (r *Report) Err() error {
	if !r.anyFailed() {
		return nil
	}
	var detail string
	for _, res := range r.Results {
		if !res.Passed {
			if detail != "" {
				detail += "; "
			}
			detail += fmt.Sprintf("%s: %s", res.Check, res.Detail)
		}
	}
	return fmt.Errorf("invariant verification failed (%d/%d checks): %s", r.Failed, len(r.Results), detail)
}
