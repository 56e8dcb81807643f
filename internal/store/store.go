// Package store implements the durable graph store: vertices, edges, the
// frontier/processing queues, the iteration log, and job metadata.
// Grounded on original_source/model/graph_db_impl.py's GraphDbImpl, with
// its set-based FRONTIER_VERTEX/PROCESSING tables generalized into the
// ordered-queue FRONTIER_QUEUE/PROCESSING_QUEUE schema spec.md §4.3 calls
// for, and the single in-memory sqlite3 connection replaced by two
// independent backends behind one Store interface (spec.md §9 design
// note: "capability set... two concrete variants").
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dbsmedya/fscrawl/internal/model"
)

// ErrStorage wraps any operational failure from a Store backend —
// spec.md §7's StorageError kind.
var ErrStorage = errors.New("storage error")

// CheckpointStatus is the result of GetCheckpointStatus, matching the
// fields spec.md §4.3 lists for get_checkpoint_status.
type CheckpointStatus struct {
	ActiveIteration        int
	StartingIteration      int
	FrontierSize           int
	ProcessingSize         int
	LastCompletedIteration int
	LastCheckpoint         *Checkpoint
	RunConfiguration       map[string]any
	SeedHistory            []string
	FrontierPreview        []string
}

// Checkpoint is the most recent checkpoint snapshot recorded in
// JOB_METADATA.last_checkpoint.
type Checkpoint struct {
	Iteration       int       `json:"iteration"`
	Phase           string    `json:"phase"`
	Timestamp       time.Time `json:"timestamp"`
	FrontierSize    int       `json:"frontier_size"`
	ProcessingSize  int       `json:"processing_size"`
	FrontierPreview []string  `json:"frontier_preview"`
}

// Store is the capability set the BFS Engine, Resolution Engine, and
// Orchestrator depend on. Two concrete variants exist: SQLiteStore
// (production, modernc.org/sqlite) and MemStore (tests, in-memory).
type Store interface {
	// Vertex/frontier/processing mutation.
	AddToFrontier(ctx context.Context, fsID string) error
	AddIndividual(ctx context.Context, person model.Individual) error
	AddParentChildRelationship(ctx context.Context, child, parent, relID string) error
	UpdateRelationshipByID(ctx context.Context, relID string, newType model.RelationshipType) error
	UpdateRelationshipByEndpoints(ctx context.Context, child, parent string, newType model.RelationshipType) error

	// Iteration lifecycle.
	StartIteration(ctx context.Context, iteration int) error
	EndIteration(ctx context.Context, iteration int, duration time.Duration) error
	Checkpoint(ctx context.Context, iteration int, phase string) error
	SeedFrontierIfEmpty(ctx context.Context, ids []string) (int, error)

	// Queue/graph reads.
	GetIDsToProcess(ctx context.Context) ([]string, error)
	PeekFrontier(ctx context.Context, n int) ([]string, error)
	FrontierSize(ctx context.Context) (int, error)
	ProcessingSize(ctx context.Context) (int, error)
	VertexCount(ctx context.Context) (int, error)
	IsVertex(ctx context.Context, fsID string) (bool, error)

	// Stats and resolution.
	GetGraphStats(ctx context.Context) (string, error)
	GetRelationshipCount(ctx context.Context) (model.RelationshipCounts, error)
	GetRelationshipsToResolve(ctx context.Context, strict bool) ([]string, error)

	// Metadata.
	GetCheckpointStatus(ctx context.Context) (CheckpointStatus, error)
	RecordRunConfiguration(ctx context.Context, cfg map[string]any) error

	// Lifecycle.
	Close(dumpSQL bool) error
}

// untypedEdge is the join of an UntypedParent edge with its destination's
// color — the input to the resolution heuristic (spec.md §4.6).
type untypedEdge struct {
	child     string
	relID     string
	destColor model.Color
}

// resolveHeuristic groups edges by (child, destColor) and decides, per
// spec.md §4.6/§8 S3, which rel_ids transition to AssumedBiological versus
// Resolve. strict (SPEC_FULL.md §2.3) widens Resolve: a lone color group
// still resolves when the child has more than one outbound edge overall,
// not only when the child's total is >= 3.
func resolveHeuristic(edges []untypedEdge, strict bool) map[string]model.RelationshipType {
	byChild := make(map[string][]untypedEdge)
	for _, e := range edges {
		byChild[e.child] = append(byChild[e.child], e)
	}

	decisions := make(map[string]model.RelationshipType)
	for _, childEdges := range byChild {
		total := len(childEdges)
		byColor := make(map[model.Color][]untypedEdge)
		for _, e := range childEdges {
			byColor[e.destColor] = append(byColor[e.destColor], e)
		}
		for _, group := range byColor {
			resolve := len(group) != 1 || total >= 3 || (strict && total > 1)
			for _, e := range group {
				if resolve {
					decisions[e.relID] = model.Resolve
				} else {
					decisions[e.relID] = model.AssumedBiological
				}
			}
		}
	}
	return decisions
}
