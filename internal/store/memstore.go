package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	orderedmap "github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/fscrawl/internal/model"
)

// edgeKey identifies an EDGE row by its ordered endpoint pair, mirroring
// the (source, destination) uniqueness SQLiteStore enforces per pair.
type edgeKey struct {
	child  string
	parent string
}

// MemStore is an in-memory Store used by engine/decode/verify tests so they
// don't need a filesystem-backed database. It preserves the same
// insertion-ordered frontier/processing semantics as SQLiteStore via
// orderedmap, instead of re-deriving them from SQL row order.
type MemStore struct {
	mu sync.Mutex

	vertices map[string]model.Individual
	edges    map[edgeKey]model.Edge
	edgesByID map[string]edgeKey

	frontier   *orderedmap.OrderedMap[string, struct{}]
	processing *orderedmap.OrderedMap[string, struct{}]

	log []logRow

	activeIteration        int
	haveActiveIteration     bool
	lastCompletedIteration  int
	haveLastCompletedIteration bool
	lastCheckpoint          *Checkpoint
	runConfiguration        map[string]any
	seedHistory             []string
}

type logRow struct {
	iteration int
	duration  time.Duration
	vertices  int
	frontier  int
	counts    model.RelationshipCounts
}

// NewMemStore returns an empty MemStore, ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		vertices:   make(map[string]model.Individual),
		edges:      make(map[edgeKey]model.Edge),
		edgesByID:  make(map[string]edgeKey),
		frontier:   orderedmap.NewOrderedMap[string, struct{}](),
		processing: orderedmap.NewOrderedMap[string, struct{}](),
	}
}

func (m *MemStore) IsVertex(ctx context.Context, fsID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vertices[fsID]
	return ok, nil
}

func (m *MemStore) isProcessingLocked(fsID string) bool {
	_, ok := m.processing.Get(fsID)
	return ok
}

func (m *MemStore) AddToFrontier(ctx context.Context, fsID string) error {
	if fsID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vertices[fsID]; ok {
		return nil
	}
	if m.isProcessingLocked(fsID) {
		return nil
	}
	if _, ok := m.frontier.Get(fsID); ok {
		return nil
	}
	m.frontier.Set(fsID, struct{}{})
	return nil
}

func (m *MemStore) AddIndividual(ctx context.Context, person model.Individual) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vertices[person.ID]; ok {
		return nil
	}
	m.vertices[person.ID] = person
	m.processing.Delete(person.ID)
	return nil
}

func (m *MemStore) AddParentChildRelationship(ctx context.Context, child, parent, relID string) error {
	if err := m.AddToFrontier(ctx, child); err != nil {
		return err
	}
	if err := m.AddToFrontier(ctx, parent); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := edgeKey{child: child, parent: parent}
	if _, ok := m.edges[key]; ok {
		return nil
	}
	m.edges[key] = model.Edge{Child: child, Parent: parent, Type: model.UntypedParent, RelID: relID}
	m.edgesByID[relID] = key
	return nil
}

// UpdateRelationshipByID mirrors SQLiteStore's monotone transition
// policy: a rewrite model.CanTransition rejects is a silent no-op.
func (m *MemStore) UpdateRelationshipByID(ctx context.Context, relID string, newType model.RelationshipType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.edgesByID[relID]
	if !ok {
		return nil
	}
	edge := m.edges[key]
	if !model.CanTransition(edge.Type, newType) {
		return nil
	}
	edge.Type = newType
	m.edges[key] = edge
	return nil
}

// UpdateRelationshipByEndpoints is UpdateRelationshipByID's
// endpoint-addressed counterpart.
func (m *MemStore) UpdateRelationshipByEndpoints(ctx context.Context, child, parent string, newType model.RelationshipType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := edgeKey{child: child, parent: parent}
	edge, ok := m.edges[key]
	if !ok {
		return nil
	}
	if !model.CanTransition(edge.Type, newType) {
		return nil
	}
	edge.Type = newType
	m.edges[key] = edge
	return nil
}

func (m *MemStore) StartIteration(ctx context.Context, iteration int) error {
	m.mu.Lock()
	m.processing = orderedmap.NewOrderedMap[string, struct{}]()
	for el := m.frontier.Front(); el != nil; el = el.Next() {
		m.processing.Set(el.Key, struct{}{})
	}
	m.frontier = orderedmap.NewOrderedMap[string, struct{}]()
	m.activeIteration = iteration
	m.haveActiveIteration = true
	m.mu.Unlock()
	return m.Checkpoint(ctx, iteration, "start")
}

func (m *MemStore) EndIteration(ctx context.Context, iteration int, duration time.Duration) error {
	counts, err := m.GetRelationshipCount(ctx)
	if err != nil {
		return err
	}
	vertices, _ := m.VertexCount(ctx)
	frontier, _ := m.FrontierSize(ctx)

	m.mu.Lock()
	m.log = append(m.log, logRow{
		iteration: iteration,
		duration:  duration,
		vertices:  vertices,
		frontier:  frontier,
		counts:    counts,
	})
	m.haveActiveIteration = false
	m.lastCompletedIteration = iteration
	m.haveLastCompletedIteration = true
	m.mu.Unlock()

	return m.Checkpoint(ctx, iteration, "iteration-complete")
}

func (m *MemStore) Checkpoint(ctx context.Context, iteration int, phase string) error {
	frontierSize, err := m.FrontierSize(ctx)
	if err != nil {
		return err
	}
	processingSize, err := m.ProcessingSize(ctx)
	if err != nil {
		return err
	}
	preview, err := m.PeekFrontier(ctx, 5)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCheckpoint = &Checkpoint{
		Iteration:       iteration,
		Phase:           phase,
		Timestamp:       time.Now().UTC(),
		FrontierSize:    frontierSize,
		ProcessingSize:  processingSize,
		FrontierPreview: preview,
	}
	return nil
}

func (m *MemStore) SeedFrontierIfEmpty(ctx context.Context, ids []string) (int, error) {
	m.mu.Lock()
	if m.frontier.Len() != 0 || m.processing.Len() != 0 {
		m.mu.Unlock()
		return 0, nil
	}

	var inserted []string
	for _, id := range ids {
		if _, ok := m.vertices[id]; ok {
			continue
		}
		if _, ok := m.frontier.Get(id); ok {
			continue
		}
		m.frontier.Set(id, struct{}{})
		inserted = append(inserted, id)
	}
	m.seedHistory = append(m.seedHistory, inserted...)
	m.mu.Unlock()
	return len(inserted), nil
}

func (m *MemStore) GetIDsToProcess(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, m.processing.Len())
	for el := m.processing.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out, nil
}

func (m *MemStore) PeekFrontier(ctx context.Context, n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, n)
	for el := m.frontier.Front(); el != nil && len(out) < n; el = el.Next() {
		out = append(out, el.Key)
	}
	return out, nil
}

func (m *MemStore) FrontierSize(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frontier.Len(), nil
}

func (m *MemStore) ProcessingSize(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processing.Len(), nil
}

func (m *MemStore) VertexCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vertices), nil
}

func (m *MemStore) GetGraphStats(ctx context.Context) (string, error) {
	vertices, _ := m.VertexCount(ctx)
	frontier, _ := m.FrontierSize(ctx)
	counts, err := m.GetRelationshipCount(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d vertices, %d frontier, %d edges, %d spanning edges, %d frontier edges",
		vertices, frontier, counts.Within, counts.Spanning, counts.Frontier), nil
}

func (m *MemStore) GetRelationshipCount(ctx context.Context) (model.RelationshipCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts model.RelationshipCounts
	for _, e := range m.edges {
		_, childIsVertex := m.vertices[e.Child]
		_, parentIsVertex := m.vertices[e.Parent]
		switch {
		case childIsVertex && parentIsVertex:
			counts.Within++
		case childIsVertex || parentIsVertex:
			counts.Spanning++
		default:
			counts.Frontier++
		}
	}
	return counts, nil
}

func (m *MemStore) GetRelationshipsToResolve(ctx context.Context, strict bool) ([]string, error) {
	m.mu.Lock()
	var edges []untypedEdge
	for _, e := range m.edges {
		if e.Type != model.UntypedParent {
			continue
		}
		dest, ok := m.vertices[e.Parent]
		if !ok {
			continue
		}
		edges = append(edges, untypedEdge{child: e.Child, relID: e.RelID, destColor: dest.Color})
	}
	m.mu.Unlock()

	decisions := resolveHeuristic(edges, strict)

	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var resolved []string
	for relID, newType := range decisions {
		key, ok := m.edgesByID[relID]
		if !ok {
			continue
		}
		edge := m.edges[key]
		edge.Type = newType
		m.edges[key] = edge
	}
	for _, e := range m.edges {
		if e.Type == model.Resolve && !seen[e.RelID] {
			seen[e.RelID] = true
			resolved = append(resolved, e.RelID)
		}
	}
	return resolved, nil
}

func (m *MemStore) GetCheckpointStatus(ctx context.Context) (CheckpointStatus, error) {
	frontierSize, _ := m.FrontierSize(ctx)
	processingSize, _ := m.ProcessingSize(ctx)
	preview, _ := m.PeekFrontier(ctx, 5)

	m.mu.Lock()
	defer m.mu.Unlock()

	status := CheckpointStatus{
		FrontierSize:    frontierSize,
		ProcessingSize:  processingSize,
		FrontierPreview: preview,
		RunConfiguration: m.runConfiguration,
		SeedHistory:     m.seedHistory,
		LastCheckpoint:  m.lastCheckpoint,
	}
	if m.haveActiveIteration {
		status.ActiveIteration = m.activeIteration
	} else {
		status.ActiveIteration = -1
	}
	if m.haveLastCompletedIteration {
		status.LastCompletedIteration = m.lastCompletedIteration
	} else {
		status.LastCompletedIteration = -1
		for _, row := range m.log {
			if row.iteration > status.LastCompletedIteration {
				status.LastCompletedIteration = row.iteration
			}
		}
	}
	status.StartingIteration = status.LastCompletedIteration + 1
	return status, nil
}

func (m *MemStore) RecordRunConfiguration(ctx context.Context, cfg map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runConfiguration = cfg
	return nil
}

func (m *MemStore) Close(dumpSQL bool) error {
	return nil
}
