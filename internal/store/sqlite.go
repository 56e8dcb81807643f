package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go embedded database/sql driver

	"github.com/dbsmedya/fscrawl/internal/model"
)

// SQLiteStore is the production Store backend: a single embedded,
// WAL-mode database file, matching spec.md §4.3/§6 and
// original_source/model/graph_db_impl.py's schema, generalized from its
// set-based FRONTIER_VERTEX/PROCESSING tables into ordered queues.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const currentSchemaVersion = 2

// OpenSQLite opens (creating if necessary) the database file at path,
// applies PRAGMA settings, and runs the migration ladder up to
// currentSchemaVersion.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorage, path, err)
	}
	db.SetMaxOpenConns(1) // single-writer discipline; WAL allows concurrent readers internally

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=30000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrStorage, pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) userVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *SQLiteStore) setUserVersion(ctx context.Context, v int) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", v))
	return err
}

// migrate runs the schema ladder. Version 0 -> 1 creates the base schema
// (VERTEX/EDGE/LOG/JOB_METADATA plus the legacy set-based
// FRONTIER_VERTEX/PROCESSING tables); version 1 -> 2 is the ordered-queue
// migration of spec.md §8 scenario S5.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	version, err := s.userVersion(ctx)
	if err != nil {
		return fmt.Errorf("%w: read user_version: %v", ErrStorage, err)
	}

	if version < 1 {
		if err := s.migrateToV1(ctx); err != nil {
			return err
		}
		version = 1
	}
	if version < 2 {
		if err := s.migrateToV2(ctx); err != nil {
			return err
		}
		version = 2
	}
	return nil
}

func (s *SQLiteStore) migrateToV1(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS VERTEX (
			id VARCHAR(8) NOT NULL PRIMARY KEY,
			color INTEGER,
			surname TEXT,
			given_name TEXT,
			iteration INTEGER,
			lifespan TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS EDGE (
			source VARCHAR(8),
			destination VARCHAR(8),
			type TEXT,
			id VARCHAR(8)
		)`,
		`CREATE INDEX IF NOT EXISTS EDGE_SOURCE_IDX ON EDGE(source)`,
		`CREATE INDEX IF NOT EXISTS EDGE_DESTINATION_IDX ON EDGE(destination)`,
		`CREATE INDEX IF NOT EXISTS EDGE_TYPE_IDX ON EDGE(type)`,
		`CREATE INDEX IF NOT EXISTS EDGE_ID_IDX ON EDGE(id)`,
		`CREATE TABLE IF NOT EXISTS FRONTIER_VERTEX (id VARCHAR(8) NOT NULL PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS PROCESSING (id VARCHAR(8) NOT NULL PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS LOG (
			iteration INTEGER,
			duration REAL,
			vertices INTEGER,
			frontier INTEGER,
			edges INTEGER,
			spanning_edges INTEGER,
			frontier_edges INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS JOB_METADATA (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at TEXT
		)`,
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin migration v1: %v", ErrStorage, err)
	}
	defer tx.Rollback()
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migration v1 %q: %v", ErrStorage, stmt, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "PRAGMA user_version=1"); err != nil {
		return fmt.Errorf("%w: set user_version=1: %v", ErrStorage, err)
	}
	return tx.Commit()
}

// migrateToV2 is spec.md §8 scenario S5: replace the legacy set-based
// FRONTIER_VERTEX/PROCESSING tables with ordered FRONTIER_QUEUE/
// PROCESSING_QUEUE tables, preserving membership, then drop the legacy
// tables.
func (s *SQLiteStore) migrateToV2(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin migration v2: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS FRONTIER_QUEUE (seq INTEGER PRIMARY KEY AUTOINCREMENT, fs_id TEXT UNIQUE)`,
		`CREATE TABLE IF NOT EXISTS PROCESSING_QUEUE (seq INTEGER PRIMARY KEY AUTOINCREMENT, fs_id TEXT UNIQUE)`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migration v2 %q: %v", ErrStorage, stmt, err)
		}
	}

	var legacyTables int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='FRONTIER_VERTEX'`).Scan(&legacyTables)
	if err != nil {
		return fmt.Errorf("%w: check legacy tables: %v", ErrStorage, err)
	}
	if legacyTables > 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO FRONTIER_QUEUE (fs_id) SELECT id FROM FRONTIER_VERTEX ORDER BY id`); err != nil {
			return fmt.Errorf("%w: migrate frontier rows: %v", ErrStorage, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO PROCESSING_QUEUE (fs_id) SELECT id FROM PROCESSING ORDER BY id`); err != nil {
			return fmt.Errorf("%w: migrate processing rows: %v", ErrStorage, err)
		}
		if _, err := tx.ExecContext(ctx, `DROP TABLE FRONTIER_VERTEX`); err != nil {
			return fmt.Errorf("%w: drop FRONTIER_VERTEX: %v", ErrStorage, err)
		}
		if _, err := tx.ExecContext(ctx, `DROP TABLE PROCESSING`); err != nil {
			return fmt.Errorf("%w: drop PROCESSING: %v", ErrStorage, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "PRAGMA user_version=2"); err != nil {
		return fmt.Errorf("%w: set user_version=2: %v", ErrStorage, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) IsVertex(ctx context.Context, fsID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM VERTEX WHERE id=?`, fsID).Scan(&n)
	return n == 1, err
}

func (s *SQLiteStore) isProcessing(ctx context.Context, fsID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM PROCESSING_QUEUE WHERE fs_id=?`, fsID).Scan(&n)
	return n == 1, err
}

// AddToFrontier is a no-op if fsID is empty, already a vertex, or already
// in the processing queue; otherwise inserts preserving first-seen order.
func (s *SQLiteStore) AddToFrontier(ctx context.Context, fsID string) error {
	if fsID == "" {
		return nil
	}
	isVertex, err := s.IsVertex(ctx, fsID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if isVertex {
		return nil
	}
	inProcessing, err := s.isProcessing(ctx, fsID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if inProcessing {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR IGNORE INTO FRONTIER_QUEUE (fs_id) VALUES (?)`, fsID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// AddIndividual inserts person into VERTEX if it is not already present
// and drains it from PROCESSING_QUEUE. This is the only place a vertex
// is created.
func (s *SQLiteStore) AddIndividual(ctx context.Context, person model.Individual) error {
	isVertex, err := s.IsVertex(ctx, person.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if isVertex {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO VERTEX (id, color, surname, given_name, iteration, lifespan) VALUES (?, ?, ?, ?, ?, ?)`,
		person.ID, int(person.Color), person.Name.Surname, person.Name.Given, person.Iteration, person.Lifespan)
	if err != nil {
		return fmt.Errorf("%w: insert vertex %s: %v", ErrStorage, person.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM PROCESSING_QUEUE WHERE fs_id=?`, person.ID); err != nil {
		return fmt.Errorf("%w: drain processing queue for %s: %v", ErrStorage, person.ID, err)
	}
	return tx.Commit()
}

// AddParentChildRelationship ensures both endpoints are enqueued to the
// frontier, then inserts an UntypedParent edge if none exists for the pair.
func (s *SQLiteStore) AddParentChildRelationship(ctx context.Context, child, parent, relID string) error {
	if err := s.AddToFrontier(ctx, child); err != nil {
		return err
	}
	if err := s.AddToFrontier(ctx, parent); err != nil {
		return err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM EDGE WHERE source=? AND destination=?`, child, parent).Scan(&n)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if n > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO EDGE (source, destination, type, id) VALUES (?, ?, ?, ?)`,
		child, parent, string(model.UntypedParent), relID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// UpdateRelationshipByID rewrites relID's type, enforcing the monotone
// transition policy (spec.md §3: "a concrete type is never downgraded")
// via model.CanTransition. A rewrite that would violate it is a silent
// no-op rather than an error, matching §4.3's "monotonicity is enforced
// by callers" — the caller's write simply has no effect.
func (s *SQLiteStore) UpdateRelationshipByID(ctx context.Context, relID string, newType model.RelationshipType) error {
	var current string
	err := s.db.QueryRowContext(ctx, `SELECT type FROM EDGE WHERE id=?`, relID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !model.CanTransition(model.RelationshipType(current), newType) {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE EDGE SET type=? WHERE id=?`, string(newType), relID); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// UpdateRelationshipByEndpoints is UpdateRelationshipByID's
// endpoint-addressed counterpart, enforcing the same transition policy.
func (s *SQLiteStore) UpdateRelationshipByEndpoints(ctx context.Context, child, parent string, newType model.RelationshipType) error {
	var current string
	err := s.db.QueryRowContext(ctx,
		`SELECT type FROM EDGE WHERE source=? AND destination=?`, child, parent).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !model.CanTransition(model.RelationshipType(current), newType) {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE EDGE SET type=? WHERE source=? AND destination=?`, string(newType), child, parent); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// StartIteration moves all frontier entries into processing in the same
// insertion order, within a single transaction, and records a "start"
// checkpoint.
func (s *SQLiteStore) StartIteration(ctx context.Context, iteration int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM PROCESSING_QUEUE`); err != nil {
		return fmt.Errorf("%w: clear processing queue: %v", ErrStorage, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO PROCESSING_QUEUE (fs_id) SELECT fs_id FROM FRONTIER_QUEUE ORDER BY seq`); err != nil {
		return fmt.Errorf("%w: copy frontier to processing: %v", ErrStorage, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM FRONTIER_QUEUE`); err != nil {
		return fmt.Errorf("%w: clear frontier queue: %v", ErrStorage, err)
	}
	if err := setMetadataTx(ctx, tx, "active_iteration", iteration); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return s.Checkpoint(ctx, iteration, "start")
}

// EndIteration appends a LOG row with computed counts, clears
// active_iteration, records last_completed_iteration, and writes an
// "iteration-complete" checkpoint.
func (s *SQLiteStore) EndIteration(ctx context.Context, iteration int, duration time.Duration) error {
	counts, err := s.GetRelationshipCount(ctx)
	if err != nil {
		return err
	}
	vertices, err := s.VertexCount(ctx)
	if err != nil {
		return err
	}
	frontier, err := s.FrontierSize(ctx)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO LOG (iteration, duration, vertices, frontier, edges, spanning_edges, frontier_edges)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		iteration, duration.Seconds(), vertices, frontier, counts.Within, counts.Spanning, counts.Frontier)
	if err != nil {
		return fmt.Errorf("%w: insert log row: %v", ErrStorage, err)
	}
	if err := deleteMetadataTx(ctx, tx, "active_iteration"); err != nil {
		return err
	}
	if err := setMetadataTx(ctx, tx, "last_completed_iteration", iteration); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return s.Checkpoint(ctx, iteration, "iteration-complete")
}

// Checkpoint commits outstanding work (sqlite autocommits per statement
// here, so this only updates last_checkpoint metadata) with the current
// queue sizes and a five-id frontier preview.
func (s *SQLiteStore) Checkpoint(ctx context.Context, iteration int, phase string) error {
	frontierSize, err := s.FrontierSize(ctx)
	if err != nil {
		return err
	}
	processingSize, err := s.ProcessingSize(ctx)
	if err != nil {
		return err
	}
	preview, err := s.PeekFrontier(ctx, 5)
	if err != nil {
		return err
	}

	cp := Checkpoint{
		Iteration:       iteration,
		Phase:           phase,
		Timestamp:       time.Now().UTC(),
		FrontierSize:    frontierSize,
		ProcessingSize:  processingSize,
		FrontierPreview: preview,
	}
	return s.setMetadataJSON(ctx, "last_checkpoint", cp)
}

// SeedFrontierIfEmpty inserts ids into FRONTIER_QUEUE in order, skipping
// vertices already present, only when both queues are currently empty.
func (s *SQLiteStore) SeedFrontierIfEmpty(ctx context.Context, ids []string) (int, error) {
	frontierSize, err := s.FrontierSize(ctx)
	if err != nil {
		return 0, err
	}
	processingSize, err := s.ProcessingSize(ctx)
	if err != nil {
		return 0, err
	}
	if frontierSize != 0 || processingSize != 0 {
		return 0, nil
	}

	inserted := make([]string, 0, len(ids))
	for _, id := range ids {
		isVertex, err := s.IsVertex(ctx, id)
		if err != nil {
			return 0, err
		}
		if isVertex {
			continue
		}
		if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO FRONTIER_QUEUE (fs_id) VALUES (?)`, id); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		inserted = append(inserted, id)
	}
	if len(inserted) > 0 {
		if err := s.appendSeedHistory(ctx, inserted); err != nil {
			return 0, err
		}
	}
	return len(inserted), nil
}

func (s *SQLiteStore) GetIDsToProcess(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fs_id FROM PROCESSING_QUEUE ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (s *SQLiteStore) PeekFrontier(ctx context.Context, n int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fs_id FROM FRONTIER_QUEUE ORDER BY seq LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (s *SQLiteStore) FrontierSize(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM FRONTIER_QUEUE`)
}

func (s *SQLiteStore) ProcessingSize(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM PROCESSING_QUEUE`)
}

func (s *SQLiteStore) VertexCount(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM VERTEX`)
}

func (s *SQLiteStore) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return n, nil
}

func (s *SQLiteStore) GetGraphStats(ctx context.Context) (string, error) {
	vertices, err := s.VertexCount(ctx)
	if err != nil {
		return "", err
	}
	frontier, err := s.FrontierSize(ctx)
	if err != nil {
		return "", err
	}
	counts, err := s.GetRelationshipCount(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d vertices, %d frontier, %d edges, %d spanning edges, %d frontier edges",
		vertices, frontier, counts.Within, counts.Spanning, counts.Frontier), nil
}

// GetRelationshipCount computes (within, spanning, frontier) edge counts
// by VERTEX membership of each endpoint.
func (s *SQLiteStore) GetRelationshipCount(ctx context.Context) (model.RelationshipCounts, error) {
	var all, srcIn, dstIn, within int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM EDGE`).Scan(&all); err != nil {
		return model.RelationshipCounts{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM EDGE JOIN VERTEX ON source = VERTEX.id`).Scan(&srcIn)
	if err != nil {
		return model.RelationshipCounts{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM EDGE JOIN VERTEX ON destination = VERTEX.id`).Scan(&dstIn)
	if err != nil {
		return model.RelationshipCounts{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT destination FROM EDGE JOIN VERTEX ON EDGE.source = VERTEX.id
		) AS SOURCE_EDGE
		JOIN VERTEX ON SOURCE_EDGE.destination = VERTEX.id`).Scan(&within)
	if err != nil {
		return model.RelationshipCounts{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	spanning := srcIn - within + dstIn - within
	frontier := all - within - spanning
	return model.RelationshipCounts{Within: within, Spanning: spanning, Frontier: frontier}, nil
}

// GetRelationshipsToResolve runs the resolution heuristic over every
// UntypedParent edge, rewrites edge types in place, and returns distinct
// rel_ids now marked Resolve.
func (s *SQLiteStore) GetRelationshipsToResolve(ctx context.Context, strict bool) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT EDGE.source, EDGE.id, VERTEX.color
		FROM EDGE JOIN VERTEX ON EDGE.destination = VERTEX.id
		WHERE EDGE.type = ?
		ORDER BY EDGE.source`, string(model.UntypedParent))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var edges []untypedEdge
	for rows.Next() {
		var e untypedEdge
		var color int
		if err := rows.Scan(&e.child, &e.relID, &color); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		e.destColor = model.Color(color)
		edges = append(edges, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	decisions := resolveHeuristic(edges, strict)
	for relID, newType := range decisions {
		if err := s.UpdateRelationshipByID(ctx, relID, newType); err != nil {
			return nil, err
		}
	}

	resultRows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT id FROM EDGE WHERE type=?`, string(model.Resolve))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer resultRows.Close()
	return scanStrings(resultRows)
}

func (s *SQLiteStore) GetCheckpointStatus(ctx context.Context) (CheckpointStatus, error) {
	var status CheckpointStatus

	if v, ok, err := s.getMetadataInt(ctx, "active_iteration"); err != nil {
		return status, err
	} else if ok {
		status.ActiveIteration = v
	} else {
		status.ActiveIteration = -1
	}

	if v, ok, err := s.getMetadataInt(ctx, "last_completed_iteration"); err != nil {
		return status, err
	} else if ok {
		status.LastCompletedIteration = v
	} else {
		var maxIter sql.NullInt64
		if err := s.db.QueryRowContext(ctx, `SELECT MAX(iteration) FROM LOG`).Scan(&maxIter); err != nil {
			return status, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if maxIter.Valid {
			status.LastCompletedIteration = int(maxIter.Int64)
		} else {
			status.LastCompletedIteration = -1
		}
	}
	status.StartingIteration = status.LastCompletedIteration + 1

	var err error
	status.FrontierSize, err = s.FrontierSize(ctx)
	if err != nil {
		return status, err
	}
	status.ProcessingSize, err = s.ProcessingSize(ctx)
	if err != nil {
		return status, err
	}
	status.FrontierPreview, err = s.PeekFrontier(ctx, 5)
	if err != nil {
		return status, err
	}

	var cp Checkpoint
	if ok, err := s.getMetadataJSON(ctx, "last_checkpoint", &cp); err != nil {
		return status, err
	} else if ok {
		status.LastCheckpoint = &cp
	}

	var runCfg map[string]any
	if ok, err := s.getMetadataJSON(ctx, "run_configuration", &runCfg); err != nil {
		return status, err
	} else if ok {
		status.RunConfiguration = runCfg
	}

	var seeds []string
	if ok, err := s.getMetadataJSON(ctx, "seed_history", &seeds); err != nil {
		return status, err
	} else if ok {
		status.SeedHistory = seeds
	}

	return status, nil
}

func (s *SQLiteStore) RecordRunConfiguration(ctx context.Context, cfg map[string]any) error {
	return s.setMetadataJSON(ctx, "run_configuration", cfg)
}

func (s *SQLiteStore) appendSeedHistory(ctx context.Context, ids []string) error {
	var existing []string
	if ok, err := s.getMetadataJSON(ctx, "seed_history", &existing); err != nil {
		return err
	} else if !ok {
		existing = nil
	}
	existing = append(existing, ids...)
	return s.setMetadataJSON(ctx, "seed_history", existing)
}

// Close optionally dumps the database to a sibling .sql text file, then
// closes the connection.
func (s *SQLiteStore) Close(dumpSQL bool) error {
	if dumpSQL {
		if err := s.dumpSQL(); err != nil {
			return err
		}
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) dumpSQL(tables ...string) error {
	if len(tables) == 0 {
		tables = []string{"VERTEX", "EDGE", "FRONTIER_QUEUE", "PROCESSING_QUEUE", "LOG", "JOB_METADATA"}
	}
	f, err := os.Create(strings.TrimSuffix(s.path, ".db") + ".sql")
	if err != nil {
		return fmt.Errorf("%w: create sql dump: %v", ErrStorage, err)
	}
	defer f.Close()

	for _, table := range tables {
		fmt.Fprintf(f, "-- %s\n", table)
		rows, err := s.db.Query(fmt.Sprintf("SELECT * FROM %s", table))
		if err != nil {
			return fmt.Errorf("%w: dump %s: %v", ErrStorage, table, err)
		}
		cols, _ := rows.Columns()
		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				rows.Close()
				return fmt.Errorf("%w: scan dump row: %v", ErrStorage, err)
			}
			fmt.Fprintln(f, vals...)
		}
		rows.Close()
	}
	return nil
}

func setMetadataTx(ctx context.Context, tx *sql.Tx, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrStorage, key, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO JOB_METADATA (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: set metadata %s: %v", ErrStorage, key, err)
	}
	return nil
}

func deleteMetadataTx(ctx context.Context, tx *sql.Tx, key string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM JOB_METADATA WHERE key=?`, key); err != nil {
		return fmt.Errorf("%w: delete metadata %s: %v", ErrStorage, key, err)
	}
	return nil
}

func (s *SQLiteStore) setMetadataJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrStorage, key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO JOB_METADATA (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: set metadata %s: %v", ErrStorage, key, err)
	}
	return nil
}

func (s *SQLiteStore) getMetadataInt(ctx context.Context, key string) (int, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM JOB_METADATA WHERE key=?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	var v int
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return 0, false, fmt.Errorf("%w: unmarshal %s: %v", ErrStorage, key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) getMetadataJSON(ctx context.Context, key string, out any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM JOB_METADATA WHERE key=?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("%w: unmarshal %s: %v", ErrStorage, key, err)
	}
	return true, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return out, nil
}
