// Package snapshot is an optional archival sink for sealed index snapshots,
// per SPEC_FULL §A.2: the live index stays in memory (§5), so there is no
// writable graph database in the hot path. A caller that wants durable
// history for the dependency_tree() external collaborator (§6) can pass a
// sealed index to Sink.Archive to persist one row per declaration; reindex
// itself never writes here. Modeled on the
// teacher's pkg/models.SymbolRepository (DB wrapper + batch insert with
// ON CONFLICT upsert), trimmed to the columns this engine's Declaration
// actually has. Persistence is best-effort: a write failure here never
// blocks or invalidates the in-memory snapshot a query answers from.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kjxref/kjxref/internal/index"
)

// DB wraps a *sql.DB opened against the archival Postgres instance.
type DB struct {
	*sql.DB
}

// Open connects to the archival database at connStr (a standard
// "postgres://..." or libpq key=value DSN).
func Open(connStr string) (*DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open archival database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping archival database: %w", err)
	}
	return &DB{db}, nil
}

// Row is one archived declaration, the row shape the DO UPDATE below keys on.
type Row struct {
	SnapshotID  string
	FQN         string
	Name        string
	Kind        string
	Language    string
	File        string
	StartByte   int
	EndByte     int
	Synthesized bool
	ArchivedAt  time.Time
}

// Sink persists declarations from a sealed index, one row per declaration,
// keyed by (snapshot_id, fqn, file, start_byte) so a re-archive of the same
// snapshot is idempotent.
type Sink struct {
	db *DB
}

func NewSink(db *DB) *Sink {
	return &Sink{db: db}
}

// Archive writes every declaration in idx under snapshot idx.ID. Best-effort:
// the caller should log a returned error, not treat it as a build failure.
func (s *Sink) Archive(ctx context.Context, idx *index.Index) error {
	var rows []Row
	snapID := idx.ID.String()
	now := time.Now()
	for _, path := range idx.AllFiles() {
		ff, ok := idx.File(path)
		if !ok {
			continue
		}
		for _, d := range ff.Declarations {
			rows = append(rows, Row{
				SnapshotID:  snapID,
				FQN:         d.FQN,
				Name:        d.Name,
				Kind:        string(d.Kind),
				Language:    string(d.Language),
				File:        d.Pos.File,
				StartByte:   d.Pos.Start,
				EndByte:     d.Pos.End,
				Synthesized: d.Synthesized,
				ArchivedAt:  now,
			})
		}
	}
	return s.batchInsert(ctx, rows)
}

func (s *Sink) batchInsert(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO declarations (snapshot_id, fqn, name, kind, language, file, start_byte,
			end_byte, synthesized, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (snapshot_id, fqn, file, start_byte)
		DO UPDATE SET
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			language = EXCLUDED.language,
			end_byte = EXCLUDED.end_byte,
			synthesized = EXCLUDED.synthesized
	`
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.SnapshotID, r.FQN, r.Name, r.Kind, r.Language,
			r.File, r.StartByte, r.EndByte, r.Synthesized, r.ArchivedAt); err != nil {
			return fmt.Errorf("insert declaration %s: %w", r.FQN, err)
		}
	}
	return nil
}

// Query looks up archived declarations by FQN across all snapshots, for a
// dependency_tree()-style caller that wants history rather than only the
// live in-memory snapshot.
func (s *Sink) Query(ctx context.Context, fqn string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT snapshot_id, fqn, name, kind, language, file, start_byte, end_byte, synthesized, archived_at
		FROM declarations WHERE fqn = $1 ORDER BY archived_at DESC
	`, fqn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.SnapshotID, &r.FQN, &r.Name, &r.Kind, &r.Language, &r.File,
			&r.StartByte, &r.EndByte, &r.Synthesized, &r.ArchivedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
