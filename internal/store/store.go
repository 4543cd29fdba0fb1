// Package store persists geometry bundles in a SQLite database
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/dyuri/cave3d/internal/export"
	"github.com/dyuri/cave3d/internal/model"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// schema.sql creates the surveys table and the per-survey stations,
// legs, meshes and diagnostics tables.
//
//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a survey id is unknown
var ErrNotFound = errors.New("survey not found")

type Store struct {
	*sql.DB
}

// Open opens or creates the database at path and applies the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection and :memory: databases are per connection
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db}, nil
}

// Counts holds the number of rows stored for one survey
type Counts struct {
	Stations    int
	Legs        int
	Meshes      int
	Diagnostics int
}

// SaveBundle writes b in a single transaction and returns the new survey id
func (s *Store) SaveBundle(ctx context.Context, b *model.GeometryBundle) (string, error) {
	doc := export.NewDocument(b)
	id := uuid.New().String()

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO surveys (id, title, version, metadata, timestamp, scale, center_x, center_y, center_z, z_min, z_max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, doc.Title, doc.Version, doc.Metadata, doc.Timestamp, doc.Scale,
		doc.Center[0], doc.Center[1], doc.Center[2], doc.ZRange[0], doc.ZRange[1])
	if err != nil {
		return "", fmt.Errorf("insert survey: %w", err)
	}

	// Stations
	for i, st := range doc.Stations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stations (survey_id, seq, label, x, y, z) VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, st.Label, st.Pos[0], st.Pos[1], st.Pos[2])
		if err != nil {
			return "", fmt.Errorf("insert station %q: %w", st.Label, err)
		}
	}

	// Legs, one row per run
	for _, leg := range doc.Legs {
		for i, run := range leg.Runs {
			verts, cols, err := blobs(run.Vertices, run.Colors)
			if err != nil {
				return "", fmt.Errorf("leg %s run %d: %w", leg.Key, i, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO legs (survey_id, leg_key, run, vertex_count, vertices, colors) VALUES (?, ?, ?, ?, ?, ?)
			`, id, leg.Key, i, len(run.Vertices), verts, cols)
			if err != nil {
				return "", fmt.Errorf("insert leg %s run %d: %w", leg.Key, i, err)
			}
		}
	}

	// Meshes
	for i, m := range doc.Meshes {
		verts, cols, err := blobs(m.Vertices, m.Colors)
		if err != nil {
			return "", fmt.Errorf("mesh %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO meshes (survey_id, seq, triangles, vertices, colors) VALUES (?, ?, ?, ?, ?)
		`, id, i, m.Triangles, verts, cols)
		if err != nil {
			return "", fmt.Errorf("insert mesh %d: %w", i, err)
		}
	}

	// Diagnostics
	for i, d := range doc.Diagnostics {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics (survey_id, seq, kind, byte_offset, opcode, message) VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, d.Kind, d.Offset, int(d.Opcode), d.Message)
		if err != nil {
			return "", fmt.Errorf("insert diagnostic %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Counts returns the stored row counts for survey id
func (s *Store) Counts(ctx context.Context, id string) (Counts, error) {
	var exists int
	err := s.QueryRowContext(ctx, `SELECT COUNT(*) FROM surveys WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return Counts{}, fmt.Errorf("query survey: %w", err)
	}
	if exists == 0 {
		return Counts{}, ErrNotFound
	}

	var c Counts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"stations", &c.Stations},
		{"legs", &c.Legs},
		{"meshes", &c.Meshes},
		{"diagnostics", &c.Diagnostics},
	} {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE survey_id = ?", q.table)
		if err := s.QueryRowContext(ctx, query, id).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", q.table, err)
		}
	}
	return c, nil
}

// MeshVertices loads the vertices of one stored mesh
func (s *Store) MeshVertices(ctx context.Context, id string, seq int) ([][3]float64, error) {
	var blob []byte
	err := s.QueryRowContext(ctx, `SELECT vertices FROM meshes WHERE survey_id = ? AND seq = ?`, id, seq).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query mesh: %w", err)
	}

	var verts [][3]float64
	if err := cbor.Unmarshal(blob, &verts); err != nil {
		return nil, fmt.Errorf("decode mesh vertices: %w", err)
	}
	return verts, nil
}

// DeleteSurvey removes a survey and all its rows
func (s *Store) DeleteSurvey(ctx context.Context, id string) error {
	res, err := s.ExecContext(ctx, `DELETE FROM surveys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func blobs(verts, cols [][3]float64) ([]byte, []byte, error) {
	v, err := cbor.Marshal(verts)
	if err != nil {
		return nil, nil, fmt.Errorf("encode vertices: %w", err)
	}
	c, err := cbor.Marshal(cols)
	if err != nil {
		return nil, nil, fmt.Errorf("encode colors: %w", err)
	}
	return v, c, nil
}
