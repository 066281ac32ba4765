// Package sqlitevec provides a SQLite-backed vector store using sqlite-vec.
//
// Each session gets its own database (":memory:" by default), matching the
// per-session isolation of the in-memory store while delegating the KNN scan
// to the vec0 virtual table with its cosine distance metric.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/vector"
)

// Store implements vector.Store on SQLite with sqlite-vec.
type Store struct {
	db        *sql.DB
	logger    *zap.Logger
	dimension int
	count     int
}

// Config holds configuration for the sqlite-vec store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string
}

// NewStore opens a session-scoped sqlite-vec store. The embedding dimension
// is established by the first insert, so the vec0 table is created lazily.
func NewStore(c Config, logger *zap.Logger) (*Store, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	dbPath := c.DBPath
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}

	// database/sql pools connections and every ":memory:" connection opens
	// its own empty database, so the store must stay on the single
	// connection that created its tables. Reads are cheap KNN scans and
	// sqlite serializes writes anyway, so one connection costs nothing.
	db.SetMaxOpenConns(1)

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	// Chunk texts keyed by insertion-order rowid. The vec0 table shares
	// the same rowids.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	logger.Debug("sqlite-vec store initialized",
		zap.String("db_path", dbPath),
		zap.String("vec_version", vecVersion),
	)

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Insert appends a chunk with its embedding.
func (s *Store) Insert(ctx context.Context, text string, embedding []float32) error {
	if s.dimension == 0 {
		if len(embedding) == 0 {
			return fmt.Errorf("%w: empty embedding", vector.ErrDimensionMismatch)
		}
		if err := s.createVecTable(ctx, len(embedding)); err != nil {
			return err
		}
		s.dimension = len(embedding)
	} else if len(embedding) != s.dimension {
		return fmt.Errorf("%w: got %d, store holds %d", vector.ErrDimensionMismatch, len(embedding), s.dimension)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `INSERT INTO chunks(text) VALUES (?)`, text)
	if err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting chunk rowid: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
		rowID, serializeFloat32(embedding),
	); err != nil {
		return fmt.Errorf("inserting embedding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.count++
	return nil
}

// createVecTable creates the vec0 virtual table once the dimension is known.
func (s *Store) createVecTable(ctx context.Context, dimensions int) error {
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		dimensions,
	)
	if _, err := s.db.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}
	return nil
}

// Search runs a KNN query via vec0 MATCH and joins back to the chunk texts.
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]vector.SearchResult, error) {
	if s.count == 0 || k <= 0 {
		return []vector.SearchResult{}, nil
	}
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, store holds %d", vector.ErrDimensionMismatch, len(embedding), s.dimension)
	}

	if k > s.count {
		k = s.count
	}

	// Secondary rowid ordering pins the insertion-order tie-break.
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			c.text,
			ve.distance
		FROM vec_embeddings ve
		INNER JOIN chunks c ON c.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance, c.rowid
	`, serializeFloat32(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.SearchResult
	for rows.Next() {
		var text string
		var distance float64
		if err := rows.Scan(&text, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		results = append(results, vector.SearchResult{
			Text: text,
			// vec0 cosine distance is 1 - similarity.
			Score: 1.0 - distance,
			Rank:  len(results),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	return results, nil
}

// Len reports the number of stored entries.
func (s *Store) Len() int {
	return s.count
}

// Dimension reports the established dimension, 0 before the first insert.
func (s *Store) Dimension() int {
	return s.dimension
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements vector.Store
var _ vector.Store = (*Store)(nil)
