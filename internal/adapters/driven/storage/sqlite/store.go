package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/disk"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// IndexFileName is the database file inside a session's models directory.
const IndexFileName = "index.db"

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore keeps one SQLite database per session.
type IndexStore struct {
	layout disk.Layout
}

// NewIndexStore creates an index store rooted at root.
func NewIndexStore(root string) (*IndexStore, error) {
	l := disk.Layout{Root: root}
	if err := os.MkdirAll(l.ModelsDir(), 0700); err != nil {
		return nil, fmt.Errorf("creating models directory: %w", err)
	}
	return &IndexStore{layout: l}, nil
}

// Path returns the database path for a session.
func (s *IndexStore) Path(sessionID string) (string, error) {
	dir, err := s.layout.IndexDir(sessionID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, IndexFileName), nil
}

// open opens a session database, running migrations.
func open(ctx context.Context, dbPath string) (*sql.DB, error) {
	// WAL for concurrent readers; busy_timeout for writers racing a reader.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := migrate(ctx, db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// Save replaces the session's index with snap.
func (s *IndexStore) Save(ctx context.Context, sessionID string, snap *domain.IndexSnapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil index snapshot", domain.ErrInvalidInput)
	}
	dbPath, err := s.Path(sessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	db, err := open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, embedding_model, dimensions, chunk_count, created_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			embedding_model = excluded.embedding_model,
			dimensions = excluded.dimensions,
			chunk_count = excluded.chunk_count,
			created_at = excluded.created_at
	`, snap.EmbeddingModel, snap.Dimensions, len(snap.Chunks), time.Now().UTC()); err != nil {
		return fmt.Errorf("saving index metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (position, page, content, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range snap.Chunks {
		if _, err := stmt.ExecContext(ctx, i, c.Page, c.Text, float32SliceToBytes(c.Vector)); err != nil {
			return fmt.Errorf("saving chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index: %w", err)
	}
	logger.Debug("sqlite: saved %d chunks for %s", len(snap.Chunks), sessionID)
	return nil
}

// Load reads the session's index in insertion order.
func (s *IndexStore) Load(ctx context.Context, sessionID string) (*domain.IndexSnapshot, error) {
	dbPath, err := s.Path(sessionID)
	if err != nil {
		return nil, err
	}
	// sql.Open would create a missing file.
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return nil, &domain.IndexNotFoundError{SessionID: sessionID}
	} else if err != nil {
		return nil, fmt.Errorf("stat index: %w", err)
	}

	db, err := open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var (
		snap       domain.IndexSnapshot
		chunkCount int
	)
	row := db.QueryRowContext(ctx, `SELECT embedding_model, dimensions, chunk_count FROM index_meta WHERE id = 1`)
	if err := row.Scan(&snap.EmbeddingModel, &snap.Dimensions, &chunkCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.IndexNotFoundError{SessionID: sessionID}
		}
		return nil, fmt.Errorf("reading index metadata: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT page, content, embedding FROM chunks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	defer rows.Close()

	snap.Chunks = make([]domain.Chunk, 0, chunkCount)
	for rows.Next() {
		var (
			c    domain.Chunk
			blob []byte
		)
		if err := rows.Scan(&c.Page, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Vector = bytesToFloat32Slice(blob)
		snap.Chunks = append(snap.Chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	if len(snap.Chunks) != chunkCount {
		return nil, fmt.Errorf("index for %s is incomplete: %d of %d chunks", sessionID, len(snap.Chunks), chunkCount)
	}

	return &snap, nil
}

// Exists reports whether an index file is present.
func (s *IndexStore) Exists(_ context.Context, sessionID string) (bool, error) {
	dbPath, err := s.Path(sessionID)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(dbPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the session's models directory.
func (s *IndexStore) Delete(_ context.Context, sessionID string) error {
	dir, err := s.layout.IndexDir(sessionID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting index of %s: %w", sessionID, err)
	}
	return nil
}

// migrate runs all pending migrations.
func migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_index.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
