package vecstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// metaDB is the SQLite side of the local index. It holds one row per
// record so deletes can be filtered by file path, which the HNSW graph
// cannot do on its own, and a state table pinning the embedding dimension
// and model the index was created with.
type metaDB struct {
	db *sql.DB
}

const metaSchema = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	file_path  TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_file_path ON records(file_path);

CREATE TABLE IF NOT EXISTS state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const (
	stateKeyDimensions = "dimensions"
	stateKeyModel      = "model"
)

func openMetaDB(path string) (*metaDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open metadata db: %w", err)
	}

	// Single writer; the flock on the index directory already serializes
	// processes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(metaSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create metadata schema: %w", err)
	}

	return &metaDB{db: db}, nil
}

// upsertRecords writes record rows in one transaction.
func (m *metaDB) upsertRecords(ctx context.Context, records []Record) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, file_path, start_line, end_line)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_path = excluded.file_path,
			start_line = excluded.start_line,
			end_line = excluded.end_line`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Meta.FilePath, rec.Meta.StartLine, rec.Meta.EndLine); err != nil {
			return fmt.Errorf("upsert record %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// idsForFiles returns the ids of all records stored for the given paths.
func (m *metaDB) idsForFiles(ctx context.Context, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(paths))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(paths))
	for i, p := range paths {
		args[i] = p
	}

	rows, err := m.db.QueryContext(ctx,
		"SELECT id FROM records WHERE file_path IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("query records by file: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// deleteByFiles removes record rows for the given paths.
func (m *metaDB) deleteByFiles(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(paths))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(paths))
	for i, p := range paths {
		args[i] = p
	}

	res, err := m.db.ExecContext(ctx,
		"DELETE FROM records WHERE file_path IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("delete records by file: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (m *metaDB) countRecords(ctx context.Context) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}

// fileCounts returns live record counts grouped by file path.
func (m *metaDB) fileCounts(ctx context.Context) (map[string]int, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT file_path, COUNT(*) FROM records GROUP BY file_path")
	if err != nil {
		return nil, fmt.Errorf("query file counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var path string
		var n int
		if err := rows.Scan(&path, &n); err != nil {
			return nil, fmt.Errorf("scan file count: %w", err)
		}
		counts[path] = n
	}
	return counts, rows.Err()
}

// getState reads a state value. Missing keys return "" without error.
func (m *metaDB) getState(ctx context.Context, key string) (string, error) {
	var value string
	err := m.db.QueryRowContext(ctx, "SELECT value FROM state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (m *metaDB) setState(ctx context.Context, key, value string) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (m *metaDB) close() error {
	return m.db.Close()
}
