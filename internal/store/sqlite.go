package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/rcliao/nodeset-import/internal/model"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "pgx"
)

// SQLStore implements Store on database/sql. It runs on SQLite or
// PostgreSQL; queries are written with ? placeholders and rebound per driver.
type SQLStore struct {
	db     *sql.DB
	driver string
	path   string
}

var _ Store = (*SQLStore)(nil)

// Open picks the backend from dsn: postgres:// and postgresql:// URLs use
// PostgreSQL, anything else is a SQLite file path.
func Open(dsn string) (*SQLStore, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return NewPostgresStore(dsn)
	}
	return NewSQLiteStore(dsn)
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open(driverSQLite, dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return newSQLStore(db, driverSQLite, dbPath)
}

// NewPostgresStore connects to PostgreSQL through the pgx stdlib driver.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open(driverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return newSQLStore(db, driverPostgres, "")
}

func newSQLStore(db *sql.DB, driver, path string) (*SQLStore, error) {
	s := &SQLStore{db: db, driver: driver, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS nodesets (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			file_name       TEXT NOT NULL,
			size            BIGINT NOT NULL DEFAULT 0,
			checksum        TEXT NOT NULL,
			namespaces      TEXT NOT NULL,
			models          TEXT,
			required_models TEXT,
			node_count      INTEGER NOT NULL DEFAULT 0,
			loaded_at       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodesets_checksum ON nodesets(checksum)`,
		`CREATE INDEX IF NOT EXISTS idx_nodesets_loaded ON nodesets(loaded_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != driverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM kv WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, string(value), now)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) SaveNodeset(ctx context.Context, meta model.NodesetMetadata) error {
	namespaces, _ := json.Marshal(meta.Namespaces)
	var models, required *string
	if len(meta.Models) > 0 {
		b, _ := json.Marshal(meta.Models)
		v := string(b)
		models = &v
	}
	if len(meta.RequiredModels) > 0 {
		b, _ := json.Marshal(meta.RequiredModels)
		v := string(b)
		required = &v
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO nodesets (id, name, file_name, size, checksum, namespaces, models, required_models, node_count, loaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, file_name = excluded.file_name, size = excluded.size,
		   checksum = excluded.checksum, namespaces = excluded.namespaces, models = excluded.models,
		   required_models = excluded.required_models, node_count = excluded.node_count,
		   loaded_at = excluded.loaded_at`),
		meta.ID, meta.Name, meta.FileName, meta.Size, meta.Checksum, string(namespaces),
		models, required, meta.NodeCount, meta.LoadedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert nodeset: %w", err)
	}
	return nil
}

func (s *SQLStore) ListNodesets(ctx context.Context) ([]model.NodesetMetadata, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, file_name, size, checksum, namespaces, models, required_models, node_count, loaded_at
		 FROM nodesets ORDER BY loaded_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.NodesetMetadata
	for rows.Next() {
		m, err := scanNodeset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteNodeset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM nodesets WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete nodeset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("nodeset %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNodeset(row scanner) (model.NodesetMetadata, error) {
	var m model.NodesetMetadata
	var namespaces, loadedAt string
	var models, required sql.NullString

	err := row.Scan(&m.ID, &m.Name, &m.FileName, &m.Size, &m.Checksum,
		&namespaces, &models, &required, &m.NodeCount, &loadedAt)
	if err != nil {
		return m, err
	}

	if m.LoadedAt, err = time.Parse(time.RFC3339Nano, loadedAt); err != nil {
		return m, fmt.Errorf("decode loaded_at of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(namespaces), &m.Namespaces); err != nil {
		return m, fmt.Errorf("decode namespaces of %s: %w", m.ID, err)
	}
	if models.Valid {
		if err := json.Unmarshal([]byte(models.String), &m.Models); err != nil {
			return m, fmt.Errorf("decode models of %s: %w", m.ID, err)
		}
	}
	if required.Valid {
		if err := json.Unmarshal([]byte(required.String), &m.RequiredModels); err != nil {
			return m, fmt.Errorf("decode required models of %s: %w", m.ID, err)
		}
	}
	return m, nil
}
