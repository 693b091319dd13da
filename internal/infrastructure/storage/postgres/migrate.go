package postgres

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/jackc/pgx/v5"

	"posledger/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrationLockKey serializes migrators across processes.
const migrationLockKey = 7462001

// SchemaInfo describes the applied schema.
type SchemaInfo struct {
	Version string `json:"version"`
	Applied int    `json:"applied"`
}

// Migrator applies the embedded SQL migrations in filename order. Each file
// runs in its own transaction and is recorded with its sha256 checksum; an
// applied file whose checksum changed stops the run.
type Migrator struct {
	pool  *Pool
	files fs.FS
}

// NewMigrator creates a migrator over the embedded migrations.
func NewMigrator(pool *Pool) *Migrator {
	return &Migrator{pool: pool, files: migrationFiles}
}

type migration struct {
	version  string
	filename string
	sql      string
	checksum string
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) (SchemaInfo, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return SchemaInfo{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockKey).Scan(&locked); err != nil {
		return SchemaInfo{}, fmt.Errorf("query advisory lock: %w", err)
	}
	if !locked {
		return SchemaInfo{}, errors.New("another migrator holds the schema lock")
	}
	defer func() {
		if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockKey); err != nil {
			logger.Warn(ctx, "advisory unlock failed", "error", err)
		}
	}()

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sys_schema_migrations (
			version    text PRIMARY KEY,
			filename   text NOT NULL,
			checksum   text NOT NULL,
			applied_at timestamptz NOT NULL DEFAULT now()
		)`); err != nil {
		return SchemaInfo{}, fmt.Errorf("create sys_schema_migrations: %w", err)
	}

	migrations, err := m.load()
	if err != nil {
		return SchemaInfo{}, err
	}

	var info SchemaInfo
	for _, mig := range migrations {
		applied, err := m.apply(ctx, conn.Conn(), mig)
		if err != nil {
			return info, err
		}
		if applied {
			info.Applied++
			logger.Info(ctx, "migration applied", "version", mig.version, "file", mig.filename)
		}
		info.Version = mig.version
	}
	return info, nil
}

// Version returns the newest applied migration.
func (m *Migrator) Version(ctx context.Context) (SchemaInfo, error) {
	var info SchemaInfo
	err := m.pool.QueryRow(ctx,
		"SELECT version, count(*) OVER () FROM sys_schema_migrations ORDER BY version DESC LIMIT 1",
	).Scan(&info.Version, &info.Applied)
	if errors.Is(err, pgx.ErrNoRows) {
		return SchemaInfo{}, nil
	}
	if err != nil {
		return SchemaInfo{}, fmt.Errorf("read schema version: %w", err)
	}
	return info, nil
}

func (m *Migrator) load() ([]migration, error) {
	entries, err := fs.ReadDir(m.files, "migrations")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		body, err := fs.ReadFile(m.files, path.Join("migrations", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		sum := sha256.Sum256(body)
		out = append(out, migration{
			version:  versionOf(e.Name()),
			filename: e.Name(),
			sql:      string(body),
			checksum: hex.EncodeToString(sum[:]),
		})
	}
	return out, nil
}

func (m *Migrator) apply(ctx context.Context, conn *pgx.Conn, mig migration) (bool, error) {
	var existing string
	err := conn.QueryRow(ctx, "SELECT checksum FROM sys_schema_migrations WHERE version = $1", mig.version).Scan(&existing)
	switch {
	case err == nil:
		if existing != mig.checksum {
			return false, fmt.Errorf("checksum mismatch for %s: recorded %s, file %s", mig.filename, existing, mig.checksum)
		}
		return false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return false, fmt.Errorf("lookup migration %s: %w", mig.filename, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin %s: %w", mig.filename, err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, mig.sql); err != nil {
		return false, fmt.Errorf("apply %s: %w", mig.filename, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO sys_schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		mig.version, mig.filename, mig.checksum,
	); err != nil {
		return false, fmt.Errorf("record %s: %w", mig.filename, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit %s: %w", mig.filename, err)
	}
	return true, nil
}

func versionOf(filename string) string {
	base := strings.TrimSuffix(filename, ".sql")
	if i := strings.IndexByte(base, '_'); i > 0 {
		return base[:i]
	}
	return base
}
