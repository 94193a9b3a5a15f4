/*
Package sqlite provides the SQLite-backed legacy source and upgraded target stores.

PURPOSE:
  Source reads the old Pillars table. Target owns the new Pillars table: it is
  created from embedded migrations, filled inside one transaction, indexed
  after the load and then queried by the lookup API.

KEY TABLES:
  Pillars (source): gregorian_datetime, four pillars, lunar_date_str,
                    tai_yuan, ming_gong, shen_gong
  Pillars (target): the source columns plus decomposed Gregorian and lunar
                    integers (17 columns, gregorian_datetime PRIMARY KEY)

MIGRATIONS:
  migrations/ is embedded and applied with golang-migrate:
  1_create_pillars  applied by CreateTarget, before any row is written
  2_pillar_indexes  applied by BuildIndexes, after the bulk load
  Splitting them keeps index maintenance out of the insert loop.
  golang-migrate records its position in schema_migrations (one row, plus the
  version_unique index). That table stays in the target next to Pillars; the
  lookup API never reads it.

INDEXES:
  - idx_lunar:   (lunar_year, lunar_month, lunar_day, is_leap_month)
  - idx_pillars: (year_pillar, month_pillar, day_pillar, hour_pillar)

CONCURRENCY:
  The target is opened with a single connection; the upgrade has exactly one
  writer. A read-only target (OpenTarget) keeps the default pool and uses
  sync.RWMutex like any other reader.

USAGE:
  tgt, err := sqlite.CreateTarget("./data/bazi_data_v2.db")
  if err != nil {
      return err
  }
  defer tgt.Close()

  err = tgt.WithTx(ctx, func(w sqlite.RecordWriter) error {
      return w.Insert(ctx, rec)
  })
  err = tgt.BuildIndexes()

SEE ALSO:
  - source.go: legacy reader
  - lookup.go: queries served by the api package
  - upgrade/upgrade.go: the only writer
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gugo-beep/bazi-backend/pillar"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrNotMigrated is returned by OpenTarget when the file has no Pillars table.
	ErrNotMigrated = errors.New("target has no Pillars table")

	// ErrReadOnly is returned when a write is attempted on a target opened with OpenTarget.
	ErrReadOnly = errors.New("target opened read-only")
)

// Target is the upgraded pillar store.
type Target struct {
	db *sql.DB
	m  *migrate.Migrate
	mu sync.RWMutex
}

// RecordWriter inserts normalized rows inside a WithTx call.
type RecordWriter interface {
	Insert(ctx context.Context, rec pillar.Record) error
}

// CreateTarget opens (creating if needed) the database at path and creates the
// Pillars table. The file is expected to be absent or empty; the caller owns
// removing a previous target.
func CreateTarget(path string) (*Target, error) {
	db, err := sql.Open("sqlite3", fileDSN(path, "rwc"))
	if err != nil {
		return nil, fmt.Errorf("failed to open target: %w", err)
	}
	db.SetMaxOpenConns(1)

	m, err := newMigrator(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	t := &Target{db: db, m: m}
	if err := m.Steps(1); err != nil {
		t.Close()
		return nil, fmt.Errorf("failed to create Pillars table: %w", err)
	}
	return t, nil
}

// OpenTarget opens an upgraded database read-only.
func OpenTarget(path string) (*Target, error) {
	db, err := sql.Open("sqlite3", fileDSN(path, "ro"))
	if err != nil {
		return nil, fmt.Errorf("failed to open target: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open target %s: %w", path, err)
	}

	var n int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'Pillars'").Scan(&n)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to inspect target: %w", err)
	}
	if n == 0 {
		db.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotMigrated, path)
	}

	return &Target{db: db}, nil
}

// fileDSN builds a SQLite URI filename. The path is percent-escaped so that
// '?' and '#' in a directory name are not read as query or fragment.
func fileDSN(path, mode string) string {
	u := url.URL{Path: path}
	return "file:" + u.EscapedPath() + "?mode=" + mode
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	drv, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return nil, fmt.Errorf("failed to init migrations: %w", err)
	}
	return m, nil
}

// Close closes the database connection.
func (t *Target) Close() error {
	if t.m != nil {
		srcErr, dbErr := t.m.Close()
		return errors.Join(srcErr, dbErr)
	}
	return t.db.Close()
}

// BuildIndexes applies the remaining migrations (the lookup indexes).
func (t *Target) BuildIndexes() error {
	if t.m == nil {
		return ErrReadOnly
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to build indexes: %w", err)
	}
	return nil
}

// Indexes returns the names of the user-defined indexes on Pillars.
func (t *Target) Indexes(ctx context.Context) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows, err := t.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'Pillars' AND sql IS NOT NULL ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// =============================================================================
// WRITES
// =============================================================================

// WithTx executes fn within a database transaction.
// If fn returns error, the transaction is rolled back.
func (t *Target) WithTx(ctx context.Context, fn func(w RecordWriter) error) error {
	if t.m == nil {
		return ErrReadOnly
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txWriter{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txWriter struct {
	tx *sql.Tx
}

func (w *txWriter) Insert(ctx context.Context, rec pillar.Record) error {
	query := `
		INSERT INTO Pillars
		(gregorian_datetime, gregorian_year, gregorian_month, gregorian_day, hour,
		 lunar_date_str, lunar_year, lunar_month, lunar_day, is_leap_month,
		 year_pillar, month_pillar, day_pillar, hour_pillar,
		 tai_yuan, ming_gong, shen_gong)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := w.tx.ExecContext(ctx, query,
		rec.GregorianDatetime,
		rec.GregorianYear,
		rec.GregorianMonth,
		rec.GregorianDay,
		rec.Hour,
		rec.LunarDateStr,
		rec.Lunar.Year,
		rec.Lunar.Month,
		rec.Lunar.Day,
		rec.Lunar.LeapFlag(),
		rec.Pillars.Year,
		rec.Pillars.Month,
		rec.Pillars.Day,
		rec.Pillars.Hour,
		rec.TaiYuan,
		rec.MingGong,
		rec.ShenGong,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", rec.GregorianDatetime, err)
	}
	return nil
}
