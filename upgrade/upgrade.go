/*
Package upgrade moves the legacy pillar database into the upgraded schema.

PURPOSE:
  One blocking pass: legacy store -> pillar.Normalize -> target store, then
  index build. The target is always rebuilt from nothing.

STEPS:
  1. Source must exist                 (ErrSourceNotFound, nothing touched)
  2. Existing target is removed        (warning; ErrTargetExists if overwrite is off)
  3. Target created with empty Pillars
  4. All legacy rows read
  5. Per row:
       bad timestamp   -> whole run fails
       bad lunar date  -> row skipped and logged
       otherwise       -> row inserted
  6. idx_lunar and idx_pillars built
  7. Stores closed, Report returned

INTERRUPTION:
  A run that stops between steps 3 and 7 leaves an invalid target. Running
  again removes it in step 2.

SEE ALSO:
  - pillar/record.go: Normalize and its failure order
  - store/sqlite/sqlite.go: Target
*/
package upgrade

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/gugo-beep/bazi-backend/lunar"
	"github.com/gugo-beep/bazi-backend/pillar"
	"github.com/gugo-beep/bazi-backend/store/sqlite"
)

var (
	// ErrSourceNotFound is returned when the legacy database does not exist.
	ErrSourceNotFound = errors.New("source database not found")

	// ErrTargetExists is returned when the target exists and overwrite is disabled.
	ErrTargetExists = errors.New("target database already exists")
)

// Report counts the legacy rows seen by a run.
type Report struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
}

// Migrator runs upgrades. The zero value is not usable; call New.
type Migrator struct {
	log       logrus.FieldLogger
	overwrite bool
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithOverwrite controls whether an existing target is replaced (default true).
func WithOverwrite(overwrite bool) Option {
	return func(m *Migrator) { m.overwrite = overwrite }
}

// New returns a Migrator logging to log.
func New(log logrus.FieldLogger, opts ...Option) *Migrator {
	m := &Migrator{log: log, overwrite: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run upgrades the database at sourcePath into a new database at targetPath.
func (m *Migrator) Run(ctx context.Context, sourcePath, targetPath string) (Report, error) {
	var report Report
	log := m.log.WithFields(logrus.Fields{"source": sourcePath, "target": targetPath})

	if _, err := os.Stat(sourcePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return report, fmt.Errorf("%w: %s", ErrSourceNotFound, sourcePath)
		}
		return report, fmt.Errorf("failed to stat source: %w", err)
	}

	if err := m.clearTarget(log, targetPath); err != nil {
		return report, err
	}

	tgt, err := sqlite.CreateTarget(targetPath)
	if err != nil {
		return report, err
	}
	defer tgt.Close()

	src, err := sqlite.OpenSource(sourcePath)
	if err != nil {
		return report, err
	}
	defer src.Close()

	rows, err := src.LegacyRecords(ctx)
	if err != nil {
		return report, err
	}
	report.Total = len(rows)
	log.WithField("total", report.Total).Info("legacy records loaded, converting")

	err = tgt.WithTx(ctx, func(w sqlite.RecordWriter) error {
		for _, row := range rows {
			rec, err := pillar.Normalize(row)
			if errors.Is(err, lunar.ErrParse) {
				report.Skipped++
				log.WithFields(logrus.Fields{
					"gregorian_datetime": row.GregorianDatetime,
					"input":              row.LunarDateStr,
					"pillars":            row.Pillars.String(),
					"error":              err,
				}).Error("lunar date not parsed, record skipped")
				continue
			}
			if err != nil {
				return err
			}

			if err := w.Insert(ctx, rec); err != nil {
				return err
			}
			report.Succeeded++
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	log.Info("records written, building indexes")
	if err := tgt.BuildIndexes(); err != nil {
		return report, err
	}

	if err := src.Close(); err != nil {
		return report, fmt.Errorf("failed to close source: %w", err)
	}
	if err := tgt.Close(); err != nil {
		return report, fmt.Errorf("failed to close target: %w", err)
	}

	log.WithFields(logrus.Fields{
		"total":     report.Total,
		"succeeded": report.Succeeded,
		"skipped":   report.Skipped,
	}).Info("upgrade complete")
	return report, nil
}

func (m *Migrator) clearTarget(log logrus.FieldLogger, targetPath string) error {
	_, err := os.Stat(targetPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat target: %w", err)
	}
	if !m.overwrite {
		return fmt.Errorf("%w: %s", ErrTargetExists, targetPath)
	}

	log.Warn("target database exists, removing it")
	if err := os.Remove(targetPath); err != nil {
		return fmt.Errorf("failed to remove target: %w", err)
	}
	// a journal left by an interrupted run must not be replayed into the new file
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		if err := os.Remove(targetPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove target %s: %w", suffix, err)
		}
	}
	return nil
}
