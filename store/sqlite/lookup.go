package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gugo-beep/bazi-backend/lunar"
	"github.com/gugo-beep/bazi-backend/pillar"
)

// =============================================================================
// LOOKUPS - served by the api package against an upgraded target
// =============================================================================

const recordColumns = `
	gregorian_datetime, gregorian_year, gregorian_month, gregorian_day, hour,
	lunar_date_str, lunar_year, lunar_month, lunar_day, is_leap_month,
	year_pillar, month_pillar, day_pillar, hour_pillar,
	tai_yuan, ming_gong, shen_gong`

// Records returns every row ordered by gregorian_datetime.
func (t *Target) Records(ctx context.Context) ([]pillar.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	query := "SELECT" + recordColumns + " FROM Pillars ORDER BY gregorian_datetime"
	return t.queryRecords(ctx, query)
}

// FindByLunar returns the rows for a lunar day (all hours), using idx_lunar.
func (t *Target) FindByLunar(ctx context.Context, d lunar.Date) ([]pillar.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	query := "SELECT" + recordColumns + `
		FROM Pillars
		WHERE lunar_year = ? AND lunar_month = ? AND lunar_day = ? AND is_leap_month = ?
		ORDER BY gregorian_datetime`

	return t.queryRecords(ctx, query, d.Year, d.Month, d.Day, d.LeapFlag())
}

// FindByPillars returns the rows whose four pillars match, using idx_pillars.
func (t *Target) FindByPillars(ctx context.Context, p pillar.Set) ([]pillar.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	query := "SELECT" + recordColumns + `
		FROM Pillars
		WHERE year_pillar = ? AND month_pillar = ? AND day_pillar = ? AND hour_pillar = ?
		ORDER BY gregorian_datetime`

	return t.queryRecords(ctx, query, p.Year, p.Month, p.Day, p.Hour)
}

// FindAtOrBefore returns the latest row at or before at, or nil when none.
// Rows are stored per pillar boundary, so this is the row in effect at that moment.
func (t *Target) FindAtOrBefore(ctx context.Context, at time.Time) (*pillar.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	query := "SELECT" + recordColumns + `
		FROM Pillars
		WHERE gregorian_datetime <= ?
		ORDER BY gregorian_datetime DESC
		LIMIT 1`

	recs, err := t.queryRecords(ctx, query, pillar.FormatTimestamp(at))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (t *Target) queryRecords(ctx context.Context, query string, args ...any) ([]pillar.Record, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pillars: %w", err)
	}
	defer rows.Close()

	var records []pillar.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (pillar.Record, error) {
	var (
		rec  pillar.Record
		leap int
	)

	err := rows.Scan(
		&rec.GregorianDatetime, &rec.GregorianYear, &rec.GregorianMonth, &rec.GregorianDay, &rec.Hour,
		&rec.LunarDateStr, &rec.Lunar.Year, &rec.Lunar.Month, &rec.Lunar.Day, &leap,
		&rec.Pillars.Year, &rec.Pillars.Month, &rec.Pillars.Day, &rec.Pillars.Hour,
		&rec.TaiYuan, &rec.MingGong, &rec.ShenGong,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan pillar: %w", err)
	}
	rec.Lunar.Leap = leap == 1
	return rec, nil
}
