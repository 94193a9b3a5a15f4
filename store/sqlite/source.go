package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gugo-beep/bazi-backend/pillar"
)

// Source reads the legacy Pillars table. It never writes.
type Source struct {
	db *sql.DB
}

// OpenSource opens the legacy database at path read-only.
func OpenSource(path string) (*Source, error) {
	db, err := sql.Open("sqlite3", fileDSN(path, "ro"))
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open source %s: %w", path, err)
	}
	return &Source{db: db}, nil
}

// NewSource wraps an already opened legacy database.
func NewSource(db *sql.DB) *Source {
	return &Source{db: db}
}

// Close closes the database connection.
func (s *Source) Close() error {
	return s.db.Close()
}

// LegacyRecords returns every legacy row in the table's natural order.
func (s *Source) LegacyRecords(ctx context.Context) ([]pillar.Legacy, error) {
	query := `
		SELECT gregorian_datetime, year_pillar, month_pillar, day_pillar, hour_pillar,
		       lunar_date_str, tai_yuan, ming_gong, shen_gong
		FROM Pillars
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy pillars: %w", err)
	}
	defer rows.Close()

	var records []pillar.Legacy
	for rows.Next() {
		rec, err := scanLegacy(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read legacy pillars: %w", err)
	}
	return records, nil
}

func scanLegacy(rows *sql.Rows) (pillar.Legacy, error) {
	var (
		datetime, lunarStr          sql.NullString
		year, month, day, hour      sql.NullString
		taiYuan, mingGong, shenGong sql.NullString
	)

	err := rows.Scan(
		&datetime, &year, &month, &day, &hour,
		&lunarStr, &taiYuan, &mingGong, &shenGong,
	)
	if err != nil {
		return pillar.Legacy{}, fmt.Errorf("failed to scan legacy pillar: %w", err)
	}

	return pillar.Legacy{
		GregorianDatetime: datetime.String,
		Pillars: pillar.Set{
			Year:  year.String,
			Month: month.String,
			Day:   day.String,
			Hour:  hour.String,
		},
		LunarDateStr: lunarStr.String,
		TaiYuan:      taiYuan.String,
		MingGong:     mingGong.String,
		ShenGong:     shenGong.String,
	}, nil
}
