// Package sqlitetest builds legacy pillar databases for tests.
package sqlitetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/gugo-beep/bazi-backend/pillar"
)

const legacySchema = `
	CREATE TABLE Pillars (
		gregorian_datetime TEXT PRIMARY KEY,
		year_pillar TEXT,
		month_pillar TEXT,
		day_pillar TEXT,
		hour_pillar TEXT,
		lunar_date_str TEXT,
		tai_yuan TEXT,
		ming_gong TEXT,
		shen_gong TEXT
	)`

// Row returns a legacy row with fixed pillar labels.
func Row(datetime, lunarStr string) pillar.Legacy {
	return pillar.Legacy{
		GregorianDatetime: datetime,
		Pillars:           pillar.Set{Year: "庚午", Month: "戊子", Day: "壬戌", Hour: "甲辰"},
		LunarDateStr:      lunarStr,
		TaiYuan:           "己卯",
		MingGong:          "丁亥",
		ShenGong:          "辛巳",
	}
}

// LegacyDB writes rows into a fresh legacy database under t.TempDir and
// returns its path.
func LegacyDB(t *testing.T, rows ...pillar.Legacy) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bazi_data.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(legacySchema)
	require.NoError(t, err)

	for _, r := range rows {
		_, err := db.Exec(
			"INSERT INTO Pillars VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			r.GregorianDatetime,
			r.Pillars.Year, r.Pillars.Month, r.Pillars.Day, r.Pillars.Hour,
			r.LunarDateStr, r.TaiYuan, r.MingGong, r.ShenGong,
		)
		require.NoError(t, err)
	}
	return path
}
