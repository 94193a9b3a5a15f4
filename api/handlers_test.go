/*
handlers_test.go - Tests for the lookup API

Tests run the full router against a real upgraded SQLite target.
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gugo-beep/bazi-backend/lunar"
	"github.com/gugo-beep/bazi-backend/pillar"
	"github.com/gugo-beep/bazi-backend/store/sqlite"
	"github.com/gugo-beep/bazi-backend/store/sqlite/sqlitetest"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T, rows ...pillar.Legacy) http.Handler {
	path := filepath.Join(t.TempDir(), "bazi_data_v2.db")
	tgt, err := sqlite.CreateTarget(path)
	require.NoError(t, err)
	t.Cleanup(func() { tgt.Close() })

	ctx := context.Background()
	err = tgt.WithTx(ctx, func(w sqlite.RecordWriter) error {
		for _, row := range rows {
			rec, err := pillar.Normalize(row)
			require.NoError(t, err)
			if err := w.Insert(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, tgt.BuildIndexes())

	log, _ := test.NewNullLogger()
	return NewRouter(NewHandler(tgt), log, []string{"*"})
}

func get(t *testing.T, h http.Handler, path string, query url.Values) *httptest.ResponseRecorder {
	target := path
	if query != nil {
		target += "?" + query.Encode()
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var fixtureRows = []pillar.Legacy{
	sqlitetest.Row("1990-12-01 08:00:00", "一九九零年腊月初一"),
	sqlitetest.Row("1990-12-01 10:00:00", "一九九零年腊月初一"),
	sqlitetest.Row("1991-01-16 08:00:00", "一九九零年闰腊月初一"),
}

// =============================================================================
// ENDPOINTS
// =============================================================================

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := get(t, srv, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPillarsAt(t *testing.T) {
	srv := newTestServer(t, fixtureRows...)

	rec := get(t, srv, "/api/pillars/at", url.Values{"datetime": {"1990-12-01 09:30:00"}})
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[PillarDTO](t, rec)
	assert.Equal(t, "1990-12-01 08:00:00", dto.GregorianDatetime)
	assert.Equal(t, 12, dto.LunarMonth)
	assert.False(t, dto.IsLeapMonth)

	// minute precision is completed with :00
	rec = get(t, srv, "/api/pillars/at", url.Values{"datetime": {"1990-12-01 10:00"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1990-12-01 10:00:00", decode[PillarDTO](t, rec).GregorianDatetime)
}

func TestGetPillarsAt_Errors(t *testing.T) {
	srv := newTestServer(t, fixtureRows...)

	rec := get(t, srv, "/api/pillars/at", url.Values{"datetime": {"yesterday"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid datetime", decode[ErrorResponse](t, rec).Error)

	rec = get(t, srv, "/api/pillars/at", url.Values{"datetime": {"1900-01-01 00:00:00"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFindByLunar_Tuple(t *testing.T) {
	srv := newTestServer(t, fixtureRows...)

	rec := get(t, srv, "/api/pillars/lunar", url.Values{
		"year": {"1990"}, "month": {"12"}, "day": {"1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[PillarListResponse](t, rec)
	assert.Equal(t, 2, list.Count)

	rec = get(t, srv, "/api/pillars/lunar", url.Values{
		"year": {"1990"}, "month": {"12"}, "day": {"1"}, "leap": {"true"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	list = decode[PillarListResponse](t, rec)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "1991-01-16 08:00:00", list.Pillars[0].GregorianDatetime)
	assert.True(t, list.Pillars[0].IsLeapMonth)
}

func TestFindByLunar_String(t *testing.T) {
	srv := newTestServer(t, fixtureRows...)

	rec := get(t, srv, "/api/pillars/lunar", url.Values{"date": {"一九九〇年闰腊月初一"}})
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[PillarListResponse](t, rec)
	require.Equal(t, 1, list.Count)
	// stored text is returned untouched even though the query used 〇
	assert.Equal(t, "一九九零年闰腊月初一", list.Pillars[0].LunarDateStr)
}

func TestFindByLunar_NoMatchIsEmptyList(t *testing.T) {
	srv := newTestServer(t, fixtureRows...)

	rec := get(t, srv, "/api/pillars/lunar", url.Values{"year": {"2000"}, "month": {"1"}, "day": {"1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[PillarListResponse](t, rec)
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Pillars)
}

func TestFindByLunar_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	for _, q := range []url.Values{
		{"date": {"一九九零年怪月初一"}},
		{"month": {"12"}, "day": {"1"}},
		{"year": {"1990"}, "month": {"13"}, "day": {"1"}},
		{"year": {"1990"}, "month": {"12"}, "day": {"31"}},
		{"year": {"1990"}, "month": {"x"}, "day": {"1"}},
		{"year": {"1990"}, "month": {"12"}, "day": {"1"}, "leap": {"maybe"}},
	} {
		rec := get(t, srv, "/api/pillars/lunar", q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q.Encode())
	}
}

func TestFindByPillars(t *testing.T) {
	srv := newTestServer(t, fixtureRows...)

	rec := get(t, srv, "/api/pillars/search", url.Values{
		"year_pillar": {"庚午"}, "month_pillar": {"戊子"}, "day_pillar": {"壬戌"}, "hour_pillar": {"甲辰"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[PillarListResponse](t, rec).Count)

	rec = get(t, srv, "/api/pillars/search", url.Values{"year_pillar": {"庚午"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// STORE FAILURES
// =============================================================================

type failingStore struct{}

var errStore = errors.New("database is locked")

func (failingStore) FindByLunar(context.Context, lunar.Date) ([]pillar.Record, error) {
	return nil, errStore
}

func (failingStore) FindByPillars(context.Context, pillar.Set) ([]pillar.Record, error) {
	return nil, errStore
}

func (failingStore) FindAtOrBefore(context.Context, time.Time) (*pillar.Record, error) {
	return nil, errStore
}

func TestStoreFailureIs500(t *testing.T) {
	log, _ := test.NewNullLogger()
	srv := NewRouter(NewHandler(failingStore{}), log, nil)

	rec := get(t, srv, "/api/pillars/at", url.Values{"datetime": {"1990-12-01 08:00:00"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errStore.Error(), decode[ErrorResponse](t, rec).Details)

	rec = get(t, srv, "/api/pillars/lunar", url.Values{"year": {"1990"}, "month": {"12"}, "day": {"1"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = get(t, srv, "/api/pillars/search", url.Values{
		"year_pillar": {"庚午"}, "month_pillar": {"戊子"}, "day_pillar": {"壬戌"}, "hour_pillar": {"甲辰"},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
