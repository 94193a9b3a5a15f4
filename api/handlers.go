/*
handlers.go - HTTP API handlers for pillar lookups

PURPOSE:
  Exposes the upgraded Pillars table read-only. Each endpoint maps onto one
  index of the upgraded schema.

ENDPOINTS:
  GET /api/health
  GET /api/pillars/at?datetime=1990-12-01 08:00:00
      Row in effect at that moment (latest row at or before it).
      "YYYY-MM-DD HH:MM" is accepted and completed with ":00".
  GET /api/pillars/lunar?year=1990&month=12&day=1&leap=true
  GET /api/pillars/lunar?date=一九九零年闰腊月初一
      All rows of that lunar day (idx_lunar).
  GET /api/pillars/search?year_pillar=庚午&month_pillar=戊子&day_pillar=壬戌&hour_pillar=甲辰
      All rows with those four pillars (idx_pillars).

ERROR HANDLING:
  - 400: missing or malformed query parameters
  - 404: no row in effect at the requested moment
  - 500: store failures
  List endpoints return 200 with an empty list when nothing matches.

SEE ALSO:
  - dto.go: Response structures
  - store/sqlite/lookup.go: Queries
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gugo-beep/bazi-backend/lunar"
	"github.com/gugo-beep/bazi-backend/pillar"
)

// PillarStore is the read side of the upgraded database.
type PillarStore interface {
	FindByLunar(ctx context.Context, d lunar.Date) ([]pillar.Record, error)
	FindByPillars(ctx context.Context, p pillar.Set) ([]pillar.Record, error)
	FindAtOrBefore(ctx context.Context, at time.Time) (*pillar.Record, error)
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	store PillarStore
}

// NewHandler creates a new handler.
func NewHandler(store PillarStore) *Handler {
	return &Handler{store: store}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetPillarsAt returns the row in effect at ?datetime=.
func (h *Handler) GetPillarsAt(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("datetime")
	if len(raw) == len("2006-01-02 15:04") {
		raw += ":00"
	}
	at, err := pillar.ParseTimestamp(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid datetime", err)
		return
	}

	rec, err := h.store.FindAtOrBefore(r.Context(), at)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no pillars at or before "+raw, nil)
		return
	}
	writeJSON(w, http.StatusOK, toPillarDTO(*rec))
}

// FindByLunar returns the rows of a lunar day given as ?date= or as
// ?year=&month=&day=&leap=.
func (h *Handler) FindByLunar(w http.ResponseWriter, r *http.Request) {
	d, err := lunarFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lunar date", err)
		return
	}

	recs, err := h.store.FindByLunar(r.Context(), d)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toPillarList(recs))
}

// FindByPillars returns the rows matching all four pillars.
func (h *Handler) FindByPillars(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	set := pillar.Set{
		Year:  q.Get("year_pillar"),
		Month: q.Get("month_pillar"),
		Day:   q.Get("day_pillar"),
		Hour:  q.Get("hour_pillar"),
	}
	if set.Year == "" || set.Month == "" || set.Day == "" || set.Hour == "" {
		writeError(w, http.StatusBadRequest, "year_pillar, month_pillar, day_pillar and hour_pillar are required", nil)
		return
	}

	recs, err := h.store.FindByPillars(r.Context(), set)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toPillarList(recs))
}

// =============================================================================
// HELPERS
// =============================================================================

func lunarFromQuery(r *http.Request) (lunar.Date, error) {
	q := r.URL.Query()
	if s := q.Get("date"); s != "" {
		return lunar.Parse(s)
	}

	var d lunar.Date
	var err error
	if d.Year, err = intParam(q.Get("year"), "year"); err != nil {
		return d, err
	}
	if d.Month, err = intParam(q.Get("month"), "month"); err != nil {
		return d, err
	}
	if d.Day, err = intParam(q.Get("day"), "day"); err != nil {
		return d, err
	}
	if leap := q.Get("leap"); leap != "" {
		if d.Leap, err = strconv.ParseBool(leap); err != nil {
			return d, fmt.Errorf("leap: %w", err)
		}
	}

	// the grammar's ranges double as query validation
	if _, err := lunar.Format(d); err != nil {
		return d, err
	}
	return d, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, errors.New(name + " is required")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
