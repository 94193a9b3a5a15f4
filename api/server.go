/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack and routes of the read-only
  lookup API served over an upgraded pillar database.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging through the process logger
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin GETs for the frontend

ROUTES:
  /api/health              Liveness
  /api/pillars/at          Row in effect at a Gregorian moment
  /api/pillars/lunar       Rows for a lunar day (tuple or lunar string)
  /api/pillars/search      Rows matching four pillars

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/bazi/serve.go: Server startup
*/
package api

import (
	"log"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger logrus.FieldLogger, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(logrusWriter(logger), "", 0),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/pillars", func(r chi.Router) {
			r.Get("/at", h.GetPillarsAt)
			r.Get("/lunar", h.FindByLunar)
			r.Get("/search", h.FindByPillars)
		})
	})

	return r
}

// logrusWriter adapts the logger to the io.Writer chi's formatter expects.
func logrusWriter(logger logrus.FieldLogger) *logrusPipe {
	return &logrusPipe{logger: logger}
}

type logrusPipe struct {
	logger logrus.FieldLogger
}

func (p *logrusPipe) Write(b []byte) (int, error) {
	msg := string(b)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	p.logger.Info(msg)
	return len(b), nil
}
