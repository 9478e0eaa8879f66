// Package api exposes the stage pipeline, aggregation and scenarios over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/metal-lca/internal/aggregate"
	"github.com/sells-group/metal-lca/internal/factors"
	"github.com/sells-group/metal-lca/internal/pipeline"
	"github.com/sells-group/metal-lca/internal/scenario"
	"github.com/sells-group/metal-lca/internal/stage"
	"github.com/sells-group/metal-lca/internal/store"
	"github.com/sells-group/metal-lca/internal/threshold"
)

// Deps are the collaborators the HTTP handlers call into.
type Deps struct {
	Catalog    *stage.Catalog
	Thresholds *threshold.Table
	Factors    *factors.Table
	Projects   store.ProjectStore
	Pipeline   *pipeline.Pipeline
	Aggregator *aggregate.Aggregator
	Scenarios  *scenario.Service
}

// Server holds the handler dependencies.
type Server struct {
	deps Deps
}

// NewServer creates a Server.
func NewServer(deps Deps) *Server {
	return &Server{deps: deps}
}

// Router builds the chi route tree. An empty origin list allows any origin.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stages", s.handleStages)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Get("/", s.handleListProjects)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Delete("/", s.handleDeleteProject)

				r.Get("/aggregate", s.handleAggregate)
				r.Get("/aggregate.xlsx", s.handleAggregateXLSX)

				r.Post("/stages/{stage}", s.handleComputeStage)
				r.Get("/stages/{stage}", s.handleGetStage)
				r.Post("/stages/{stage}/scenarios", s.handleCreateScenario)
				r.Get("/stages/{stage}/scenarios", s.handleListScenarios)

				r.Get("/scenarios/{scenarioID}", s.handleGetScenario)
				r.Delete("/scenarios/{scenarioID}", s.handleDeleteScenario)
			})
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
