// Package handler implements the HTTP handlers for the activity log API.
// All handlers are methods on Server; Routes mounts them on a chi router.
// Methods are split into resource files (health.go, activity.go) but all
// share the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/activity-log/internal/clock"
	"github.com/pkordes/activity-log/internal/domain"
	"github.com/pkordes/activity-log/spec"
)

// ActivityServicer defines the store operations the activity handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching storage.
type ActivityServicer interface {
	List() []domain.Activity
	Create(ctx context.Context, in domain.ActivityInput) ([]domain.Activity, error)
	Update(ctx context.Context, id int64, in domain.ActivityInput) ([]domain.Activity, error)
	Delete(ctx context.Context, id int64) ([]domain.Activity, error)
}

// Colorer assigns a display colour to a category.
type Colorer interface {
	Color(category string) string
}

// Server holds the dependencies shared by every handler.
type Server struct {
	activities ActivityServicer
	colors     Colorer
	clock      clock.Clock
}

// NewServer constructs the Server with all its dependencies.
func NewServer(activities ActivityServicer, colors Colorer, c clock.Clock) *Server {
	return &Server{activities: activities, colors: colors, clock: c}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, clock.Real())
}

// Routes returns a router with every endpoint registered.
// Mount it under the application router in main.go.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/activities", func(r chi.Router) {
		r.Get("/", s.ListActivities)
		r.Post("/", s.CreateActivity)
		r.Put("/{id}", s.UpdateActivity)
		r.Delete("/{id}", s.DeleteActivity)
	})

	return r
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}

// writeJSON encodes body as the JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
