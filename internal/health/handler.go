package health

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
)

const (
	StatusOK        = "ok"
	StatusDegraded  = "degraded"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts a redis client to the Checker interface.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Dependency is a named component reported by the health endpoint.
type Dependency struct {
	Name    string
	Checker Checker
}

// Handler handles health check operations.
type Handler struct {
	deps []Dependency
}

// NewHandler creates a new health handler reporting on deps in order.
func NewHandler(deps ...Dependency) *Handler {
	return &Handler{deps: deps}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string            `doc:"ok, or degraded when a dependency is unhealthy" json:"status"`
		Checks map[string]string `doc:"Per-dependency status"                          json:"checks"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = StatusOK
	resp.Body.Checks = make(map[string]string, len(h.deps))

	for _, dep := range h.deps {
		if err := dep.Checker.Ping(ctx); err != nil {
			resp.Body.Checks[dep.Name] = StatusUnhealthy
			resp.Body.Status = StatusDegraded

			continue
		}

		resp.Body.Checks[dep.Name] = StatusHealthy
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
	}, h.Check)
}
