// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"
	"database/sql"

	"github.com/blogforge/blogforge-api/internal/http/mw"
	"github.com/blogforge/blogforge-api/internal/version"
)

// HealthCheckOutput represents health check response.
type HealthCheckOutput struct {
	Body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
}

// HealthCheck returns the health status of the API.
func HealthCheck(ctx context.Context, input *struct{}) (*HealthCheckOutput, error) {
	out := &HealthCheckOutput{}
	out.Body.Status = "healthy"
	out.Body.Version = version.Get().Version
	return out, nil
}

// LivezOutput is the liveness probe response.
type LivezOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Livez is the Kubernetes liveness probe.
func Livez(ctx context.Context, input *struct{}) (*LivezOutput, error) {
	out := &LivezOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// ReadyzHandler checks dependencies for the readiness probe.
type ReadyzHandler struct {
	db *sql.DB
}

// NewReadyzHandler creates a readiness probe handler.
func NewReadyzHandler(db *sql.DB) *ReadyzHandler {
	return &ReadyzHandler{db: db}
}

// ReadyzOutput is the readiness probe response.
type ReadyzOutput struct {
	Body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
}

// Readyz verifies the database is reachable.
func (h *ReadyzHandler) Readyz(ctx context.Context, input *struct{}) (*ReadyzOutput, error) {
	out := &ReadyzOutput{}
	out.Body.Status = "ok"
	out.Body.Database = "ok"
	if err := h.db.PingContext(ctx); err != nil {
		out.Body.Status = "degraded"
		out.Body.Database = "unreachable"
	}
	return out, nil
}

// getUserID extracts user ID from context.
func getUserID(ctx context.Context) string {
	claims := mw.GetUserClaims(ctx)
	if claims == nil {
		return ""
	}
	return claims.UserID
}
