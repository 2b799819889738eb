package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports the database, search index and event stream status. Only a failing database makes the server unhealthy.",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes one dependency.
type ComponentHealth struct {
	Status  string `json:"status" doc:"healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"How long the probe took"`
	Message string `json:"message,omitempty" doc:"Detail for operators"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Per-component status"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	resp := HealthResponse{
		Status: statusHealthy,
		Components: map[string]ComponentHealth{
			"database": s.probeDatabase(ctx),
			"search":   s.probeSearch(),
			"sse":      s.probeEvents(),
		},
	}

	for name, c := range resp.Components {
		if c.Status == statusHealthy {
			continue
		}
		if name == "database" && c.Status == statusUnhealthy {
			resp.Status = statusUnhealthy
			break
		}
		resp.Status = statusDegraded
	}
	return &HealthOutput{Body: resp}, nil
}

// timed runs probe and stamps its duration on the result.
func timed(probe func() ComponentHealth) ComponentHealth {
	start := time.Now()
	c := probe()
	c.Latency = time.Since(start).String()
	return c
}

func (s *Server) probeDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: statusDegraded, Message: "no database configured"}
	}
	return timed(func() ComponentHealth {
		if err := s.store.Ping(ctx); err != nil {
			return ComponentHealth{Status: statusUnhealthy, Message: "ping failed"}
		}
		return ComponentHealth{Status: statusHealthy}
	})
}

func (s *Server) probeSearch() ComponentHealth {
	if s.services == nil || s.services.Search == nil || !s.services.Search.Enabled() {
		return ComponentHealth{Status: statusDegraded, Message: "search disabled; substring filtering only"}
	}
	return timed(func() ComponentHealth {
		n, err := s.services.Search.DocumentCount()
		if err != nil {
			return ComponentHealth{Status: statusUnhealthy, Message: "index unreadable"}
		}
		return ComponentHealth{Status: statusHealthy, Message: fmt.Sprintf("%d listings indexed", n)}
	})
}

func (s *Server) probeEvents() ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{Status: statusDegraded, Message: "event streams disabled"}
	}
	n := s.sseManager.ClientCount()
	msg := fmt.Sprintf("%d open streams", n)
	if n == 1 {
		msg = "1 open stream"
	}
	return ComponentHealth{Status: statusHealthy, Message: msg}
}
