package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// ClientCounter reports connected dashboard clients
type ClientCounter interface {
	ClientCount() int
}

// WorkspaceStats reports the current workspace size
type WorkspaceStats interface {
	Stats() (zones, receipts int)
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	workspace WorkspaceStats
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. hub may be nil when no
// dashboard hub is running.
func NewHealthService(version, buildTime string, workspace WorkspaceStats, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		workspace: workspace,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
		Services: map[string]interface{}{},
	}
	if hs.buildTime != "" {
		status.Runtime["build_time"] = hs.buildTime
	}

	if hs.workspace != nil {
		zones, receipts := hs.workspace.Stats()
		status.Services["workspace"] = map[string]interface{}{
			"status":   "ready",
			"zones":    zones,
			"receipts": receipts,
		}
	}

	if hs.hub != nil {
		status.Services["websocket"] = map[string]interface{}{
			"status":  "ready",
			"clients": hs.hub.ClientCount(),
		}
	} else {
		status.Services["websocket"] = ServiceHealth{Status: "disabled"}
	}

	hs.logger.DebugContext(ctx, "health check completed", slog.String("status", status.Status))
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}
