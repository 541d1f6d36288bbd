package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gradegraph/internal/cache"
	"gradegraph/internal/config"
	"gradegraph/internal/infrastructure"
	"gradegraph/internal/store"
	"gradegraph/pkg/contracts"
)

// Health states reported by the checks.
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// HealthService reports on the process and the components it depends on.
type HealthService struct {
	uploads   *cache.UploadCache
	history   store.History
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// VersionInfo extends the build information with process uptime.
type VersionInfo struct {
	contracts.VersionInfo
	StartTime     time.Time `json:"start_time"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

// NewHealthService creates a health service. Any dependency may be nil, in
// which case its check is skipped.
func NewHealthService(uploads *cache.UploadCache, history store.History, paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "health_service")
	logger.Info("HealthService initialized", slog.String("version", contracts.Version))

	return &HealthService{
		uploads:   uploads,
		history:   history,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check", slog.Duration("uptime", time.Since(hs.startTime)))

	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck verifies the cache, the history store and the exports
// directory.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]ServiceHealth),
	}

	if hs.uploads != nil {
		status.Services["cache"] = ServiceHealth{
			Status:  StatusReady,
			Message: fmt.Sprintf("%d uploads cached", hs.uploads.Len()),
			Details: hs.uploads.GetStats(),
		}
	}
	if hs.history != nil {
		status.Services["store"] = hs.checkStore(ctx)
	}
	if hs.paths != nil {
		status.Services["exports"] = checkWritableDir(hs.paths.ExportsDir)
	}

	for name, svc := range status.Services {
		if svc.Status != StatusReady {
			status.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "component not ready",
				slog.String("service", name),
				slog.String("message", svc.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status with runtime statistics.
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.CollectRuntimeStats(hs.startTime)
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime:   &stats,
	}
}

// Version returns build information and uptime.
func (hs *HealthService) Version() VersionInfo {
	return VersionInfo{
		VersionInfo:   contracts.GetVersionInfo(),
		StartTime:     hs.startTime,
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
	}
}

func (hs *HealthService) checkStore(ctx context.Context) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := hs.history.Ping(ctx); err != nil {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("history store unreachable: %v", err),
		}
	}
	return ServiceHealth{Status: StatusReady}
}

func checkWritableDir(dir string) ServiceHealth {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("cannot create %s: %v", dir, err),
		}
	}

	tmp, err := os.CreateTemp(dir, ".ready-*")
	if err != nil {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("cannot write to %s: %v", dir, err),
		}
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)

	return ServiceHealth{Status: StatusReady, Message: filepath.Base(dir)}
}
