package config

import (
	"time"

	"gradegraph/pkg/contracts"
)

// Application constants
const (
	AppName    = "GradeGraph"
	AppVersion = contracts.Version

	DefaultDataDir    = "data"
	DefaultExportsDir = "data/exports"
	DefaultLogsDir    = "logs"
	DefaultWebDir     = "web"

	DefaultMaxUploadMB  = 16
	DefaultCacheTTL     = 2 * time.Hour
	DefaultCacheEntries = 8

	// HistoryDBFile is the sqlite file created in the data directory when no
	// DSN is configured.
	HistoryDBFile = "gradegraph.db"
)

// Route prefixes. Health is mounted both at the root and under APIBasePath;
// uploads only under APIBasePath.
const (
	APIBasePath     = "/api"
	UploadsEndpoint = "/uploads"
	HealthEndpoint  = "/health"
	MetricsEndpoint = "/metrics"
)
