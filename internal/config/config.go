package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"gradegraph/internal/assessment"
)

// EnvPrefix namespaces every environment variable, e.g. GRADEGRAPH_SERVER_PORT.
const EnvPrefix = "GRADEGRAPH"

// Config represents the complete application configuration
type Config struct {
	Server         ServerConfig         `yaml:"server" envconfig:"SERVER"`
	Security       SecurityConfig       `yaml:"security" envconfig:"SECURITY"`
	Logging        LoggingConfig        `yaml:"logging" envconfig:"LOGGING"`
	Paths          PathsConfig          `yaml:"paths" envconfig:"PATHS"`
	Upload         UploadConfig         `yaml:"upload" envconfig:"UPLOAD"`
	Cache          CacheConfig          `yaml:"cache" envconfig:"CACHE"`
	Store          StoreConfig          `yaml:"store" envconfig:"STORE"`
	Classification ClassificationConfig `yaml:"classification" envconfig:"CLASSIFICATION"`
	Telemetry      TelemetryConfig      `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration. Relative paths are
// resolved against the executable directory.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR"`
	WebDir     string `yaml:"web_dir" envconfig:"WEB_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// UploadConfig limits and shapes workbook ingestion.
type UploadConfig struct {
	MaxSizeMB      int    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB"`
	Sheet          string `yaml:"sheet" envconfig:"SHEET"`
	HeaderScanRows int    `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS"`
}

// CacheConfig bounds the in-memory upload cache.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl" envconfig:"TTL"`
	MaxEntries int           `yaml:"max_entries" envconfig:"MAX_ENTRIES"`
	// KeepPrevious retains earlier uploads instead of replacing them when a
	// new sheet is analyzed.
	KeepPrevious bool `yaml:"keep_previous" envconfig:"KEEP_PREVIOUS"`
}

// StoreConfig selects the upload history backend.
type StoreConfig struct {
	Enabled      bool   `yaml:"enabled" envconfig:"ENABLED"`
	Driver       string `yaml:"driver" envconfig:"DRIVER"`
	DSN          string `yaml:"dsn" envconfig:"DSN"`
	HistoryLimit int    `yaml:"history_limit" envconfig:"HISTORY_LIMIT"`
}

// ClassificationConfig holds the learner category cutoffs.
type ClassificationConfig struct {
	BrightMin         float64 `yaml:"bright_min" envconfig:"BRIGHT_MIN"`
	AverageMin        float64 `yaml:"average_min" envconfig:"AVERAGE_MIN"`
	AdvancedBonus     float64 `yaml:"advanced_bonus" envconfig:"ADVANCED_BONUS"`
	IntermediateBonus float64 `yaml:"intermediate_bonus" envconfig:"INTERMEDIATE_BONUS"`
	BeginnerBonus     float64 `yaml:"beginner_bonus" envconfig:"BEGINNER_BONUS"`
}

// TelemetryConfig controls OpenTelemetry tracing and metrics.
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from defaults, then the first config file
// found, then environment variables. Later sources win.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Only variables that are set override; Default supplies the rest.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Address returns the listen address of the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxUploadBytes is the request body limit for workbook uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Upload.MaxSizeMB) << 20
}

// Policy converts the classification settings into category cutoffs.
func (c *Config) Policy() assessment.Policy {
	return assessment.Policy{
		BrightMin:  c.Classification.BrightMin,
		AverageMin: c.Classification.AverageMin,
		CodingAdjustment: map[assessment.CodingLevel]float64{
			assessment.CodingAdvanced:     c.Classification.AdvancedBonus,
			assessment.CodingIntermediate: c.Classification.IntermediateBonus,
			assessment.CodingBeginner:     c.Classification.BeginnerBonus,
		},
	}
}

// ResolvePath anchors a configured path at base unless it is absolute.
func ResolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	if c.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("upload size limit must be positive: %d", c.Upload.MaxSizeMB)
	}

	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache must hold at least one upload")
	}

	if c.Store.Enabled {
		switch strings.ToLower(c.Store.Driver) {
		case "sqlite", "postgres":
			c.Store.Driver = strings.ToLower(c.Store.Driver)
		default:
			return fmt.Errorf("unsupported store driver: %q", c.Store.Driver)
		}
	}

	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("invalid classification: %w", err)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0,1]: %.2f", c.Telemetry.SampleRatio)
	}

	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/gradegraph.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"gradegraph.yaml",
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	policy := assessment.DefaultPolicy()
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/gradegraph.log",
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			ExportsDir: DefaultExportsDir,
			WebDir:     DefaultWebDir,
			LogsDir:    DefaultLogsDir,
		},
		Upload: UploadConfig{
			MaxSizeMB:      DefaultMaxUploadMB,
			HeaderScanRows: 20,
		},
		Cache: CacheConfig{
			TTL:        DefaultCacheTTL,
			MaxEntries: DefaultCacheEntries,
		},
		Store: StoreConfig{
			Driver:       "sqlite",
			HistoryLimit: 50,
		},
		Classification: ClassificationConfig{
			BrightMin:         policy.BrightMin,
			AverageMin:        policy.AverageMin,
			AdvancedBonus:     policy.CodingAdjustment[assessment.CodingAdvanced],
			IntermediateBonus: policy.CodingAdjustment[assessment.CodingIntermediate],
			BeginnerBonus:     policy.CodingAdjustment[assessment.CodingBeginner],
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			EnableMetrics:  true,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
