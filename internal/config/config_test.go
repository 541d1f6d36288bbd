package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradegraph/internal/assessment"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gradegraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, DefaultMaxUploadMB, cfg.Upload.MaxSizeMB)
				assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
				assert.False(t, cfg.Store.Enabled)
				assert.Equal(t, "sqlite", cfg.Store.Driver)
				assert.Equal(t, 75.0, cfg.Classification.BrightMin)
				assert.Equal(t, 60.0, cfg.Classification.AverageMin)
				assert.Equal(t, 5.0, cfg.Classification.AdvancedBonus)
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9090
  read_timeout: 5s
upload:
  max_size_mb: 4
  sheet: Marks
classification:
  bright_min: 80
  average_min: 55
store:
  enabled: true
  driver: POSTGRES
  dsn: postgres://db/gradegraph
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 4, cfg.Upload.MaxSizeMB)
				assert.Equal(t, "Marks", cfg.Upload.Sheet)
				assert.Equal(t, 80.0, cfg.Classification.BrightMin)
				assert.Equal(t, 55.0, cfg.Classification.AverageMin)
				assert.Equal(t, "postgres", cfg.Store.Driver)
			},
		},
		{
			name: "env overrides file",
			env: map[string]string{
				"GRADEGRAPH_SERVER_PORT":                "7070",
				"GRADEGRAPH_SECURITY_ALLOWED_ORIGINS":   "http://a.test,http://b.test",
				"GRADEGRAPH_CACHE_TTL":                  "10m",
				"GRADEGRAPH_CLASSIFICATION_AVERAGE_MIN": "50",
			},
			file: "server:\n  port: 9090\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
				assert.Equal(t, 50.0, cfg.Classification.AverageMin)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"GRADEGRAPH_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "bad env value",
			env:     map[string]string{"GRADEGRAPH_SERVER_PORT": "eighty"},
			wantErr: true,
		},
		{
			name:    "malformed file",
			file:    "server: [port",
			wantErr: true,
		},
		{
			name:    "unsupported driver",
			file:    "store:\n  enabled: true\n  driver: mysql\n",
			wantErr: true,
		},
		{
			name:    "inverted cutoffs",
			file:    "classification:\n  bright_min: 50\n  average_min: 70\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadUsesConfigEnv(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 6060\n")
	t.Setenv("GRADEGRAPH_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "logfmt"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "logs/gradegraph.log", cfg.Logging.FilePath)

	cfg.Logging.Format = "Text"
	require.NoError(t, cfg.validate())
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"zero write timeout", func(c *Config) { c.Server.WriteTimeout = 0 }},
		{"cors without origins", func(c *Config) { c.Security.AllowedOrigins = nil }},
		{"rate limit without rps", func(c *Config) { c.Security.RateLimit.RPS = 0 }},
		{"zero upload size", func(c *Config) { c.Upload.MaxSizeMB = 0 }},
		{"empty cache", func(c *Config) { c.Cache.MaxEntries = 0 }},
		{"sample ratio", func(c *Config) { c.Telemetry.SampleRatio = 1.5 }},
		{"negative bonus", func(c *Config) { c.Classification.BeginnerBonus = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestPolicy(t *testing.T) {
	cfg := Default()
	assert.Equal(t, assessment.DefaultPolicy(), cfg.Policy())

	cfg.Classification.IntermediateBonus = 2
	assert.Equal(t, 2.0, cfg.Policy().CodingAdjustment[assessment.CodingIntermediate])
}

func TestAddressAndUploadLimit(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Upload.MaxSizeMB = 2

	assert.Equal(t, "127.0.0.1:8080", cfg.Address())
	assert.Equal(t, int64(2<<20), cfg.MaxUploadBytes())
}

func TestResolvePath(t *testing.T) {
	base := filepath.Join("opt", "gradegraph")
	abs, err := filepath.Abs("exports")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data"), ResolvePath(base, "data"))
	assert.Equal(t, abs, ResolvePath(base, abs))
	assert.Equal(t, "", ResolvePath(base, ""))
}
