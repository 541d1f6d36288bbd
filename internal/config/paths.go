package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths contains the resolved file system locations used by the
// application. Everything is anchored at the executable directory unless
// configured as an absolute path.
type Paths struct {
	ExecutableDir string
	DataDir       string
	ExportsDir    string
	WebDir        string
	LogsDir       string
	HistoryDB     string
}

// GetPaths resolves paths against the executable location.
func GetPaths(cfg PathsConfig) (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return PathsFrom(filepath.Dir(exe), cfg), nil
}

// PathsFrom resolves paths against base.
func PathsFrom(base string, cfg PathsConfig) *Paths {
	dataDir := ResolvePath(base, orDefault(cfg.DataDir, DefaultDataDir))
	return &Paths{
		ExecutableDir: base,
		DataDir:       dataDir,
		ExportsDir:    ResolvePath(base, orDefault(cfg.ExportsDir, DefaultExportsDir)),
		WebDir:        ResolvePath(base, orDefault(cfg.WebDir, DefaultWebDir)),
		LogsDir:       ResolvePath(base, orDefault(cfg.LogsDir, DefaultLogsDir)),
		HistoryDB:     filepath.Join(dataDir, HistoryDBFile),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// EnsureDirectories creates the data, exports and logs directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetExportPath returns a timestamped file name for an export of kind.
func (p *Paths) GetExportPath(uploadID, kind, ext string, at time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.%s", kind, shortID(uploadID), at.Format("20060102_150405"), ext)
	return filepath.Join(p.ExportsDir, name)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// SQLiteDSN returns a DSN for the history database file.
func (p *Paths) SQLiteDSN() string {
	return SQLiteFileDSN(p.HistoryDB)
}

// SQLiteFileDSN returns a DSN opening the SQLite database at path.
func SQLiteFileDSN(path string) string {
	return "file:" + filepath.ToSlash(path) + "?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
}

// LogPathResolution logs the resolved paths
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("exports", p.ExportsDir),
			slog.String("logs", p.LogsDir),
			slog.String("web", p.WebDir),
		),
		slog.String("history_db", p.HistoryDB))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
