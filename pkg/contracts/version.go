package contracts

import (
	"fmt"
	"runtime"
)

const (
	Version = "1.0.0"

	// ReportFormatVersion is bumped when the persisted report JSON changes shape.
	ReportFormatVersion = "v1"

	APIVersion = "v1"
)

// Set with -ldflags "-X" by build.go.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	ReportFormat string `json:"report_format"`
	APIVersion   string `json:"api_version"`
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		GetVersionString(), v.BuildTime, v.GitCommit, v.GoVersion, v.OS, v.Architecture)
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		ReportFormat: ReportFormatVersion,
		APIVersion:   APIVersion,
	}
}

// GetVersionString returns the short product version, e.g. "GradeGraph v1.0.0".
func GetVersionString() string {
	return "GradeGraph v" + Version
}

// GetFullVersionString adds build and platform details to GetVersionString.
func GetFullVersionString() string {
	return GetVersionInfo().String()
}
