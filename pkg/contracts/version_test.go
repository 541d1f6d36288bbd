package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionStrings(t *testing.T) {
	assert.Equal(t, "GradeGraph v"+Version, GetVersionString())

	info := GetVersionInfo()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, ReportFormatVersion, info.ReportFormat)

	full := GetFullVersionString()
	assert.Contains(t, full, GetVersionString())
	assert.Contains(t, full, "commit: "+GitCommit)
	assert.Contains(t, full, runtime.GOOS+"/"+runtime.GOARCH)
}
