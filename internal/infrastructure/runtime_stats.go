package infrastructure

import (
	"runtime"
	"time"
)

// RuntimeStats is a snapshot of process resource usage reported by the
// health endpoint.
type RuntimeStats struct {
	Goroutines    int     `json:"goroutines"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	SysMB         float64 `json:"sys_mb"`
	GCCount       uint32  `json:"gc_count"`
	LastGCPauseMS int64   `json:"last_gc_pause_ms"`
	CPUCount      int     `json:"cpu_count"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// CollectRuntimeStats reads the Go runtime counters.
func CollectRuntimeStats(startTime time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	var lastPause time.Duration
	if mem.NumGC > 0 {
		lastPause = time.Duration(mem.PauseNs[(mem.NumGC+255)%256])
	}

	return RuntimeStats{
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   float64(mem.HeapAlloc) / (1 << 20),
		SysMB:         float64(mem.Sys) / (1 << 20),
		GCCount:       mem.NumGC,
		LastGCPauseMS: lastPause.Milliseconds(),
		CPUCount:      runtime.NumCPU(),
		UptimeSeconds: time.Since(startTime).Seconds(),
	}
}
