package api

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// handleSystem handles GET /api/system: process-level diagnostics for the
// same operational audience the IP endpoints serve
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cpuPercent, memUsed, memTotal, memPercent := collectProcessMetrics(ctx)

	s.writeJSON(w, http.StatusOK, SystemResponse{
		CPUPercent: cpuPercent,
		MemUsed:    memUsed,
		MemTotal:   memTotal,
		MemPercent: memPercent,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     s.getUptime(),
	})
}

func collectProcessMetrics(ctx context.Context) (cpuPercent float64, memUsed, memTotal uint64, memPercent float64) {
	// Process-specific CPU is per-core and needs normalization
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err == nil {
		if pct, err := proc.PercentWithContext(ctx, 500*time.Millisecond); err == nil {
			if numCPU := runtime.NumCPU(); numCPU > 0 {
				cpuPercent = pct / float64(numCPU)
			} else {
				cpuPercent = pct
			}
		} else if percents, err := cpu.PercentWithContext(ctx, 500*time.Millisecond, false); err == nil && len(percents) > 0 {
			// Fallback to system-wide CPU if process metrics fail
			cpuPercent = percents[0]
		}

		if memInfo, err := proc.MemoryInfoWithContext(ctx); err == nil {
			memUsed = memInfo.RSS
		}
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		memTotal = vm.Total
		if memTotal > 0 && memUsed > 0 {
			memPercent = (float64(memUsed) / float64(memTotal)) * 100
		}
	}

	return cpuPercent, memUsed, memTotal, memPercent
}
