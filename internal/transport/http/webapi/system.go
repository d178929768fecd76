package webapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	httptransport "portfolio-server-go/internal/transport/http"
)

// handleSystemStatus reports process uptime and host resource usage.
func (s *Service) handleSystemStatus(c *gin.Context) {
	status := gin.H{
		"uptimeSeconds": int64(time.Since(s.startedAt).Seconds()),
		"goroutines":    runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		status["memory"] = gin.H{
			"totalBytes":  vm.Total,
			"usedBytes":   vm.Used,
			"usedPercent": vm.UsedPercent,
		}
	} else {
		s.logger.WarnTag("HTTP", "failed to read memory stats: %v", err)
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		status["cpuPercent"] = percents[0]
	}

	httptransport.RespondSuccess(c, http.StatusOK, status, "")
}
