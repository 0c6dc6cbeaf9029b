package services

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// ResourceMonitor samples process-host CPU and memory around pipeline runs
// so slow batches show up in the logs with their resource cost.
type ResourceMonitor struct {
	logger *logrus.Logger
}

func NewResourceMonitor(logger *logrus.Logger) *ResourceMonitor {
	return &ResourceMonitor{logger: logger}
}

// LogRunStats records one pipeline run's duration, output size and current
// resource usage. Sampling failures are silently skipped; monitoring must
// never affect the pipeline.
func (rm *ResourceMonitor) LogRunStats(ctx context.Context, elapsed time.Duration, pathLen int) {
	fields := logrus.Fields{
		"duration_ms": elapsed.Milliseconds(),
		"path_length": pathLen,
	}
	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		fields["cpu_percent"] = cpuPercent[0]
	}
	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		fields["mem_used_percent"] = memInfo.UsedPercent
	}
	rm.logger.WithFields(fields).Info("Pipeline run stats")
}
