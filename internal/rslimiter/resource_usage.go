package rslimiter

import (
	"runtime"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceUsage is a point-in-time snapshot logged around long operations.
type ResourceUsage struct {
	AllocMB              int64
	Goroutines           int
	SystemMemUsedPercent float64
	DiskFreeMB           int64
	DiskUsedPercent      float64
}

// GetResourceUsage samples process memory, system memory and the volume holding dir.
func GetResourceUsage(dir string) ResourceUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usage := ResourceUsage{
		AllocMB:    int64(m.Alloc / 1024 / 1024),
		Goroutines: runtime.NumGoroutine(),
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemUsedPercent = vmStat.UsedPercent
	}

	if dir != "" {
		if stat, err := disk.Usage(existingAncestor(dir)); err == nil {
			usage.DiskFreeMB = int64(stat.Free / 1024 / 1024)
			usage.DiskUsedPercent = stat.UsedPercent
		}
	}

	return usage
}

// Log writes the snapshot at debug level.
func (u ResourceUsage) Log(logger zerolog.Logger, msg string) {
	logger.Debug().
		Int64("alloc_mb", u.AllocMB).
		Int("goroutines", u.Goroutines).
		Float64("system_mem_used_percent", u.SystemMemUsedPercent).
		Int64("disk_free_mb", u.DiskFreeMB).
		Float64("disk_used_percent", u.DiskUsedPercent).
		Msg(msg)
}
