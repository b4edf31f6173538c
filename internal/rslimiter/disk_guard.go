package rslimiter

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// DiskGuard refuses writes that would leave less than a minimum of free space
// on the volume holding a directory.
type DiskGuard struct {
	minFreeBytes uint64
	usage        func(path string) (*disk.UsageStat, error)
	logger       zerolog.Logger
}

// NewDiskGuard creates a guard keeping minFreeMB free. Zero disables the check.
func NewDiskGuard(minFreeMB int, logger zerolog.Logger) *DiskGuard {
	if minFreeMB < 0 {
		minFreeMB = 0
	}
	return &DiskGuard{
		minFreeBytes: uint64(minFreeMB) * 1024 * 1024,
		usage:        disk.Usage,
		logger:       logger.With().Str("component", "DiskGuard").Logger(),
	}
}

// Check returns ErrInsufficientSpace when writing incoming bytes below dir would
// cross the free-space floor. incoming may be zero when the size is unknown.
func (g *DiskGuard) Check(dir string, incoming int64) error {
	if g == nil || g.minFreeBytes == 0 {
		return nil
	}

	stat, err := g.usage(existingAncestor(dir))
	if err != nil {
		// Unknown free space is not a reason to refuse the download.
		g.logger.Warn().Err(err).Str("dir", dir).Msg("Could not read disk usage")
		return nil
	}

	needed := g.minFreeBytes
	if incoming > 0 {
		needed += uint64(incoming)
	}
	if stat.Free < needed {
		return common.WrapErrorf(common.ErrInsufficientSpace, "%s free on %s, need %s",
			humanize.IBytes(stat.Free), stat.Path, humanize.IBytes(needed))
	}

	g.logger.Debug().
		Str("dir", dir).
		Str("free", humanize.IBytes(stat.Free)).
		Msg("Disk space check passed")
	return nil
}

// existingAncestor walks up until it finds a path that exists.
func existingAncestor(dir string) string {
	current := filepath.Clean(dir)
	for {
		if _, err := os.Stat(current); err == nil || !errors.Is(err, os.ErrNotExist) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}
