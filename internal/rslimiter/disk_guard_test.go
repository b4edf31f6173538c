package rslimiter

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
)

func fixedUsage(free uint64) func(string) (*disk.UsageStat, error) {
	return func(path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Path: path, Free: free}, nil
	}
}

func TestDiskGuard_Check(t *testing.T) {
	const mb = 1024 * 1024
	dir := t.TempDir()

	tests := []struct {
		name     string
		minFree  int
		free     uint64
		incoming int64
		wantErr  bool
	}{
		{name: "plenty of space", minFree: 100, free: 500 * mb, incoming: 10 * mb},
		{name: "unknown size below floor", minFree: 100, free: 50 * mb, wantErr: true},
		{name: "incoming crosses floor", minFree: 100, free: 150 * mb, incoming: 60 * mb, wantErr: true},
		{name: "disabled", minFree: 0, free: 0, incoming: 10 * mb},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewDiskGuard(tt.minFree, zerolog.Nop())
			g.usage = fixedUsage(tt.free)

			err := g.Check(dir, tt.incoming)
			if tt.wantErr {
				assert.True(t, errors.Is(err, common.ErrInsufficientSpace))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDiskGuard_UsageErrorIsIgnored(t *testing.T) {
	g := NewDiskGuard(100, zerolog.Nop())
	g.usage = func(string) (*disk.UsageStat, error) { return nil, errors.New("unsupported") }
	assert.NoError(t, g.Check(t.TempDir(), 1))
}

func TestDiskGuard_NilIsNoop(t *testing.T) {
	var g *DiskGuard
	assert.NoError(t, g.Check("/", 1))
}

func TestExistingAncestor(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, existingAncestor(filepath.Join(dir, "a", "b", "c")))
	assert.Equal(t, dir, existingAncestor(dir))
}

func TestGetResourceUsage(t *testing.T) {
	usage := GetResourceUsage(t.TempDir())
	assert.Greater(t, usage.Goroutines, 0)
}
