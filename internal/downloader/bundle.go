package downloader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/models"
	"github.com/aleister1102/mediascout/internal/rslimiter"
	"github.com/aleister1102/mediascout/internal/storage"
	"github.com/aleister1102/mediascout/internal/urlhandler"
	"github.com/google/uuid"
	"github.com/mholt/archiver/v3"
	"golang.org/x/sync/semaphore"
)

// Bundle packs the run's assets into a ZIP archive stored next to the
// downloads and returns its location. Assets that were never downloaded are
// fetched first; an asset that cannot be fetched is logged and left out.
func (d *Downloader) Bundle(ctx context.Context, run *models.AnalysisRun, assets []models.StoredAsset) (string, error) {
	if run == nil {
		return "", common.NewValidationError("run", nil, "run is required")
	}

	root := ""
	if local, ok := d.store.(*storage.FileSystem); ok {
		root = local.Root()
	}
	rslimiter.GetResourceUsage(root).Log(d.logger, "Resources before bundle")

	var skipped common.ErrorCollector
	locations := d.ensureDownloaded(ctx, assets, &skipped)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "mediascout-bundle-*.zip")
	if err != nil {
		return "", common.WrapError(err, "failed to create temporary archive")
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	added, err := d.writeArchive(ctx, tmp, assets, locations, &skipped)
	if err != nil {
		return "", err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", common.WrapError(err, "failed to rewind archive")
	}

	key := d.bundleName(run.TargetURL)
	if _, err := d.store.Put(ctx, key, tmp, "application/zip"); err != nil {
		return "", common.WrapError(err, "failed to store archive")
	}

	location := d.store.Location(key)
	if skipped.HasErrors() {
		d.logger.Warn().
			Err(skipped.Error()).
			Str("run_id", run.ID).
			Int("skipped", skipped.Len()).
			Msg("Some assets were left out of the bundle")
	}
	d.logger.Info().
		Str("run_id", run.ID).
		Int("entries", added).
		Int("assets", len(assets)).
		Str("location", location).
		Msg("Bundle created")
	rslimiter.GetResourceUsage(root).Log(d.logger, "Resources after bundle")
	return location, nil
}

// ensureDownloaded returns the storage key of every asset that has bytes,
// downloading missing ones with bounded concurrency. Failed assets are absent
// from the result and their errors go to skipped.
func (d *Downloader) ensureDownloaded(ctx context.Context, assets []models.StoredAsset, skipped *common.ErrorCollector) map[int64]string {
	keys := make(map[int64]string, len(assets))
	var mu sync.Mutex
	var wg sync.WaitGroup

	limit := int64(d.cfg.Concurrency)
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(limit)

	for i := range assets {
		asset := &assets[i]
		if asset.Descriptor.IsExternalEmbed {
			continue
		}
		if asset.DownloadStatus == models.DownloadCompleted && asset.DownloadPath != "" {
			keys[asset.ID] = keyForLocation(asset.RunID, asset.DownloadPath)
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			location, err := d.Download(ctx, asset)
			if err != nil {
				d.logger.Error().Err(err).Int64("asset_id", asset.ID).Msg("Skipping asset in bundle")
				skipped.AddWithContext(err, fmt.Sprintf("asset %d", asset.ID))
				return
			}
			mu.Lock()
			keys[asset.ID] = keyForLocation(asset.RunID, location)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return keys
}

func (d *Downloader) writeArchive(ctx context.Context, out io.Writer, assets []models.StoredAsset, keys map[int64]string, skipped *common.ErrorCollector) (int, error) {
	z := archiver.NewZip()
	if err := z.Create(out); err != nil {
		return 0, common.WrapError(err, "failed to start archive")
	}

	used := make(map[string]struct{}, len(assets))
	added := 0
	for _, asset := range assets {
		key, ok := keys[asset.ID]
		if !ok {
			continue
		}
		name := entryName(asset.Descriptor, used)
		if err := d.addEntry(ctx, z, key, name); err != nil {
			d.logger.Error().Err(err).Int64("asset_id", asset.ID).Str("entry", name).Msg("Error adding file to archive")
			skipped.AddWithContext(err, fmt.Sprintf("asset %d", asset.ID))
			delete(used, name)
			continue
		}
		added++
	}

	if err := z.Close(); err != nil {
		return added, common.WrapError(err, "failed to finalize archive")
	}
	return added, nil
}

func (d *Downloader) addEntry(ctx context.Context, z *archiver.Zip, key, name string) error {
	rc, err := d.store.Open(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	return z.Write(archiver.File{
		FileInfo: archiver.FileInfo{
			FileInfo:   entryInfo{name: path.Base(name), modTime: time.Now()},
			CustomName: name,
		},
		ReadCloser: rc,
	})
}

// entryName returns "<category>/<filename>", suffixed until unique within the archive.
func entryName(descriptor models.AssetDescriptor, used map[string]struct{}) string {
	filename := urlhandler.SafeFilename(descriptor.Filename)
	name := string(descriptor.Category) + "/" + filename
	for n := 1; ; n++ {
		if _, taken := used[name]; !taken {
			break
		}
		name = string(descriptor.Category) + "/" + urlhandler.WithCollisionSuffix(filename, n)
	}
	used[name] = struct{}{}
	return name
}

func (d *Downloader) bundleName(targetURL string) string {
	prefix := d.cfg.BundlePrefix
	if prefix == "" {
		prefix = "download"
	}
	return fmt.Sprintf("%s_%s_%s.zip", prefix, urlhandler.HostSlug(targetURL), uuid.NewString()[:8])
}

// keyForLocation maps a stored location (filesystem path or s3:// URI) back to
// its storage key, which is always "<run_id>/<filename>".
func keyForLocation(runID, location string) string {
	base := path.Base(strings.ReplaceAll(filepath.ToSlash(location), "\\", "/"))
	return path.Join(runID, base)
}

// entryInfo describes a streamed archive entry. Sizes are written by the zip
// writer once the entry is complete.
type entryInfo struct {
	name    string
	modTime time.Time
}

func (e entryInfo) Name() string       { return e.name }
func (e entryInfo) Size() int64        { return 0 }
func (e entryInfo) Mode() fs.FileMode  { return 0644 }
func (e entryInfo) ModTime() time.Time { return e.modTime }
func (e entryInfo) IsDir() bool        { return false }
func (e entryInfo) Sys() interface{}   { return nil }
