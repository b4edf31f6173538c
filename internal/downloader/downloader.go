package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/config"
	"github.com/aleister1102/mediascout/internal/metrics"
	"github.com/aleister1102/mediascout/internal/models"
	"github.com/aleister1102/mediascout/internal/rslimiter"
	"github.com/aleister1102/mediascout/internal/storage"
	"github.com/aleister1102/mediascout/internal/urlhandler"
	"github.com/rs/zerolog"
)

// maxCollisionSuffix bounds the search for a free filename.
const maxCollisionSuffix = 10000

// AssetStore tracks download state of persisted assets.
type AssetStore interface {
	GetAsset(ctx context.Context, assetID int64) (*models.StoredAsset, error)
	UpdateDownload(ctx context.Context, assetID int64, status models.DownloadStatus, path string) error
}

// Downloader retrieves asset bytes into storage and records their status.
type Downloader struct {
	client  *http.Client
	store   storage.Storage
	assets  AssetStore
	cfg     config.DownloadConfig
	guard   *rslimiter.DiskGuard
	metrics *metrics.Metrics
	logger  zerolog.Logger
	retry   common.RetryPolicy

	// reserved holds keys claimed by in-flight transfers that may not exist
	// in storage yet.
	keysMu   sync.Mutex
	reserved map[string]struct{}
}

// NewDownloader creates a downloader writing into store. The free-space
// preflight only applies to the filesystem backend.
func NewDownloader(
	client *http.Client,
	store storage.Storage,
	assets AssetStore,
	cfg config.DownloadConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	logger = logger.With().Str("component", "Downloader").Logger()

	d := &Downloader{
		client:  client,
		store:   store,
		assets:  assets,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		retry:   common.NewRetryPolicy(cfg.MaxAttempts, time.Second, 30*time.Second),

		reserved: make(map[string]struct{}),
	}
	if _, ok := store.(*storage.FileSystem); ok {
		d.guard = rslimiter.NewDiskGuard(cfg.MinFreeMB, logger)
	}
	return d
}

// DownloadByID loads the asset and downloads it.
func (d *Downloader) DownloadByID(ctx context.Context, assetID int64) (string, error) {
	asset, err := d.assets.GetAsset(ctx, assetID)
	if err != nil {
		return "", err
	}
	return d.Download(ctx, asset)
}

// Download stores the asset's bytes and returns their location. The status
// moves pending -> downloading -> completed, or to error on any failure.
func (d *Downloader) Download(ctx context.Context, asset *models.StoredAsset) (string, error) {
	descriptor := asset.Descriptor
	logger := d.logger.With().Int64("asset_id", asset.ID).Str("url", descriptor.ResolvedURL).Logger()

	if descriptor.IsExternalEmbed {
		d.markFailed(ctx, asset, common.ErrExternalEmbed)
		return "", common.WrapErrorf(common.ErrExternalEmbed, "asset %d", asset.ID)
	}

	if err := d.assets.UpdateDownload(ctx, asset.ID, models.DownloadDownloading, ""); err != nil {
		return "", common.WrapError(err, "failed to mark asset as downloading")
	}

	location, written, err := d.transfer(ctx, asset)
	if err != nil {
		logger.Error().Err(err).Msg("Download failed")
		d.markFailed(ctx, asset, err)
		return "", err
	}

	if err := d.assets.UpdateDownload(ctx, asset.ID, models.DownloadCompleted, location); err != nil {
		return "", common.WrapError(err, "failed to mark asset as completed")
	}
	d.metrics.RecordDownload(string(models.DownloadCompleted), written)

	logger.Info().
		Str("location", location).
		Str("size", models.FormatSize(&written)).
		Msg("Download completed")
	return location, nil
}

func (d *Downloader) markFailed(ctx context.Context, asset *models.StoredAsset, cause error) {
	d.metrics.RecordDownload(string(models.DownloadError), 0)
	// Record the failure even when ctx is what failed.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := d.assets.UpdateDownload(persistCtx, asset.ID, models.DownloadError, ""); err != nil {
		d.logger.Error().Err(err).Int64("asset_id", asset.ID).AnErr("cause", cause).Msg("Failed to record download failure")
	}
}

func (d *Downloader) transfer(ctx context.Context, asset *models.StoredAsset) (string, int64, error) {
	descriptor := asset.Descriptor

	if fs, ok := d.store.(*storage.FileSystem); ok && d.guard != nil {
		var incoming int64
		if descriptor.SizeBytes != nil {
			incoming = *descriptor.SizeBytes
		}
		if err := d.guard.Check(fs.Root(), incoming); err != nil {
			return "", 0, err
		}
	}

	key, err := d.reserveKey(ctx, asset.RunID, urlhandler.SafeFilename(descriptor.Filename))
	if err != nil {
		return "", 0, err
	}
	defer d.releaseKey(key)

	for attempt := 1; ; attempt++ {
		written, err := d.fetchInto(ctx, descriptor, key)
		if err == nil {
			return d.store.Location(key), written, nil
		}
		if !d.retry.ShouldRetry(err, attempt) {
			return "", 0, err
		}

		d.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", d.retry.MaxAttempts).
			Str("url", descriptor.ResolvedURL).
			Msg("Retrying download")
		if err := d.retry.Wait(ctx, attempt); err != nil {
			return "", 0, err
		}
	}
}

// fetchInto streams the asset body into key. The timeout covers the wait for
// response headers; the body transfer itself is unbounded.
func (d *Downloader) fetchInto(ctx context.Context, descriptor models.AssetDescriptor, key string) (int64, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	timer := time.AfterFunc(d.cfg.Timeout(), cancel)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, descriptor.ResolvedURL, nil)
	if err != nil {
		timer.Stop()
		return 0, common.NewValidationError("url", descriptor.ResolvedURL, err.Error())
	}

	resp, err := d.client.Do(req)
	headersInTime := timer.Stop()
	if err != nil {
		if !headersInTime {
			return 0, common.WrapErrorf(common.ErrTimeout, "no response from '%s' within %s", descriptor.ResolvedURL, d.cfg.Timeout())
		}
		return 0, common.NewNetworkError(descriptor.ResolvedURL, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, common.NewHTTPErrorWithURL(resp.StatusCode, http.StatusText(resp.StatusCode), descriptor.ResolvedURL)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = descriptor.MimeType
	}

	written, err := d.store.Put(ctx, key, resp.Body, contentType)
	if err != nil {
		return 0, common.NewNetworkError(descriptor.ResolvedURL, "failed to store body", err)
	}
	return written, nil
}

// reserveKey claims runID/filename, or the first filename_N variant that is
// neither in storage nor held by another transfer. The claim lasts until
// releaseKey, by which time the object exists or the transfer failed.
func (d *Downloader) reserveKey(ctx context.Context, runID, filename string) (string, error) {
	d.keysMu.Lock()
	defer d.keysMu.Unlock()

	for n := 0; n <= maxCollisionSuffix; n++ {
		candidate := filename
		if n > 0 {
			candidate = urlhandler.WithCollisionSuffix(filename, n)
		}
		key := path.Join(runID, candidate)
		if _, taken := d.reserved[key]; taken {
			continue
		}
		exists, err := d.store.Exists(ctx, key)
		if err != nil {
			return "", common.WrapError(err, "failed to check storage")
		}
		if !exists {
			d.reserved[key] = struct{}{}
			return key, nil
		}
	}
	return "", fmt.Errorf("no free filename for '%s' after %d attempts", filename, maxCollisionSuffix)
}

func (d *Downloader) releaseKey(key string) {
	d.keysMu.Lock()
	defer d.keysMu.Unlock()
	delete(d.reserved, key)
}
