package downloader

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/config"
	"github.com/aleister1102/mediascout/internal/models"
	"github.com/aleister1102/mediascout/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryAssets struct {
	mu      sync.Mutex
	assets  map[int64]*models.StoredAsset
	history map[int64][]models.DownloadStatus
}

func newMemoryAssets(assets ...models.StoredAsset) *memoryAssets {
	m := &memoryAssets{assets: map[int64]*models.StoredAsset{}, history: map[int64][]models.DownloadStatus{}}
	for i := range assets {
		a := assets[i]
		m.assets[a.ID] = &a
	}
	return m
}

func (m *memoryAssets) GetAsset(_ context.Context, id int64) (*models.StoredAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memoryAssets) UpdateDownload(_ context.Context, id int64, status models.DownloadStatus, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return common.ErrNotFound
	}
	a.DownloadStatus = status
	if path != "" {
		a.DownloadPath = path
	}
	m.history[id] = append(m.history[id], status)
	return nil
}

func (m *memoryAssets) statuses(id int64) []models.DownloadStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.DownloadStatus(nil), m.history[id]...)
}

func newAssetServer(t *testing.T) *httptest.Server {
	t.Helper()
	var flaky int32
	mux := http.NewServeMux()
	mux.HandleFunc("/a/photo.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = io.WriteString(w, "first photo")
	})
	mux.HandleFunc("/b/photo.jpg", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "second photo")
	})
	mux.HandleFunc("/flaky.pdf", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&flaky, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "pdf")
	})
	mux.HandleFunc("/missing.mp3", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func storedAsset(id int64, filename, url string, category models.Category) models.StoredAsset {
	return models.StoredAsset{
		ID:    id,
		RunID: "run-1",
		Descriptor: models.AssetDescriptor{
			Filename:    filename,
			ResolvedURL: url,
			Category:    category,
		},
		DownloadStatus: models.DownloadPending,
	}
}

func newTestDownloader(t *testing.T, assets AssetStore, cfg config.DownloadConfig) (*Downloader, *storage.FileSystem) {
	t.Helper()
	fs, err := storage.NewFileSystem(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	d := NewDownloader(nil, fs, assets, cfg, nil, zerolog.Nop())
	d.retry.BaseDelay = 0
	return d, fs
}

func testConfig() config.DownloadConfig {
	cfg := config.NewDefaultDownloadConfig()
	cfg.MinFreeMB = 0
	return cfg
}

func TestDownload_Success(t *testing.T) {
	srv := newAssetServer(t)
	asset := storedAsset(1, "photo.jpg", srv.URL+"/a/photo.jpg", models.CategoryImage)
	assets := newMemoryAssets(asset)
	d, fs := newTestDownloader(t, assets, testConfig())

	location, err := d.DownloadByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fs.Root(), "run-1", "photo.jpg"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "first photo", string(data))

	assert.Equal(t, []models.DownloadStatus{models.DownloadDownloading, models.DownloadCompleted}, assets.statuses(1))
	stored, _ := assets.GetAsset(context.Background(), 1)
	assert.Equal(t, location, stored.DownloadPath)
}

func TestDownload_CollisionSuffix(t *testing.T) {
	srv := newAssetServer(t)
	first := storedAsset(1, "photo.jpg", srv.URL+"/a/photo.jpg", models.CategoryImage)
	second := storedAsset(2, "photo.jpg", srv.URL+"/b/photo.jpg", models.CategoryImage)
	assets := newMemoryAssets(first, second)
	d, fs := newTestDownloader(t, assets, testConfig())

	loc1, err := d.Download(context.Background(), &first)
	require.NoError(t, err)
	loc2, err := d.Download(context.Background(), &second)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(fs.Root(), "run-1", "photo.jpg"), loc1)
	assert.Equal(t, filepath.Join(fs.Root(), "run-1", "photo_1.jpg"), loc2)
}

func TestDownload_UnsafeFilename(t *testing.T) {
	srv := newAssetServer(t)
	asset := storedAsset(1, `a<b>:c?.jpg`, srv.URL+"/a/photo.jpg", models.CategoryImage)
	d, fs := newTestDownloader(t, newMemoryAssets(asset), testConfig())

	location, err := d.Download(context.Background(), &asset)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fs.Root(), "run-1", "a_b__c_.jpg"), location)
}

func TestDownload_ExternalEmbedRefused(t *testing.T) {
	asset := storedAsset(1, "My Clip.mp4", "https://www.youtube.com/embed/abc", models.CategoryVideo)
	asset.Descriptor.IsExternalEmbed = true
	assets := newMemoryAssets(asset)
	d, _ := newTestDownloader(t, assets, testConfig())

	_, err := d.Download(context.Background(), &asset)
	assert.True(t, errors.Is(err, common.ErrExternalEmbed))
	assert.Equal(t, []models.DownloadStatus{models.DownloadError}, assets.statuses(1))
}

func TestDownload_HTTPErrorIsNotRetried(t *testing.T) {
	srv := newAssetServer(t)
	asset := storedAsset(1, "missing.mp3", srv.URL+"/missing.mp3", models.CategoryAudio)
	assets := newMemoryAssets(asset)
	cfg := testConfig()
	cfg.MaxAttempts = 3
	d, _ := newTestDownloader(t, assets, cfg)

	_, err := d.Download(context.Background(), &asset)
	var httpErr *common.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, []models.DownloadStatus{models.DownloadDownloading, models.DownloadError}, assets.statuses(1))
}

func TestDownload_RetriesServerError(t *testing.T) {
	srv := newAssetServer(t)
	asset := storedAsset(1, "flaky.pdf", srv.URL+"/flaky.pdf", models.CategoryDocument)
	cfg := testConfig()
	cfg.MaxAttempts = 2
	d, _ := newTestDownloader(t, newMemoryAssets(asset), cfg)

	location, err := d.Download(context.Background(), &asset)
	require.NoError(t, err)
	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(data))
}

func TestDownload_SingleAttemptByDefault(t *testing.T) {
	srv := newAssetServer(t)
	asset := storedAsset(1, "flaky.pdf", srv.URL+"/flaky.pdf", models.CategoryDocument)
	d, _ := newTestDownloader(t, newMemoryAssets(asset), testConfig())

	_, err := d.Download(context.Background(), &asset)
	assert.True(t, common.IsRetryable(err))
}

func TestDownload_InsufficientSpace(t *testing.T) {
	srv := newAssetServer(t)
	asset := storedAsset(1, "photo.jpg", srv.URL+"/a/photo.jpg", models.CategoryImage)
	assets := newMemoryAssets(asset)
	cfg := testConfig()
	cfg.MinFreeMB = 1 << 30 // 1 PiB
	d, _ := newTestDownloader(t, assets, cfg)

	_, err := d.Download(context.Background(), &asset)
	assert.True(t, errors.Is(err, common.ErrInsufficientSpace))
	assert.Equal(t, []models.DownloadStatus{models.DownloadDownloading, models.DownloadError}, assets.statuses(1))
}

func TestBundle(t *testing.T) {
	srv := newAssetServer(t)
	ctx := context.Background()

	first := storedAsset(1, "photo.jpg", srv.URL+"/a/photo.jpg", models.CategoryImage)
	second := storedAsset(2, "photo.jpg", srv.URL+"/b/photo.jpg", models.CategoryImage)
	missing := storedAsset(3, "missing.mp3", srv.URL+"/missing.mp3", models.CategoryAudio)
	embed := storedAsset(4, "My Clip.mp4", "https://www.youtube.com/embed/abc", models.CategoryVideo)
	embed.Descriptor.IsExternalEmbed = true

	assets := newMemoryAssets(first, second, missing, embed)
	d, fs := newTestDownloader(t, assets, testConfig())

	// The first asset was fetched earlier; the bundle must reuse it.
	loc, err := d.Download(ctx, &first)
	require.NoError(t, err)
	first.DownloadStatus = models.DownloadCompleted
	first.DownloadPath = loc

	run := &models.AnalysisRun{ID: "run-1", TargetURL: srv.URL + "/gallery/"}
	location, err := d.Bundle(ctx, run, []models.StoredAsset{first, second, missing, embed})
	require.NoError(t, err)

	assert.Equal(t, fs.Root(), filepath.Dir(location))
	assert.Regexp(t, regexp.MustCompile(`^download_127_0_0_1_\d+_[0-9a-f]{8}\.zip$`), filepath.Base(location))

	reader, err := zip.OpenReader(location)
	require.NoError(t, err)
	defer reader.Close()

	contents := map[string]string{}
	var names []string
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		names = append(names, f.Name)
		contents[f.Name] = string(data)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"image/photo.jpg", "image/photo_1.jpg"}, names)
	assert.Equal(t, "first photo", contents["image/photo.jpg"])
	assert.Equal(t, "second photo", contents["image/photo_1.jpg"])

	assert.Equal(t, []models.DownloadStatus{models.DownloadDownloading, models.DownloadCompleted}, assets.statuses(1))
	assert.Equal(t, []models.DownloadStatus{models.DownloadDownloading, models.DownloadError}, assets.statuses(3))
	assert.Equal(t, []models.DownloadStatus{models.DownloadDownloading, models.DownloadCompleted}, assets.statuses(2))
}

func TestBundle_ConcurrentSameNameDownloads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/one/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = io.WriteString(w, "AAAA")
	})
	mux.HandleFunc("/two/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = io.WriteString(w, "BBBB")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	first := storedAsset(1, "clip.mp4", srv.URL+"/one/clip.mp4", models.CategoryVideo)
	second := storedAsset(2, "clip.mp4", srv.URL+"/two/clip.mp4", models.CategoryVideo)
	assets := newMemoryAssets(first, second)
	cfg := testConfig()
	cfg.Concurrency = 2
	d, fs := newTestDownloader(t, assets, cfg)

	run := &models.AnalysisRun{ID: "run-1", TargetURL: srv.URL + "/"}
	location, err := d.Bundle(context.Background(), run, []models.StoredAsset{first, second})
	require.NoError(t, err)

	reader, err := zip.OpenReader(location)
	require.NoError(t, err)
	defer reader.Close()

	contents := map[string]string{}
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		contents[f.Name] = string(data)
	}
	assert.Equal(t, map[string]string{
		"video/clip.mp4":   "AAAA",
		"video/clip_1.mp4": "BBBB",
	}, contents)

	stored1, _ := assets.GetAsset(context.Background(), 1)
	stored2, _ := assets.GetAsset(context.Background(), 2)
	assert.NotEqual(t, stored1.DownloadPath, stored2.DownloadPath)
	assert.ElementsMatch(t,
		[]string{filepath.Join(fs.Root(), "run-1", "clip.mp4"), filepath.Join(fs.Root(), "run-1", "clip_1.mp4")},
		[]string{stored1.DownloadPath, stored2.DownloadPath})
	assert.Empty(t, d.reserved)
}

func TestReserveKey_SkipsInFlightKeys(t *testing.T) {
	d, _ := newTestDownloader(t, newMemoryAssets(), testConfig())
	ctx := context.Background()

	first, err := d.reserveKey(ctx, "run-1", "clip.mp4")
	require.NoError(t, err)
	second, err := d.reserveKey(ctx, "run-1", "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "run-1/clip.mp4", first)
	assert.Equal(t, "run-1/clip_1.mp4", second)

	d.releaseKey(first)
	again, err := d.reserveKey(ctx, "run-1", "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "run-1/clip.mp4", again)
}

func TestEntryName(t *testing.T) {
	used := map[string]struct{}{}
	d := models.AssetDescriptor{Filename: "clip.mp4", Category: models.CategoryVideo}

	assert.Equal(t, "video/clip.mp4", entryName(d, used))
	assert.Equal(t, "video/clip_1.mp4", entryName(d, used))
	assert.Equal(t, "video/clip_2.mp4", entryName(d, used))
	assert.Equal(t, "image/clip.mp4", entryName(models.AssetDescriptor{Filename: "clip.mp4", Category: models.CategoryImage}, used))
}

func TestKeyForLocation(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{location: "/data/downloads/run-1/photo.jpg", want: "run-1/photo.jpg"},
		{location: "s3://media/scout/downloads/run-1/photo_1.jpg", want: "run-1/photo_1.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, keyForLocation("run-1", tt.location))
		})
	}
	assert.Equal(t, "run-1/x.bin", keyForLocation("run-1", fmt.Sprintf("%s/x.bin", t.TempDir())))
}
