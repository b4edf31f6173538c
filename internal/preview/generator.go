package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"net/http"
	"path"
	"strings"

	// Registered decoders for the formats previews accept.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/config"
	"github.com/aleister1102/mediascout/internal/storage"
	"github.com/aleister1102/mediascout/internal/urlhandler"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
)

// Generator fetches images and stores JPEG thumbnails.
type Generator struct {
	client *http.Client
	store  storage.Storage
	cfg    config.PreviewConfig
	logger zerolog.Logger
	newID  func() string
}

// NewGenerator creates a preview generator writing into store.
func NewGenerator(client *http.Client, store storage.Storage, cfg config.PreviewConfig, logger zerolog.Logger) *Generator {
	if client == nil {
		client = http.DefaultClient
	}
	return &Generator{
		client: client,
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "PreviewGenerator").Logger(),
		newID:  func() string { return uuid.NewString()[:8] },
	}
}

// Generate returns the storage key of the thumbnail for imageURL.
func (g *Generator) Generate(ctx context.Context, imageURL, filenameBasis string) (string, error) {
	if g.cfg.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout())
		defer cancel()
	}

	data, err := g.fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return "", common.NewError("preview source is %s, not an image", detected.String())
	}

	// Dimensions come from the header, so oversized images are refused before
	// any pixel buffer is allocated.
	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", common.WrapErrorf(err, "failed to read %s header", detected.String())
	}
	if pixels := int64(header.Width) * int64(header.Height); g.cfg.MaxPixels > 0 && pixels > g.cfg.MaxPixels {
		return "", common.NewError("preview source is %dx%d, above the %d pixel limit", header.Width, header.Height, g.cfg.MaxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", common.WrapErrorf(err, "failed to decode %s image", detected.String())
	}

	maxDim := uint(g.cfg.MaxDimension)
	thumb := resize.Thumbnail(maxDim, maxDim, src, resize.Lanczos3)

	out := common.DefaultBufferPool.Get()
	defer common.DefaultBufferPool.Put(out)
	if err := jpeg.Encode(out, flatten(thumb), &jpeg.Options{Quality: g.cfg.JPEGQuality}); err != nil {
		return "", common.WrapError(err, "failed to encode preview")
	}

	key := g.previewName(filenameBasis)
	if _, err := g.store.Put(ctx, key, out, "image/jpeg"); err != nil {
		return "", common.WrapError(err, "failed to store preview")
	}

	bounds := thumb.Bounds()
	g.logger.Debug().
		Str("url", imageURL).
		Str("format", format).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Str("key", key).
		Msg("Preview generated")

	return key, nil
}

func (g *Generator) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, common.WrapError(err, "failed to build preview request")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, common.NewNetworkError(imageURL, "preview fetch failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.NewHTTPErrorWithURL(resp.StatusCode, "preview fetch failed", imageURL)
	}

	limit := g.cfg.MaxSourceBytes()
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, common.NewNetworkError(imageURL, "preview read failed", err)
	}
	if int64(len(data)) > limit {
		return nil, common.NewError("preview source exceeds %d bytes", limit)
	}
	return data, nil
}

// previewName builds "<prefix>_<id>_<basename>.jpg".
func (g *Generator) previewName(filenameBasis string) string {
	base := strings.TrimSuffix(filenameBasis, path.Ext(filenameBasis))
	prefix := g.cfg.FilenamePrefix
	if prefix == "" {
		prefix = config.DefaultPreviewFilenamePrefix
	}
	return fmt.Sprintf("%s_%s_%s.jpg", prefix, g.newID(), urlhandler.SanitizeFilename(base))
}

// flatten paints img over white so transparent regions do not turn black in JPEG.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Over)
	return canvas
}
