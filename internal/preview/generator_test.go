package preview

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aleister1102/mediascout/internal/config"
	"github.com/aleister1102/mediascout/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: 100, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngDeclaring returns a tiny PNG whose header claims width x height.
func pngDeclaring(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := append([]byte(nil), pngBytes(t, 1, 1)...)
	// IHDR data follows the signature, chunk length and type.
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func newTestGenerator(t *testing.T, cfg config.PreviewConfig) (*Generator, *storage.FileSystem, *httptest.Server) {
	t.Helper()

	wide := pngBytes(t, 800, 400)
	bomb := pngDeclaring(t, 100000, 100000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wide.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(wide)
		case "/bomb.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(bomb)
		case "/page.html":
			_, _ = w.Write([]byte("<html><body>not an image</body></html>"))
		case "/huge.png":
			_, _ = w.Write(bytes.Repeat([]byte{0x89}, 2*1024*1024))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	store, err := storage.NewFileSystem(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	g := NewGenerator(server.Client(), store, cfg, zerolog.Nop())
	g.newID = func() string { return "abcd1234" }
	return g, store, server
}

func TestGenerate_Thumbnail(t *testing.T) {
	g, store, server := newTestGenerator(t, config.NewDefaultPreviewConfig())

	key, err := g.Generate(context.Background(), server.URL+"/wide.png", "wide.png")
	require.NoError(t, err)
	assert.Equal(t, "preview_abcd1234_wide.jpg", key)

	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()

	img, err := jpeg.Decode(rc)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestGenerate_Failures(t *testing.T) {
	cfg := config.NewDefaultPreviewConfig()
	cfg.MaxSourceMB = 1
	g, _, server := newTestGenerator(t, cfg)

	tests := []struct {
		name string
		path string
	}{
		{name: "not an image", path: "/page.html"},
		{name: "missing", path: "/missing.png"},
		{name: "too large", path: "/huge.png"},
		{name: "too many pixels", path: "/bomb.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := g.Generate(context.Background(), server.URL+tt.path, "x.png")
			assert.Error(t, err)
			assert.Empty(t, key)
		})
	}
}

func TestGenerate_PixelLimit(t *testing.T) {
	cfg := config.NewDefaultPreviewConfig()
	cfg.MaxPixels = 800*400 - 1
	g, _, server := newTestGenerator(t, cfg)

	_, err := g.Generate(context.Background(), server.URL+"/wide.png", "wide.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "800x400")

	cfg.MaxPixels = 0
	g, _, server = newTestGenerator(t, cfg)
	_, err = g.Generate(context.Background(), server.URL+"/wide.png", "wide.png")
	assert.NoError(t, err)
}

func TestPreviewName_SanitizesBasis(t *testing.T) {
	g := NewGenerator(nil, nil, config.PreviewConfig{}, zerolog.Nop())
	g.newID = func() string { return "00000000" }

	assert.Equal(t, "preview_00000000_my_photo.jpg", g.previewName("my photo!.png"))
}
