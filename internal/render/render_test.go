package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/cardpress/internal/card"
	"github.com/arcanaland/cardpress/internal/config"
	"github.com/arcanaland/cardpress/internal/logger"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestRaster(t *testing.T, photos PhotoLoader) *Raster {
	t.Helper()
	tmpl, err := TemplateFromConfig(config.Default(), "")
	require.NoError(t, err)
	r, err := NewRaster(tmpl, Options{Photos: photos, Logger: logger.Discard()})
	require.NoError(t, err)
	return r
}

func record(photo string) card.Record {
	return card.NewRecord(card.Fields{
		ID:         "17",
		Code:       "STU-017",
		Name:       "Sok Dara",
		Department: "Computer Science",
		Batch:      "B12",
		Photo:      photo,
	})
}

func TestRenderFixedDimensions(t *testing.T) {
	r := newTestRaster(t, PhotoLoader{})

	first, err := r.Render(context.Background(), record(""))
	require.NoError(t, err)
	second, err := r.Render(context.Background(), record(""))
	require.NoError(t, err)

	w, h := first.Size()
	assert.Equal(t, LogicalWidth*Scale, w)
	assert.Equal(t, LogicalHeight*Scale, h)
	assert.Equal(t, first.Image.Bounds(), second.Image.Bounds())
	assert.Equal(t, Scale, first.Scale)
	assert.Equal(t, first.Image.Pix, second.Image.Pix, "same record should draw the same pixels")
}

func TestRenderLongNameKeepsDimensions(t *testing.T) {
	r := newTestRaster(t, PhotoLoader{})
	rec := card.NewRecord(card.Fields{
		ID:   "1",
		Name: "Maximilian Alexander Wolfeschlegelsteinhausenbergerdorff The Third",
	})

	out, err := r.Render(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, Bounds(), out.Image.Bounds())
}

func TestRenderMissingPhotoUsesPlaceholder(t *testing.T) {
	r := newTestRaster(t, PhotoLoader{BaseDir: t.TempDir()})

	out, err := r.Render(context.Background(), record("does/not/exist.png"))
	require.NoError(t, err, "an unreadable photo must not fail the render")

	// Centre of the photo slot falls inside the placeholder head.
	c := out.Image.RGBAAt(px(106), px(121))
	assert.Equal(t, color.RGBA{0x9c, 0xa3, 0xaf, 0xff}, c)
}

func TestRenderDataURIPhoto(t *testing.T) {
	red := color.RGBA{0xff, 0, 0, 0xff}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(solidPNG(t, 40, 50, red))
	r := newTestRaster(t, PhotoLoader{})

	out, err := r.Render(context.Background(), record(uri))
	require.NoError(t, err)
	assert.Equal(t, red, out.Image.RGBAAt(px(106), px(136)))
}

func TestPhotoLoaderSources(t *testing.T) {
	data := solidPNG(t, 8, 8, color.RGBA{0, 0xff, 0, 0xff})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/p.png" {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.png"), data, 0644))

	l := PhotoLoader{BaseDir: dir, Client: srv.Client()}

	tests := []struct {
		name    string
		ref     string
		wantErr bool
	}{
		{"url", srv.URL + "/p.png", false},
		{"url not found", srv.URL + "/missing.png", true},
		{"relative file", "p.png", false},
		{"raw base64", base64.StdEncoding.EncodeToString(data), false},
		{"data uri without base64", "data:image/png,abc", true},
		{"garbage", "not a photo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := l.Load(context.Background(), tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 8, img.Bounds().Dx())
		})
	}
}

func TestRenderStopsOnStalledPhotoHost(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	r := newTestRaster(t, PhotoLoader{Client: srv.Client()})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Render(ctx, record(srv.URL+"/p.png"))
	assert.Less(t, time.Since(start), 2*time.Second)

	var re *card.RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "17", re.RecordID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPhotoLoaderDefaultClientHasTimeout(t *testing.T) {
	assert.NotZero(t, defaultClient.Timeout)
}

func TestRenderCancelledContext(t *testing.T) {
	r := newTestRaster(t, PhotoLoader{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, record(""))
	var re *card.RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "17", re.RecordID)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTemplateFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Institution.HeaderColor = "blue"
	_, err := TemplateFromConfig(cfg, "")
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), solidPNG(t, 10, 10, color.Black), 0644))

	cfg = config.Default()
	cfg.Institution.Logo = "logo.png"
	tmpl, err := TemplateFromConfig(cfg, filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.NotNil(t, tmpl.Logo)

	cfg.Institution.Logo = "missing.png"
	_, err = TemplateFromConfig(cfg, filepath.Join(dir, "config.toml"))
	assert.Error(t, err)
}

func TestNewRasterBadFont(t *testing.T) {
	tmpl, err := TemplateFromConfig(config.Default(), "")
	require.NoError(t, err)

	_, err = NewRaster(tmpl, Options{Fonts: FontFiles{Regular: filepath.Join(t.TempDir(), "none.ttf")}})
	assert.Error(t, err)
}
