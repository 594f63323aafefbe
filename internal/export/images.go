package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/arcanaland/cardpress/internal/card"
	"github.com/arcanaland/cardpress/internal/emit"
	"github.com/arcanaland/cardpress/internal/layout"
)

// =============================================================================
// IMAGE EXPORTER
// =============================================================================

// ImageFormat is a raster encoding for single-card files.
type ImageFormat string

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
	ImageBMP  ImageFormat = "bmp"
	ImageTIFF ImageFormat = "tiff"
)

// ParseImageFormat accepts an image format name or extension.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return ImagePNG, nil
	case "jpeg", "jpg":
		return ImageJPEG, nil
	case "bmp":
		return ImageBMP, nil
	case "tiff", "tif":
		return ImageTIFF, nil
	}
	return "", fmt.Errorf("unknown image format: %q", s)
}

// Lossless reports whether the format keeps every pixel.
func (f ImageFormat) Lossless() bool {
	return f != ImageJPEG
}

// Ext returns the file extension for the format.
func (f ImageFormat) Ext() string {
	if f == ImageJPEG {
		return "jpg"
	}
	return string(f)
}

// ImageExporter writes one image file per card. It does not paginate.
type ImageExporter struct {
	Encoding  ImageFormat
	Quality   int     // JPEG quality, 1-100
	QueueSize int     // Files that may wait for the writer
	PerSecond float64 // Emission pacing, 0 for none

	// Notify receives per-file progress from the emit queue.
	Notify func(emit.Notification)
}

// ImageOptions configures NewImageExporter.
type ImageOptions struct {
	Format    ImageFormat
	Quality   int
	QueueSize int
	PerSecond float64
	Notify    func(emit.Notification)
}

// NewImageExporter creates a new image exporter.
func NewImageExporter(opts ImageOptions) *ImageExporter {
	if opts.Format == "" {
		opts.Format = ImagePNG
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = jpeg.DefaultQuality
	}
	return &ImageExporter{
		Encoding:  opts.Format,
		Quality:   opts.Quality,
		QueueSize: opts.QueueSize,
		PerSecond: opts.PerSecond,
		Notify:    opts.Notify,
	}
}

func (e *ImageExporter) Format() Format { return FormatImages }

// Export emits every card as <t.Name>/<student code>.<ext>, one at a time.
// If any file fails, files already written are removed.
func (e *ImageExporter) Export(ctx context.Context, doc *layout.Document, t Target) (*Result, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	q := emit.New(emit.Options{
		Size:      e.QueueSize,
		PerSecond: e.PerSecond,
		Notify:    e.Notify,
	})
	q.Start(ctx)

	var written []string // file names, touched only by the queue worker
	var paths []string
	used := make(map[string]int)

	var submitErr error
	for _, c := range doc.Cards() {
		c := c
		name := path.Join(t.Name, uniqueName(used, CardFilename(c.Record.Code(), c.Record.ID(), e.Encoding.Ext())))

		submitErr = q.Submit(ctx, emit.Task{
			ID: name,
			Run: func(context.Context) error {
				data, err := e.encode(c)
				if err != nil {
					return err
				}
				p, err := t.Files.WriteFile(name, data)
				if err != nil {
					return err
				}
				written = append(written, name)
				paths = append(paths, p)
				return nil
			},
		})
		if submitErr != nil {
			break
		}
	}

	err := q.Close()
	if err == nil {
		err = submitErr
	}
	if err != nil {
		for _, name := range written {
			_ = t.Files.Remove(name)
		}
		return nil, err
	}

	return &Result{Files: paths}, nil
}

func (e *ImageExporter) encode(c *card.Rendered) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeImage(&buf, c.Image, e.Encoding, e.Quality); err != nil {
		return nil, &card.RenderError{RecordID: c.Record.ID(), Err: err}
	}
	return buf.Bytes(), nil
}

func encodeImage(w io.Writer, img image.Image, f ImageFormat, quality int) error {
	switch f {
	case ImagePNG:
		return png.Encode(w, img)
	case ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case ImageBMP:
		return bmp.Encode(w, img)
	case ImageTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unsupported image format: %q", f)
}

// uniqueName appends _2, _3, ... to repeated file names.
func uniqueName(used map[string]int, name string) string {
	used[name]++
	n := used[name]
	if n == 1 {
		return name
	}
	ext := path.Ext(name)
	candidate := fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
	if used[candidate] > 0 {
		return uniqueName(used, candidate)
	}
	used[candidate]++
	return candidate
}
