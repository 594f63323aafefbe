// Package render draws identification cards into bitmaps.
//
// Cards are drawn straight into an in-memory RGBA canvas at a fixed logical
// size multiplied by Scale, so every record yields a bitmap of exactly the
// same dimensions and nothing has to wait for a display surface.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"

	"github.com/arcanaland/cardpress/internal/card"
	"github.com/arcanaland/cardpress/internal/logger"
)

const (
	// LogicalWidth and LogicalHeight are the card canvas in logical pixels,
	// 4 px per millimetre of a 53x85 mm card.
	LogicalWidth  = 212
	LogicalHeight = 340

	// Scale is the oversampling factor cards are drawn at.
	Scale = 3
)

// Renderer turns one record into a card bitmap.
type Renderer interface {
	Render(ctx context.Context, rec card.Record) (*card.Rendered, error)
}

// Template is the static part of every card.
type Template struct {
	Institution string
	Subtitle    string
	Logo        image.Image // Optional
	HeaderColor colorful.Color
	AccentColor colorful.Color
	Contact     []string
}

// Options configures a Raster renderer.
type Options struct {
	Fonts  FontFiles
	Photos PhotoLoader
	Logger *slog.Logger
}

// Raster draws cards with the Go image packages.
type Raster struct {
	tmpl   Template
	faces  *faces
	photos PhotoLoader
	log    *slog.Logger
}

// NewRaster prepares fonts for the template.
func NewRaster(tmpl Template, opts Options) (*Raster, error) {
	f, err := loadFaces(opts.Fonts)
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logger.L()
	}
	return &Raster{tmpl: tmpl, faces: f, photos: opts.Photos, log: log}, nil
}

// Bounds returns the pixel rectangle every rendered card has.
func Bounds() image.Rectangle {
	return image.Rect(0, 0, LogicalWidth*Scale, LogicalHeight*Scale)
}

// Render draws rec onto a fresh canvas. A missing or unreadable photo is
// replaced by a placeholder; any other failure is a *card.RenderError.
func (r *Raster) Render(ctx context.Context, rec card.Record) (out *card.Rendered, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, &card.RenderError{RecordID: rec.ID(), Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, &card.RenderError{RecordID: rec.ID(), Err: err}
	}

	canvas := image.NewRGBA(Bounds())
	if err := r.draw(ctx, canvas, rec); err != nil {
		return nil, &card.RenderError{RecordID: rec.ID(), Err: err}
	}
	if canvas.Bounds() != Bounds() {
		return nil, &card.RenderError{RecordID: rec.ID(), Err: fmt.Errorf("canvas is %v, want %v", canvas.Bounds(), Bounds())}
	}

	return &card.Rendered{Record: rec, Image: canvas, Scale: Scale}, nil
}

var (
	white   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ink     = color.RGBA{0x11, 0x18, 0x27, 0xff}
	muted   = color.RGBA{0x4b, 0x55, 0x63, 0xff}
	divider = color.RGBA{0xd1, 0xd5, 0xdb, 0xff}
)

// px converts logical pixels to canvas pixels.
func px(v int) int { return v * Scale }

func rect(x0, y0, x1, y1 int) image.Rectangle {
	return image.Rect(px(x0), px(y0), px(x1), px(y1))
}

func (r *Raster) draw(ctx context.Context, dst *image.RGBA, rec card.Record) error {
	fillRect(dst, dst.Bounds(), white)

	if err := r.drawHeader(dst); err != nil {
		return err
	}
	if err := r.drawPhoto(ctx, dst, rec); err != nil {
		return err
	}
	if err := r.drawIdentity(dst, rec); err != nil {
		return err
	}
	return r.drawFooter(dst)
}

func (r *Raster) drawHeader(dst *image.RGBA) error {
	gradient(dst, rect(0, 0, LogicalWidth, 64), r.tmpl.HeaderColor, r.tmpl.AccentColor)

	textLeft := 8
	if r.tmpl.Logo != nil {
		drawContain(dst, rect(8, 8, 56, 56), r.tmpl.Logo)
		textLeft = 62
	}
	width := px(LogicalWidth - textLeft - 8)

	name, err := r.fit(true, 12, 8, r.tmpl.Institution, width)
	if err != nil {
		return err
	}
	drawText(dst, name.face, white, px(textLeft), px(28), name.text)

	if r.tmpl.Subtitle != "" {
		sub, err := r.fit(false, 8, 6, r.tmpl.Subtitle, width)
		if err != nil {
			return err
		}
		drawText(dst, sub.face, white, px(textLeft), px(44), sub.text)
	}
	return nil
}

// drawPhoto falls back to the placeholder when the photo cannot be loaded.
// It only fails when ctx ends while the photo is loading.
func (r *Raster) drawPhoto(ctx context.Context, dst *image.RGBA, rec card.Record) error {
	slot := rect(58, 76, 154, 196)

	var photo image.Image
	if rec.HasPhoto() {
		img, err := r.photos.Load(ctx, rec.Photo())
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			r.log.Warn("render.photo_unavailable", "record_id", rec.ID(), "error", err)
		} else {
			photo = img
		}
	}

	if photo != nil {
		drawCover(dst, slot, photo)
	} else {
		drawPlaceholder(dst, slot)
	}
	strokeRect(dst, slot, px(1), r.tmpl.AccentColor)
	return nil
}

func (r *Raster) drawIdentity(dst *image.RGBA, rec card.Record) error {
	inner := px(LogicalWidth - 16)

	name, err := r.fit(true, 14, 9, strings.ToUpper(rec.Name()), inner)
	if err != nil {
		return err
	}
	drawCentered(dst, name.face, ink, px(8), inner, px(216), name.text)

	if rec.LocalName() != "" {
		local, err := r.fit(false, 11, 8, rec.LocalName(), inner)
		if err != nil {
			return err
		}
		drawCentered(dst, local.face, muted, px(8), inner, px(232), local.text)
	}

	fillRect(dst, rect(16, 240, LogicalWidth-16, 241), divider)

	label, err := r.faces.face(true, float64(px(8)))
	if err != nil {
		return err
	}
	rows := []struct{ label, value string }{
		{"ID", rec.Code()},
		{"Dept", rec.Department()},
		{"Batch", rec.Batch()},
	}
	valueLeft := 64
	for i, row := range rows {
		y := px(256 + i*16)
		drawText(dst, label, muted, px(16), y, row.label)
		value, err := r.fit(false, 9, 7, orDash(row.value), px(LogicalWidth-valueLeft-12))
		if err != nil {
			return err
		}
		drawText(dst, value.face, ink, px(valueLeft), y, value.text)
	}
	return nil
}

func (r *Raster) drawFooter(dst *image.RGBA) error {
	fillRect(dst, rect(0, 300, LogicalWidth, LogicalHeight), r.tmpl.HeaderColor)

	lines := r.tmpl.Contact
	if len(lines) > 2 {
		lines = lines[:2]
	}
	inner := px(LogicalWidth - 16)
	for i, line := range lines {
		t, err := r.fit(false, 7, 5, line, inner)
		if err != nil {
			return err
		}
		drawCentered(dst, t.face, white, px(8), inner, px(316+i*12), t.text)
	}
	return nil
}

type fitted struct {
	face font.Face
	text string
}

// fit picks the largest size in [lo, hi] logical pixels at which s fits
// width, truncating at the smallest size if it still does not.
func (r *Raster) fit(bold bool, hi, lo int, s string, width int) (fitted, error) {
	var face font.Face
	for size := hi; size >= lo; size-- {
		f, err := r.faces.face(bold, float64(px(size)))
		if err != nil {
			return fitted{}, err
		}
		face = f
		if textWidth(f, s) <= width {
			return fitted{face: f, text: s}, nil
		}
	}
	return fitted{face: face, text: truncate(face, s, width)}, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
