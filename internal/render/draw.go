package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// strokeRect draws a border of width w just inside r.
func strokeRect(dst draw.Image, r image.Rectangle, w int, c color.Color) {
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), c)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// gradient fills r left to right, blending from a to b in Lab space.
func gradient(dst draw.Image, r image.Rectangle, a, b colorful.Color) {
	span := float64(r.Dx() - 1)
	if span <= 0 {
		span = 1
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		c := a.BlendLab(b, float64(x-r.Min.X)/span).Clamped()
		fillRect(dst, image.Rect(x, r.Min.Y, x+1, r.Max.Y), c)
	}
}

// drawCover scales src to cover r, cropping the overflow evenly.
func drawCover(dst draw.Image, r image.Rectangle, src image.Image) {
	sb := src.Bounds()
	if sb.Empty() || r.Empty() {
		return
	}
	scale := math.Max(float64(r.Dx())/float64(sb.Dx()), float64(r.Dy())/float64(sb.Dy()))
	w := uint(math.Ceil(float64(sb.Dx()) * scale))
	h := uint(math.Ceil(float64(sb.Dy()) * scale))
	scaled := resize.Resize(w, h, src, resize.Lanczos3)

	b := scaled.Bounds()
	off := image.Pt((b.Dx()-r.Dx())/2, (b.Dy()-r.Dy())/2)
	draw.Draw(dst, r, scaled, b.Min.Add(off), draw.Src)
}

// drawContain scales src to fit inside r and centres it.
func drawContain(dst draw.Image, r image.Rectangle, src image.Image) {
	sb := src.Bounds()
	if sb.Empty() || r.Empty() {
		return
	}
	scale := math.Min(float64(r.Dx())/float64(sb.Dx()), float64(r.Dy())/float64(sb.Dy()))
	w := int(math.Max(1, math.Floor(float64(sb.Dx())*scale)))
	h := int(math.Max(1, math.Floor(float64(sb.Dy())*scale)))
	scaled := resize.Resize(uint(w), uint(h), src, resize.Lanczos3)

	at := image.Pt(r.Min.X+(r.Dx()-w)/2, r.Min.Y+(r.Dy()-h)/2)
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}, scaled, scaled.Bounds().Min, draw.Over)
}

// drawPlaceholder paints a neutral silhouette used when a record has no
// usable photo.
func drawPlaceholder(dst draw.Image, r image.Rectangle) {
	bg := color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	fg := color.RGBA{0x9c, 0xa3, 0xaf, 0xff}
	fillRect(dst, r, bg)

	w, h := float64(r.Dx()), float64(r.Dy())
	cx := float64(r.Min.X) + w/2
	headY := float64(r.Min.Y) + h*0.38
	headR := w * 0.2
	bodyY := float64(r.Max.Y)
	bodyRX, bodyRY := w*0.38, h*0.3

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			dx, dy := fx-cx, fy-headY
			inHead := dx*dx+dy*dy <= headR*headR
			ex, ey := (fx-cx)/bodyRX, (fy-bodyY)/bodyRY
			inBody := ex*ex+ey*ey <= 1
			if inHead || inBody {
				dst.Set(x, y, fg)
			}
		}
	}
}

// textWidth returns the advance of s in whole pixels.
func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// drawText draws s with its baseline starting at (x, y).
func drawText(dst draw.Image, face font.Face, c color.Color, x, y int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawCentered draws s centred horizontally within [left, left+width).
func drawCentered(dst draw.Image, face font.Face, c color.Color, left, width, y int, s string) {
	x := left + (width-textWidth(face, s))/2
	drawText(dst, face, c, x, y, s)
}

// truncate shortens s with an ellipsis until it fits width.
func truncate(face font.Face, s string, width int) string {
	if textWidth(face, s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		t := string(runes) + "…"
		if textWidth(face, t) <= width {
			return t
		}
	}
	return ""
}
