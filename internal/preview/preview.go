// Package preview turns a rendered card into half-block ANSI art.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Cell height to width ratio of a typical terminal font.
const cellAspect = 2.0

// Size returns the character grid for showing img width columns wide.
func Size(img image.Image, width int) (int, int) {
	b := img.Bounds()
	if b.Dx() == 0 || width <= 0 {
		return 0, 0
	}
	height := int(float64(width) * float64(b.Dy()) / float64(b.Dx()) / cellAspect)
	if height < 1 {
		height = 1
	}
	return width, height
}

// ANSI converts img to width x height character cells. Each cell is an upper
// half block: the top half of the cell is the foreground colour, the bottom
// half the background. With trueColor false the art is returned as plain
// blocks.
func ANSI(img image.Image, width, height int, trueColor bool) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var b strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			top := average(colorAt(resized, x, y), colorAt(resized, x+1, y))
			bottom := average(colorAt(resized, x, y+1), colorAt(resized, x+1, y+1))
			b.WriteString(cell('▀', toRGBA(top), toRGBA(bottom), trueColor))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// colorAt returns black outside the image.
func colorAt(img image.Image, x, y int) colorful.Color {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return colorful.Color{}
	}
	c, ok := colorful.MakeColor(img.At(x, y))
	if !ok {
		return colorful.Color{}
	}
	return c
}

func average(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	n := float64(len(colors))
	return colorful.Color{R: r / n, G: g / n, B: b / n}
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func cell(ch rune, fg, bg color.RGBA, trueColor bool) string {
	if !trueColor {
		return string(ch)
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
		fg.R, fg.G, fg.B, bg.R, bg.G, bg.B, ch)
}

// VisibleWidth counts the runes of s outside ANSI escape sequences.
func VisibleWidth(s string) int {
	n := 0
	inEscape := false
	for _, c := range s {
		switch {
		case inEscape:
			if c == 'm' {
				inEscape = false
			}
		case c == '\x1b':
			inEscape = true
		default:
			n++
		}
	}
	return n
}

// SideBySide prints art on the left and info lines on the right.
func SideBySide(art string, info []string, gap int) string {
	artLines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	artWidth := 0
	for _, l := range artLines {
		if w := VisibleWidth(l); w > artWidth {
			artWidth = w
		}
	}

	rows := len(artLines)
	if len(info) > rows {
		rows = len(info)
	}

	var b strings.Builder
	for i := 0; i < rows; i++ {
		b.WriteString("  ")
		pad := artWidth + gap
		if i < len(artLines) {
			b.WriteString(artLines[i])
			pad -= VisibleWidth(artLines[i])
		}
		if i < len(info) {
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(info[i])
		}
		b.WriteString("\n")
	}
	return b.String()
}
