package preview

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func TestSize(t *testing.T) {
	w, h := Size(solid(636, 1020, color.White), 30)
	assert.Equal(t, 30, w)
	assert.Equal(t, 24, h)

	w, h = Size(image.NewRGBA(image.Rect(0, 0, 0, 0)), 30)
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestANSIPlain(t *testing.T) {
	art := ANSI(solid(40, 40, color.White), 4, 3, false)
	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Equal(t, "▀▀▀▀", l)
	}
}

func TestANSITrueColor(t *testing.T) {
	art := ANSI(solid(10, 10, color.RGBA{R: 255, A: 255}), 2, 1, true)
	assert.Equal(t, 2, strings.Count(art, "\x1b[38;2;255;0;0m\x1b[48;2;255;0;0m▀\x1b[0m"))
	assert.Equal(t, 2, VisibleWidth(strings.TrimSuffix(art, "\n")))
}

func TestANSIEmpty(t *testing.T) {
	assert.Empty(t, ANSI(solid(4, 4, color.Black), 0, 3, true))
}

func TestVisibleWidth(t *testing.T) {
	assert.Equal(t, 0, VisibleWidth(""))
	assert.Equal(t, 3, VisibleWidth("abc"))
	assert.Equal(t, 2, VisibleWidth("\x1b[31mé▀\x1b[0m"))
}

func TestSideBySide(t *testing.T) {
	out := SideBySide("ab\nabcd\n", []string{"one", "two", "three"}, 2)
	assert.Equal(t, "  ab    one\n  abcd  two\n        three\n", out)
}
