package render

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontFiles lists optional font files. Empty paths use the Go fonts, which
// cover Latin text only; point these at a Khmer-capable font to print local
// names.
type FontFiles struct {
	Regular string
	Bold    string
}

type faceKey struct {
	bold bool
	size float64
}

// faces caches font faces per weight and pixel size.
type faces struct {
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	cache map[faceKey]font.Face
}

func loadFaces(files FontFiles) (*faces, error) {
	regular, err := parseFont(files.Regular, goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("regular font: %w", err)
	}
	bold, err := parseFont(files.Bold, gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("bold font: %w", err)
	}
	return &faces{
		regular: regular,
		bold:    bold,
		cache:   make(map[faceKey]font.Face),
	}, nil
}

func parseFont(path string, fallback []byte) (*opentype.Font, error) {
	data := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return opentype.Parse(data)
}

// face returns a face of the given pixel size (at 72 DPI, points == pixels).
func (f *faces) face(bold bool, size float64) (font.Face, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := faceKey{bold: bold, size: size}
	if face, ok := f.cache[key]; ok {
		return face, nil
	}

	src := f.regular
	if bold {
		src = f.bold
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	f.cache[key] = face
	return face, nil
}
