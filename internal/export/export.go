// Package export turns a composed card document into files.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/arcanaland/cardpress/internal/card"
	"github.com/arcanaland/cardpress/internal/layout"
)

// =============================================================================
// FORMATS
// =============================================================================

// Format identifies an output pipeline.
type Format string

const (
	FormatPDF    Format = "pdf"
	FormatWord   Format = "word"
	FormatImages Format = "images"
	FormatPrint  Format = "print"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatPDF, FormatWord, FormatImages, FormatPrint}
}

// ParseFormat accepts a format name and a few common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "word", "docx":
		return FormatWord, nil
	case "images", "image", "png":
		return FormatImages, nil
	case "print", "html":
		return FormatPrint, nil
	}
	return "", fmt.Errorf("unknown export format: %q", s)
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter writes one artifact for a composed document.
type Exporter interface {
	// Format returns the pipeline this exporter implements.
	Format() Format

	// Export writes the artifact named t.Name through t.Files.
	Export(ctx context.Context, doc *layout.Document, t Target) (*Result, error)
}

// Target says where an exporter writes.
type Target struct {
	Files FileWriter
	Name  string // File name, or directory name for image exports
}

// Result lists the files an export produced.
type Result struct {
	Files []string
}

// =============================================================================
// FILE WRITERS
// =============================================================================

// FileWriter stores finished files. Exporters call WriteFile only with
// complete contents.
type FileWriter interface {
	WriteFile(name string, data []byte) (string, error)
	Remove(name string) error
}

// DirWriter writes files below a directory on disk.
type DirWriter struct {
	Dir string
}

// WriteFile writes data to a temporary file next to the target and renames it
// into place, so a failed write never leaves a truncated file behind.
func (w DirWriter) WriteFile(name string, data []byte) (string, error) {
	path := filepath.Join(w.Dir, name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

func (w DirWriter) Remove(name string) error {
	return os.Remove(filepath.Join(w.Dir, name))
}

// MemWriter keeps files in memory.
type MemWriter struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewMemWriter() *MemWriter {
	return &MemWriter{files: make(map[string][]byte)}
}

func (w *MemWriter) WriteFile(name string, data []byte) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[name] = append([]byte(nil), data...)
	return name, nil
}

func (w *MemWriter) Remove(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, name)
	return nil
}

// File returns the contents stored under name.
func (w *MemWriter) File(name string) ([]byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, ok := w.files[name]
	return data, ok
}

// Names returns the stored file names, sorted.
func (w *MemWriter) Names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.files))
	for n := range w.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// checkDocument rejects documents with nothing to export.
func checkDocument(doc *layout.Document) error {
	if doc == nil || len(doc.Pages) == 0 || len(doc.Cards()) == 0 {
		return card.ErrNoCardSurfaces
	}
	return nil
}

// encodePNG encodes a card bitmap, wrapping failures as a RenderError so the
// failing record is named.
func encodePNG(c *card.Rendered) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.Image); err != nil {
		return nil, &card.RenderError{RecordID: c.Record.ID(), Err: err}
	}
	return buf.Bytes(), nil
}

// imageSize returns the pixel size of img.
func imageSize(img image.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// OpenFile opens a file in the default application for the OS.
func OpenFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
