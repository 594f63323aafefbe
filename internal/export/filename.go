package export

import (
	"fmt"
	"strings"
	"time"
)

// NameContext is what the current selection knows about itself.
type NameContext struct {
	Batch      string // Batch filter, if any
	Department string // Department filter, if any
}

// Tag returns the filename prefix for a format.
func (f Format) Tag() string {
	switch f {
	case FormatPDF:
		return "StudentCards_PDF"
	case FormatWord:
		return "StudentCards_Word"
	case FormatPrint:
		return "StudentCards_Print"
	case FormatImages:
		return "StudentCards_Images"
	}
	return "StudentCards"
}

// Ext returns the artifact extension, empty for image exports which produce a
// directory.
func (f Format) Ext() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatWord:
		return "docx"
	case FormatPrint:
		return "html"
	}
	return ""
}

// BuildFilename returns {Tag}[_{batch}][_{department}]_{YYYY-MM-DD}[.{ext}].
func BuildFilename(f Format, nc NameContext, now time.Time) string {
	parts := []string{f.Tag()}
	if b := namePart(nc.Batch); b != "" {
		parts = append(parts, b)
	}
	if d := namePart(nc.Department); d != "" {
		parts = append(parts, d)
	}
	parts = append(parts, now.Format("2006-01-02"))

	name := strings.Join(parts, "_")
	if ext := f.Ext(); ext != "" {
		name = fmt.Sprintf("%s.%s", name, ext)
	}
	return name
}

// namePart makes s safe inside a filename: whitespace runs become one
// underscore and path separators are dropped.
func namePart(s string) string {
	s = strings.Join(strings.Fields(s), "_")
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// CardFilename names a single card image after the student code, falling back
// to the record ID.
func CardFilename(code, id, ext string) string {
	base := namePart(code)
	if base == "" {
		base = namePart(id)
	}
	if base == "" {
		base = "card"
	}
	return base + "." + ext
}
