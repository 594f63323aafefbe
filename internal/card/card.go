package card

import (
	"image"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Record is the projection of a student record onto the fields a card shows.
// It is immutable once built with NewRecord.
type Record struct {
	id         string // Backend primary key
	code       string // Student code (e.g., STU-2024-0012)
	name       string // English display name
	localName  string // Khmer name, optional
	department string // Department label, optional
	batch      string // Batch/cohort code, optional
	photo      string // URL, file path, data URI or raw base64, optional
}

// Fields carries the raw values used to build a Record.
type Fields struct {
	ID         string
	Code       string
	Name       string
	LocalName  string
	Department string
	Batch      string
	Photo      string
}

// NewRecord builds an immutable Record from raw field values.
func NewRecord(f Fields) Record {
	return Record{
		id:         clean(f.ID),
		code:       clean(f.Code),
		name:       clean(f.Name),
		localName:  clean(f.LocalName),
		department: clean(f.Department),
		batch:      clean(f.Batch),
		photo:      strings.TrimSpace(f.Photo),
	}
}

func (r Record) ID() string         { return r.id }
func (r Record) Code() string       { return r.code }
func (r Record) Name() string       { return r.name }
func (r Record) LocalName() string  { return r.localName }
func (r Record) Department() string { return r.department }
func (r Record) Batch() string      { return r.batch }
func (r Record) Photo() string      { return r.photo }

// HasPhoto reports whether the record carries a photo reference.
func (r Record) HasPhoto() bool { return r.photo != "" }

// Label identifies the record in messages, preferring the student code.
func (r Record) Label() string {
	if r.code != "" {
		return r.code
	}
	return r.id
}

// Rendered is a Record together with its rasterized card bitmap.
type Rendered struct {
	Record Record
	Image  *image.RGBA
	Scale  int // Oversampling factor the bitmap was drawn at
}

// Size returns the pixel dimensions of the bitmap.
func (r *Rendered) Size() (int, int) {
	b := r.Image.Bounds()
	return b.Dx(), b.Dy()
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
