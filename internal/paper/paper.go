// Package paper holds the catalog of physical paper sizes cards are printed on.
package paper

import (
	"fmt"
	"strings"
)

// Default is the profile used when a requested key is not known.
const Default = "a4"

// Spacing is the gap in millimetres between neighbouring cards, horizontally
// and vertically. Every exporter lays cards out with it.
const Spacing = 3.0

// Profile describes a sheet of paper and the card grid printed on it.
// All lengths are millimetres; pages are landscape.
type Profile struct {
	ID         string
	Name       string
	PageWidth  float64
	PageHeight float64
	CardWidth  float64
	CardHeight float64
	Cols       int
	Rows       int
}

// CardsPerPage returns how many cards one sheet holds.
func (p Profile) CardsPerPage() int {
	return p.Cols * p.Rows
}

// GridWidth returns the width of the card grid including spacing.
func (p Profile) GridWidth() float64 {
	return float64(p.Cols)*p.CardWidth + float64(p.Cols-1)*Spacing
}

// GridHeight returns the height of the card grid including spacing.
func (p Profile) GridHeight() float64 {
	return float64(p.Rows)*p.CardHeight + float64(p.Rows-1)*Spacing
}

// Fits reports whether the grid fits inside the page with positive margins.
func (p Profile) Fits() bool {
	return p.Cols > 0 && p.Rows > 0 &&
		p.GridWidth() < p.PageWidth && p.GridHeight() < p.PageHeight
}

// UnknownProfileError is returned by Lookup for keys not in the registry.
type UnknownProfileError struct {
	Key string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("unknown paper profile: %q", e.Key)
}

// UnfitProfileError is returned for a profile whose grid does not fit its page.
type UnfitProfileError struct {
	Profile Profile
}

func (e *UnfitProfileError) Error() string {
	p := e.Profile
	return fmt.Sprintf("paper profile %q: %dx%d grid does not fit %gx%g mm", p.ID, p.Cols, p.Rows, p.PageWidth, p.PageHeight)
}

var profiles = []Profile{
	{ID: "a4", Name: "A4", PageWidth: 297, PageHeight: 210, CardWidth: 53, CardHeight: 85, Cols: 5, Rows: 2},
	{ID: "letter", Name: "US Letter", PageWidth: 279, PageHeight: 216, CardWidth: 53, CardHeight: 85, Cols: 5, Rows: 2},
	{ID: "a3", Name: "A3", PageWidth: 420, PageHeight: 297, CardWidth: 53, CardHeight: 85, Cols: 7, Rows: 3},
}

// Profiles returns every registered profile in catalog order.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// Lookup returns the profile registered under key.
func Lookup(key string) (Profile, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, p := range profiles {
		if p.ID == k {
			return p, nil
		}
	}
	return Profile{}, &UnknownProfileError{Key: key}
}

// Resolve returns the profile for key, falling back to the default profile
// when the key is unknown. ok is false when the fallback was used.
func Resolve(key string) (p Profile, ok bool) {
	p, err := Lookup(key)
	if err != nil {
		p, _ = Lookup(Default)
		return p, false
	}
	return p, true
}
