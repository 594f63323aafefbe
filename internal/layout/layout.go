// Package layout packs rendered cards into pages sized to a paper profile.
//
// The geometry computed here (slot rectangles in millimetres) is the single
// source every exporter reads, so PDF, print and Word output agree on where
// each card sits.
package layout

import (
	"github.com/arcanaland/cardpress/internal/card"
	"github.com/arcanaland/cardpress/internal/paper"
)

// Rect is a box on the page, in millimetres from the top-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Slot is one grid cell of a page. Card is nil for an empty slot.
type Slot struct {
	Row, Col int
	Rect     Rect
	Card     *card.Rendered
}

// Empty reports whether no card occupies the slot.
func (s Slot) Empty() bool {
	return s.Card == nil
}

// Page is one sheet of paper with CardsPerPage slots in row-major order.
type Page struct {
	Index int
	Slots []Slot
}

// Filled returns the number of occupied slots.
func (p Page) Filled() int {
	n := 0
	for _, s := range p.Slots {
		if !s.Empty() {
			n++
		}
	}
	return n
}

// Document is the full set of pages for one export.
type Document struct {
	Profile paper.Profile
	Pages   []Page
}

// Cards returns every placed card in page and slot order.
func (d *Document) Cards() []*card.Rendered {
	var out []*card.Rendered
	for _, p := range d.Pages {
		for _, s := range p.Slots {
			if !s.Empty() {
				out = append(out, s.Card)
			}
		}
	}
	return out
}

// PageCount returns how many pages n cards need on profile p.
func PageCount(n int, p paper.Profile) int {
	per := p.CardsPerPage()
	if n <= 0 || per <= 0 {
		return 0
	}
	return (n + per - 1) / per
}

// Margins returns the left and top margins that centre the grid on the page.
func Margins(p paper.Profile) (x, y float64) {
	x = (p.PageWidth - p.GridWidth()) / 2
	y = (p.PageHeight - p.GridHeight()) / 2
	return x, y
}

// SlotRect returns the page position of the card at (row, col).
func SlotRect(p paper.Profile, row, col int) Rect {
	mx, my := Margins(p)
	return Rect{
		X:      mx + float64(col)*(p.CardWidth+paper.Spacing),
		Y:      my + float64(row)*(p.CardHeight+paper.Spacing),
		Width:  p.CardWidth,
		Height: p.CardHeight,
	}
}

// Compose distributes cards over as few pages as possible. Cards keep their
// input order; only the final page may have empty slots. A profile that
// does not fit its page is rejected.
func Compose(cards []*card.Rendered, p paper.Profile) (*Document, error) {
	if len(cards) == 0 {
		return nil, card.ErrNoCardSurfaces
	}
	if !p.Fits() {
		return nil, &paper.UnfitProfileError{Profile: p}
	}

	per := p.CardsPerPage()
	doc := &Document{
		Profile: p,
		Pages:   make([]Page, 0, PageCount(len(cards), p)),
	}

	for start := 0; start < len(cards); start += per {
		page := Page{
			Index: len(doc.Pages),
			Slots: make([]Slot, per),
		}
		for i := range page.Slots {
			row, col := i/p.Cols, i%p.Cols
			page.Slots[i] = Slot{Row: row, Col: col, Rect: SlotRect(p, row, col)}
			if start+i < len(cards) {
				page.Slots[i].Card = cards[start+i]
			}
		}
		doc.Pages = append(doc.Pages, page)
	}

	return doc, nil
}
