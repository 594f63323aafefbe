package export

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/arcanaland/cardpress/internal/layout"
)

// =============================================================================
// PDF EXPORTER
// =============================================================================

// PDFExporter writes one landscape PDF page per layout page.
type PDFExporter struct {
	Title string
}

// NewPDFExporter creates a new PDF exporter.
func NewPDFExporter(title string) *PDFExporter {
	return &PDFExporter{Title: title}
}

func (e *PDFExporter) Format() Format { return FormatPDF }

// Export renders the whole document in memory and writes it once.
func (e *PDFExporter) Export(ctx context.Context, doc *layout.Document, t Target) (*Result, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	pdf, err := e.build(ctx, doc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}

	path, err := t.Files.WriteFile(t.Name, buf.Bytes())
	if err != nil {
		return nil, err
	}
	return &Result{Files: []string{path}}, nil
}

func (e *PDFExporter) build(ctx context.Context, doc *layout.Document) (*fpdf.Fpdf, error) {
	p := doc.Profile

	// fpdf swaps width and height for landscape, so hand it the portrait size.
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size: fpdf.SizeType{
			Wd: math.Min(p.PageWidth, p.PageHeight),
			Ht: math.Max(p.PageWidth, p.PageHeight),
		},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("cardpress", true)
	if e.Title != "" {
		pdf.SetTitle(e.Title, true)
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, slot := range page.Slots {
			if slot.Empty() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			data, err := encodePNG(slot.Card)
			if err != nil {
				return nil, err
			}

			name := fmt.Sprintf("card-%d-%d", page.Index, slot.Row*p.Cols+slot.Col)
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
			r := slot.Rect
			pdf.ImageOptions(name, r.X, r.Y, r.Width, r.Height, false, opts, 0, "")
		}
		if pdf.Err() {
			return nil, fmt.Errorf("pdf page %d: %w", page.Index+1, pdf.Error())
		}
	}

	return pdf, nil
}
