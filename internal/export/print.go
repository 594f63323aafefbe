package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"strconv"

	"github.com/arcanaland/cardpress/internal/layout"
)

// =============================================================================
// PRINT EXPORTER
// =============================================================================

// PrintLayout is the complete, self-contained description of a print job:
// sheet size and the absolute position of every card on every sheet.
type PrintLayout struct {
	Title      string
	PageWidth  float64 // mm
	PageHeight float64 // mm
	Sheets     []PrintSheet
}

// PrintSheet is one physical sheet.
type PrintSheet struct {
	Cards []PrintCard
}

// PrintCard is a card image placed on a sheet, in millimetres.
type PrintCard struct {
	Code       string
	X, Y, W, H float64
	Src        template.URL // PNG data URI
}

// NewPrintLayout derives the print layout from a composed document. Card
// positions are the document's slot rectangles, unchanged.
func NewPrintLayout(ctx context.Context, doc *layout.Document, title string) (*PrintLayout, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	pl := &PrintLayout{
		Title:      title,
		PageWidth:  doc.Profile.PageWidth,
		PageHeight: doc.Profile.PageHeight,
	}
	for _, page := range doc.Pages {
		var sheet PrintSheet
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
			sheet.Cards = append(sheet.Cards, PrintCard{
				Code: slot.Card.Record.Label(),
				X:    slot.Rect.X,
				Y:    slot.Rect.Y,
				W:    slot.Rect.Width,
				H:    slot.Rect.Height,
				Src:  template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(data)),
			})
		}
		pl.Sheets = append(pl.Sheets, sheet)
	}
	return pl, nil
}

// Render writes the layout as a standalone HTML document.
func (pl *PrintLayout) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := printTmpl.Execute(&buf, pl); err != nil {
		return nil, fmt.Errorf("render print layout: %w", err)
	}
	return buf.Bytes(), nil
}

// PrintExporter writes print-ready HTML for the browser's print dialog.
type PrintExporter struct {
	Title string
}

// NewPrintExporter creates a new print exporter.
func NewPrintExporter(title string) *PrintExporter {
	return &PrintExporter{Title: title}
}

func (e *PrintExporter) Format() Format { return FormatPrint }

func (e *PrintExporter) Export(ctx context.Context, doc *layout.Document, t Target) (*Result, error) {
	pl, err := NewPrintLayout(ctx, doc, e.Title)
	if err != nil {
		return nil, err
	}
	data, err := pl.Render()
	if err != nil {
		return nil, err
	}
	path, err := t.Files.WriteFile(t.Name, data)
	if err != nil {
		return nil, err
	}
	return &Result{Files: []string{path}}, nil
}

func mm(v float64) template.CSS {
	return template.CSS(strconv.FormatFloat(v, 'f', -1, 64) + "mm")
}

var printTmpl = template.Must(template.New("print").Funcs(template.FuncMap{"mm": mm}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="generator" content="cardpress">
<title>{{.Title}}</title>
<style>
@page { size: {{mm .PageWidth}} {{mm .PageHeight}}; margin: 0; }
* { box-sizing: border-box; }
html, body { margin: 0; padding: 0; }
.sheet { position: relative; overflow: hidden; width: {{mm .PageWidth}}; height: {{mm .PageHeight}}; page-break-after: always; break-after: page; }
.sheet:last-child { page-break-after: auto; break-after: auto; }
.card { position: absolute; display: block; }
@media screen {
  body { background: #6b7280; }
  .sheet { margin: 8mm auto; background: #fff; box-shadow: 0 2px 8px rgba(0, 0, 0, 0.4); }
}
</style>
</head>
<body>
{{- range .Sheets}}
<section class="sheet">
{{- range .Cards}}
<img class="card" src="{{.Src}}" alt="{{.Code}}" style="left: {{mm .X}}; top: {{mm .Y}}; width: {{mm .W}}; height: {{mm .H}};">
{{- end}}
</section>
{{- end}}
</body>
</html>
`))
