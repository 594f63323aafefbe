package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/arcanaland/cardpress/internal/card"
	"github.com/arcanaland/cardpress/internal/config"
	"github.com/arcanaland/cardpress/internal/layout"
	"github.com/arcanaland/cardpress/internal/paper"
)

// =============================================================================
// WORD EXPORTER
// =============================================================================

const (
	wordFixedCols = 3
	wordFixedRows = 2
)

// WordExporter writes a DOCX with one table of card images per page.
type WordExporter struct {
	Grid string
}

// NewWordExporter creates a new Word exporter. An unknown grid mode falls
// back to the fixed 3x2 grid.
func NewWordExporter(grid string) *WordExporter {
	if grid != config.WordGridProfile {
		grid = config.WordGridFixed
	}
	return &WordExporter{Grid: grid}
}

func (e *WordExporter) Format() Format { return FormatWord }

// grid returns the profile whose Cols/Rows drive the table layout.
func (e *WordExporter) grid(p paper.Profile) paper.Profile {
	if e.Grid == config.WordGridProfile {
		return p
	}
	p.Cols, p.Rows = wordFixedCols, wordFixedRows
	return p
}

// Export builds the DOCX in memory and writes it once.
func (e *WordExporter) Export(ctx context.Context, doc *layout.Document, t Target) (*Result, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	data, err := e.build(ctx, doc)
	if err != nil {
		return nil, err
	}

	path, err := t.Files.WriteFile(t.Name, data)
	if err != nil {
		return nil, err
	}
	return &Result{Files: []string{path}}, nil
}

type wordImage struct {
	ID     int    // 1-based, used for rId, docPr and media name
	Code   string // Student code, used as alt text
	Width  int64  // EMU
	Height int64  // EMU
}

type wordCell struct {
	Image *wordImage
}

type wordTable struct {
	Rows [][]wordCell
}

type wordDocument struct {
	PageW, PageH       int // twips
	MarginX, MarginTop int // twips
	CellW              int // twips
	RowH               int // twips
	Cols               int
	Tables             []wordTable
	Images             []*wordImage
}

func (e *WordExporter) build(ctx context.Context, doc *layout.Document) ([]byte, error) {
	grid := e.grid(doc.Profile)
	per := grid.CardsPerPage()
	mx, my := layout.Margins(grid)

	wd := wordDocument{
		PageW:     twips(grid.PageWidth),
		PageH:     twips(grid.PageHeight),
		MarginX:   twips(mx),
		MarginTop: twips(my),
		CellW:     twips(grid.GridWidth() / float64(grid.Cols)),
		RowH:      twips(grid.GridHeight() / float64(grid.Rows)),
		Cols:      grid.Cols,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	cards := doc.Cards()
	for start := 0; start < len(cards); start += per {
		table := wordTable{Rows: make([][]wordCell, grid.Rows)}
		for i := 0; i < per; i++ {
			row := i / grid.Cols
			var cell wordCell
			if start+i < len(cards) {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				img, err := addWordImage(zw, cards[start+i], len(wd.Images)+1, grid)
				if err != nil {
					return nil, err
				}
				wd.Images = append(wd.Images, img)
				cell.Image = img
			}
			table.Rows[row] = append(table.Rows[row], cell)
		}
		wd.Tables = append(wd.Tables, table)
	}

	parts := []struct {
		name string
		tmpl *template.Template
	}{
		{"[Content_Types].xml", contentTypesTmpl},
		{"_rels/.rels", rootRelsTmpl},
		{"word/_rels/document.xml.rels", documentRelsTmpl},
		{"word/document.xml", documentTmpl},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("docx %s: %w", part.name, err)
		}
		if err := part.tmpl.Execute(w, wd); err != nil {
			return nil, fmt.Errorf("docx %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("docx: %w", err)
	}
	return buf.Bytes(), nil
}

// addWordImage stores the card PNG in the package and sizes it to the card
// width, keeping the bitmap's aspect ratio.
func addWordImage(zw *zip.Writer, c *card.Rendered, id int, grid paper.Profile) (*wordImage, error) {
	data, err := encodePNG(c)
	if err != nil {
		return nil, err
	}
	w, err := zw.Create(fmt.Sprintf("word/media/image%d.png", id))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	pw, ph := imageSize(c.Image)
	width := grid.CardWidth
	height := width * float64(ph) / float64(pw)
	if height > grid.CardHeight {
		width = width * grid.CardHeight / height
		height = grid.CardHeight
	}

	return &wordImage{
		ID:     id,
		Code:   c.Record.Label(),
		Width:  emu(width),
		Height: emu(height),
	}, nil
}

// twips converts millimetres to twentieths of a point.
func twips(mm float64) int {
	return int(math.Round(mm * 1440 / 25.4))
}

// emu converts millimetres to English Metric Units.
func emu(mm float64) int64 {
	return int64(math.Round(mm * 36000))
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

var wordFuncs = template.FuncMap{
	"xml":  xmlEscape,
	"last": func(i, n int) bool { return i == n-1 },
}

var contentTypesTmpl = template.Must(template.New("ct").Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="png" ContentType="image/png"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))

var rootRelsTmpl = template.Must(template.New("rels").Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`))

var documentRelsTmpl = template.Must(template.New("docrels").Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
{{- range .Images}}
<Relationship Id="rId{{.ID}}" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image{{.ID}}.png"/>
{{- end}}
</Relationships>`))

var documentTmpl = template.Must(template.New("doc").Funcs(wordFuncs).Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">
<w:body>
{{- $doc := . }}
{{- range $ti, $table := .Tables}}
<w:tbl>
<w:tblPr><w:jc w:val="center"/><w:tblLayout w:type="fixed"/><w:tblCellMar><w:left w:w="0" w:type="dxa"/><w:right w:w="0" w:type="dxa"/></w:tblCellMar></w:tblPr>
<w:tblGrid>{{range (index $table.Rows 0)}}<w:gridCol w:w="{{$doc.CellW}}"/>{{end}}</w:tblGrid>
{{- range $table.Rows}}
<w:tr><w:trPr><w:trHeight w:val="{{$doc.RowH}}" w:hRule="exact"/></w:trPr>
{{- range .}}
<w:tc><w:tcPr><w:tcW w:w="{{$doc.CellW}}" w:type="dxa"/></w:tcPr><w:p><w:pPr><w:spacing w:before="0" w:after="0"/><w:jc w:val="center"/></w:pPr>
{{- with .Image}}<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0"><wp:extent cx="{{.Width}}" cy="{{.Height}}"/><wp:docPr id="{{.ID}}" name="Card {{.ID}}" descr="{{xml .Code}}"/><a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture"><pic:pic><pic:nvPicPr><pic:cNvPr id="{{.ID}}" name="image{{.ID}}.png"/><pic:cNvPicPr/></pic:nvPicPr><pic:blipFill><a:blip r:embed="rId{{.ID}}"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill><pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="{{.Width}}" cy="{{.Height}}"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr></pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>{{end -}}
</w:p></w:tc>
{{- end}}
</w:tr>
{{- end}}
</w:tbl>
<w:p>{{if not (last $ti (len $doc.Tables))}}<w:r><w:br w:type="page"/></w:r>{{end}}</w:p>
{{- end}}
<w:sectPr><w:pgSz w:w="{{.PageW}}" w:h="{{.PageH}}" w:orient="landscape"/><w:pgMar w:top="{{.MarginTop}}" w:right="{{.MarginX}}" w:bottom="0" w:left="{{.MarginX}}" w:header="0" w:footer="0" w:gutter="0"/></w:sectPr>
</w:body>
</w:document>`))
