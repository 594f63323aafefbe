package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// findAll returns every element with the given tag and class.
func findAll(n *html.Node, tag, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag && attr(n, "class") == class {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestPrintExportSheets(t *testing.T) {
	doc := testDoc(t, 12, "a4")
	files := NewMemWriter()

	res, err := NewPrintExporter("Cards").Export(context.Background(), doc, Target{Files: files, Name: "cards.html"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cards.html"}, res.Files)

	data, _ := files.File("cards.html")
	root, err := html.Parse(bytes.NewReader(data))
	require.NoError(t, err)

	sheets := findAll(root, "section", "sheet")
	require.Len(t, sheets, 2)
	assert.Len(t, findAll(sheets[0], "img", "card"), 10)
	assert.Len(t, findAll(sheets[1], "img", "card"), 2)

	first := findAll(sheets[0], "img", "card")[0]
	assert.Equal(t, "STU-000", attr(first, "alt"))
	assert.True(t, strings.HasPrefix(attr(first, "src"), "data:image/png;base64,"))

	r := doc.Pages[0].Slots[0].Rect
	style := attr(first, "style")
	assert.Contains(t, style, fmt.Sprintf("left: %gmm", r.X))
	assert.Contains(t, style, fmt.Sprintf("top: %gmm", r.Y))
	assert.Contains(t, style, "width: 53mm")
	assert.Contains(t, style, "height: 85mm")

	assert.Contains(t, string(data), "@page { size: 297mm 210mm; margin: 0; }")
}

func TestPrintLayoutMatchesSlots(t *testing.T) {
	doc := testDoc(t, 7, "letter")

	pl, err := NewPrintLayout(context.Background(), doc, "")
	require.NoError(t, err)
	assert.Equal(t, 279.0, pl.PageWidth)
	assert.Equal(t, 216.0, pl.PageHeight)
	require.Len(t, pl.Sheets, 1)
	require.Len(t, pl.Sheets[0].Cards, 7)

	for i, pc := range pl.Sheets[0].Cards {
		r := doc.Pages[0].Slots[i].Rect
		assert.Equal(t, r.X, pc.X)
		assert.Equal(t, r.Y, pc.Y)
		assert.Equal(t, r.Width, pc.W)
		assert.Equal(t, r.Height, pc.H)
	}
}

func TestPrintBrokenCardWritesNothing(t *testing.T) {
	files := NewMemWriter()
	_, err := NewPrintExporter("").Export(context.Background(), docWithBrokenCard(t, 4, 3), Target{Files: files, Name: "cards.html"})
	assertRenderError(t, err, "broken-id")
	assert.Empty(t, files.Names())
}

func TestPrintCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPrintLayout(ctx, testDoc(t, 2, "a4"), "")
	assert.ErrorIs(t, err, context.Canceled)
}
