package job

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/cardpress/internal/card"
	"github.com/arcanaland/cardpress/internal/config"
	"github.com/arcanaland/cardpress/internal/export"
	"github.com/arcanaland/cardpress/internal/logger"
)

// fakeRenderer returns small blank cards and fails on the record at failAt.
type fakeRenderer struct {
	failAt   int
	calls    int
	rendered []string
}

func (f *fakeRenderer) Render(_ context.Context, rec card.Record) (*card.Rendered, error) {
	defer func() { f.calls++ }()
	if f.calls == f.failAt {
		return nil, errors.New("surface lost")
	}
	f.rendered = append(f.rendered, rec.ID())
	return &card.Rendered{Record: rec, Image: image.NewRGBA(image.Rect(0, 0, 53, 85)), Scale: 1}, nil
}

type recordingSink struct {
	progress int
	success  []string
	errs     []error
}

func (s *recordingSink) Progress(string, int, int) { s.progress++ }
func (s *recordingSink) Success(msg string)        { s.success = append(s.success, msg) }
func (s *recordingSink) Error(err error)           { s.errs = append(s.errs, err) }

func records(n int) []card.Record {
	out := make([]card.Record, n)
	for i := range out {
		out[i] = card.NewRecord(card.Fields{
			ID:         fmt.Sprint(i + 1),
			Code:       fmt.Sprintf("S%02d", i+1),
			Name:       fmt.Sprintf("Student %d", i+1),
			Department: "Computer Science",
			Batch:      "B12",
		})
	}
	return out
}

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newTestOrchestrator(r *fakeRenderer, sink *recordingSink) *Orchestrator {
	o := NewOrchestrator(r, sink,
		export.NewPDFExporter(""),
		export.NewWordExporter(config.WordGridFixed),
		export.NewImageExporter(export.ImageOptions{}),
		export.NewPrintExporter(""),
	)
	o.Log = logger.Discard()
	o.Now = func() time.Time { return fixedNow }
	return o
}

func TestRunPDFSucceeds(t *testing.T) {
	sink := &recordingSink{}
	files := export.NewMemWriter()
	o := newTestOrchestrator(&fakeRenderer{failAt: -1}, sink)

	j, err := o.Run(context.Background(), Request{
		Records:  records(12),
		PaperKey: "a4",
		Format:   export.FormatPDF,
		Names:    export.NameContext{Batch: "B12", Department: "Computer Science"},
		Files:    files,
	})
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, j.State)
	assert.Equal(t, []State{StateIdle, StateRendering, StateComposing, StateExporting, StateSucceeded}, j.History)
	assert.Equal(t, "StudentCards_PDF_B12_Computer_Science_2024-03-15.pdf", j.Filename)
	assert.Equal(t, []string{j.Filename}, j.Files)
	assert.Equal(t, []string{j.Filename}, files.Names())
	assert.Equal(t, fixedNow, j.Finished)
	assert.NoError(t, j.Err)

	_, perr := uuid.Parse(j.ID)
	assert.NoError(t, perr)

	assert.Equal(t, 12, sink.progress)
	assert.Len(t, sink.success, 1)
	assert.Empty(t, sink.errs)
}

func TestRunUnknownPaperFallsBackToA4(t *testing.T) {
	o := newTestOrchestrator(&fakeRenderer{failAt: -1}, &recordingSink{})

	j, err := o.Run(context.Background(), Request{
		Records:  records(3),
		PaperKey: "tabloid",
		Format:   export.FormatWord,
		Files:    export.NewMemWriter(),
	})
	require.NoError(t, err)
	assert.Equal(t, "a4", j.Profile.ID)
	assert.Equal(t, "StudentCards_Word_2024-03-15.docx", j.Filename)
}

func TestRunNoRecords(t *testing.T) {
	sink := &recordingSink{}
	r := &fakeRenderer{failAt: -1}
	o := newTestOrchestrator(r, sink)

	j, err := o.Run(context.Background(), Request{Format: export.FormatPDF, Files: export.NewMemWriter()})
	assert.ErrorIs(t, err, card.ErrNoSelection)
	assert.Nil(t, j)
	assert.Zero(t, r.calls)
	require.Len(t, sink.errs, 1)
	assert.ErrorIs(t, sink.errs[0], card.ErrNoSelection)
}

func TestRunRenderFailureStopsJob(t *testing.T) {
	recs := records(12)
	sink := &recordingSink{}
	files := export.NewMemWriter()
	r := &fakeRenderer{failAt: 5}
	o := newTestOrchestrator(r, sink)

	j, err := o.Run(context.Background(), Request{
		Records: recs,
		Format:  export.FormatPDF,
		Files:   files,
	})
	require.Error(t, err)

	var re *card.RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, recs[5].ID(), re.RecordID)

	assert.Equal(t, StateFailed, j.State)
	assert.Equal(t, []State{StateIdle, StateRendering, StateFailed}, j.History)
	assert.Equal(t, err, j.Err)
	assert.Len(t, r.rendered, 5, "no record after the failure is rendered")
	assert.Empty(t, files.Names())
	require.Len(t, sink.errs, 1)
	assert.Empty(t, sink.success)
}

func TestRunNilSurfaceFailsJob(t *testing.T) {
	recs := records(12)
	sink := &recordingSink{}
	files := export.NewMemWriter()
	o := newTestOrchestrator(nil, sink)
	o.Renderer = &nilAtRenderer{at: 5}

	j, err := o.Run(context.Background(), Request{Records: recs, Format: export.FormatImages, Files: files})
	require.Error(t, err)
	assert.ErrorIs(t, err, card.ErrNoCardSurfaces)

	var re *card.RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, recs[5].ID(), re.RecordID)

	assert.Equal(t, StateFailed, j.State)
	assert.Equal(t, []State{StateIdle, StateRendering, StateFailed}, j.History)
	assert.Empty(t, j.Files)
	assert.Empty(t, files.Names())
	assert.Empty(t, sink.success)
}

func TestRunAllNilSurfaces(t *testing.T) {
	o := newTestOrchestrator(nil, &recordingSink{})
	o.Renderer = &nilAtRenderer{at: 0}

	j, err := o.Run(context.Background(), Request{Records: records(2), Format: export.FormatPDF, Files: export.NewMemWriter()})
	assert.ErrorIs(t, err, card.ErrNoCardSurfaces)
	assert.Equal(t, StateFailed, j.State)
}

// nilAtRenderer returns no surface for the record at index at.
type nilAtRenderer struct {
	at    int
	calls int
}

func (n *nilAtRenderer) Render(_ context.Context, rec card.Record) (*card.Rendered, error) {
	defer func() { n.calls++ }()
	if n.calls == n.at {
		return nil, nil
	}
	return &card.Rendered{Record: rec, Image: image.NewRGBA(image.Rect(0, 0, 53, 85)), Scale: 1}, nil
}

func TestRunImagesWritesDirectory(t *testing.T) {
	files := export.NewMemWriter()
	o := newTestOrchestrator(&fakeRenderer{failAt: -1}, &recordingSink{})

	j, err := o.Run(context.Background(), Request{Records: records(3), Format: export.FormatImages, Files: files})
	require.NoError(t, err)
	assert.Equal(t, "StudentCards_Images_2024-03-15", j.Filename)
	assert.Equal(t, []string{
		"StudentCards_Images_2024-03-15/S01.png",
		"StudentCards_Images_2024-03-15/S02.png",
		"StudentCards_Images_2024-03-15/S03.png",
	}, files.Names())
}

func TestRunUnknownFormat(t *testing.T) {
	o := newTestOrchestrator(&fakeRenderer{failAt: -1}, &recordingSink{})
	delete(o.Exporters, export.FormatPrint)

	j, err := o.Run(context.Background(), Request{Records: records(1), Format: export.FormatPrint})
	assert.Error(t, err)
	assert.Nil(t, j)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{"start", StateIdle, StateRendering, false},
		{"skip render", StateIdle, StateComposing, true},
		{"skip compose", StateRendering, StateExporting, true},
		{"fail early", StateIdle, StateFailed, false},
		{"backwards", StateExporting, StateRendering, true},
		{"leave success", StateSucceeded, StateFailed, true},
		{"leave failure", StateFailed, StateRendering, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &Job{State: tt.from}
			err := j.transition(tt.to)
			if tt.wantErr {
				var te *TransitionError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, tt.from, j.State)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, j.State)
		})
	}
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateSucceeded.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateExporting.Terminal())
}
