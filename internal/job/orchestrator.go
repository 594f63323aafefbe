package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arcanaland/cardpress/internal/card"
	"github.com/arcanaland/cardpress/internal/export"
	"github.com/arcanaland/cardpress/internal/layout"
	"github.com/arcanaland/cardpress/internal/logger"
	"github.com/arcanaland/cardpress/internal/notify"
	"github.com/arcanaland/cardpress/internal/paper"
	"github.com/arcanaland/cardpress/internal/render"
)

// Request describes one export.
type Request struct {
	Records  []card.Record
	PaperKey string
	Format   export.Format
	Names    export.NameContext
	Files    export.FileWriter
}

// Orchestrator drives a job through rendering, composition and export.
type Orchestrator struct {
	Renderer  render.Renderer
	Exporters map[export.Format]export.Exporter
	Sink      notify.Sink
	Log       *slog.Logger

	// Now stamps filenames and job times; defaults to time.Now.
	Now func() time.Time
}

// NewOrchestrator registers exporters by their format.
func NewOrchestrator(r render.Renderer, sink notify.Sink, exporters ...export.Exporter) *Orchestrator {
	o := &Orchestrator{
		Renderer:  r,
		Exporters: make(map[export.Format]export.Exporter, len(exporters)),
		Sink:      sink,
	}
	for _, e := range exporters {
		o.Exporters[e.Format()] = e
	}
	return o
}

// Run executes an export job. The returned job is non-nil whenever one was
// started, including on failure; its Err matches the returned error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Job, error) {
	sink := o.sink()
	log := o.logger()

	if len(req.Records) == 0 {
		sink.Error(card.ErrNoSelection)
		return nil, card.ErrNoSelection
	}

	exp, ok := o.Exporters[req.Format]
	if !ok {
		err := fmt.Errorf("no exporter for format %q", req.Format)
		sink.Error(err)
		return nil, err
	}

	profile, known := paper.Resolve(req.PaperKey)
	if !known && strings.TrimSpace(req.PaperKey) != "" {
		log.Debug("paper.fallback", "requested", req.PaperKey, "profile", profile.ID)
	}

	j := newJob(profile, req.Format, len(req.Records), o.now())
	j.Filename = export.BuildFilename(req.Format, req.Names, j.Created)
	log = log.With("job", j.ID, "format", string(req.Format), "paper", profile.ID)
	log.Info("job.started", "records", len(req.Records), "filename", j.Filename)

	err := o.run(ctx, j, exp, req, log)
	if err != nil {
		log.Error("job.failed", "state", string(j.State), "error", err)
		sink.Error(err)
		return j, err
	}

	log.Info("job.succeeded", "files", len(j.Files))
	sink.Success(fmt.Sprintf("exported %d card(s) to %s", len(req.Records), strings.Join(j.Files, ", ")))
	return j, nil
}

func (o *Orchestrator) run(ctx context.Context, j *Job, exp export.Exporter, req Request, log *slog.Logger) error {
	sink := o.sink()

	if err := j.transition(StateRendering); err != nil {
		return err
	}
	cards := make([]*card.Rendered, 0, len(req.Records))
	for i, rec := range req.Records {
		c, err := o.Renderer.Render(ctx, rec)
		if err != nil {
			return j.fail(asRenderError(rec, err), o.now())
		}
		if c == nil {
			return j.fail(&card.RenderError{RecordID: rec.ID(), Err: card.ErrNoCardSurfaces}, o.now())
		}
		cards = append(cards, c)
		sink.Progress("render", i+1, len(req.Records))
	}
	log.Debug("job.rendered", "cards", len(cards))

	if err := j.transition(StateComposing); err != nil {
		return err
	}
	doc, err := layout.Compose(cards, j.Profile)
	if err != nil {
		return j.fail(err, o.now())
	}
	log.Debug("job.composed", "pages", len(doc.Pages))

	if err := j.transition(StateExporting); err != nil {
		return err
	}
	res, err := exp.Export(ctx, doc, export.Target{Files: req.Files, Name: j.Filename})
	if err != nil {
		return j.fail(err, o.now())
	}

	j.Files = res.Files
	j.Finished = o.now()
	return j.transition(StateSucceeded)
}

// asRenderError makes sure a render failure names its record.
func asRenderError(rec card.Record, err error) error {
	var re *card.RenderError
	if errors.As(err, &re) {
		return err
	}
	return &card.RenderError{RecordID: rec.ID(), Err: err}
}

func (o *Orchestrator) sink() notify.Sink {
	if o.Sink == nil {
		return notify.Nop{}
	}
	return o.Sink
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Log == nil {
		return logger.L()
	}
	return o.Log
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
