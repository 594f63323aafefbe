package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardpress/internal/card"
	"github.com/arcanaland/cardpress/internal/config"
	"github.com/arcanaland/cardpress/internal/emit"
	"github.com/arcanaland/cardpress/internal/export"
	"github.com/arcanaland/cardpress/internal/job"
	"github.com/arcanaland/cardpress/internal/logger"
	"github.com/arcanaland/cardpress/internal/notify"
	"github.com/arcanaland/cardpress/internal/render"
)

var exportCmd = &cobra.Command{
	Use:   "export [pdf|word|images|print]",
	Short: "Export cards for the selected records",
	Long: `Export renders a card for every selected record and writes it in the
chosen format:

  pdf     one landscape PDF, cards laid out on the paper profile's grid
  word    a DOCX with one table of cards per page
  images  one image file per card, named after the student code
  print   a standalone HTML sheet ready for the browser's print dialog

Examples:
  cardpress export pdf --records students.json
  cardpress export word --records students.json --batch B12 --paper letter
  cardpress export images --records students.json --image-format jpeg
  cardpress export print --records students.json --select S01,S02 --open`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"pdf", "word", "images", "print"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(args[0])
		if err != nil {
			return err
		}

		cfg, cfgPath, err := loadConfig()
		if err != nil {
			return err
		}

		recordsPath, _ := cmd.Flags().GetString("records")
		paperKey, _ := cmd.Flags().GetString("paper")
		batch, _ := cmd.Flags().GetString("batch")
		department, _ := cmd.Flags().GetString("department")
		codes, _ := cmd.Flags().GetStringSlice("select")
		outDir, _ := cmd.Flags().GetString("out")
		imageFormat, _ := cmd.Flags().GetString("image-format")
		open, _ := cmd.Flags().GetBool("open")

		records, err := card.LoadRecords(recordsPath)
		if err != nil {
			return err
		}
		selection := card.Selection{Batch: batch, Department: department, Codes: codes}
		records = selection.Apply(records)

		if paperKey == "" {
			paperKey = cfg.DefaultPaper
		}
		if outDir == "" {
			outDir = config.ResolvePath(cfgPath, cfg.OutputDir)
		}
		if imageFormat == "" {
			imageFormat = cfg.Images.Format
		}
		encoding, err := export.ParseImageFormat(imageFormat)
		if err != nil {
			return err
		}

		renderer, err := newRenderer(cfg, cfgPath, recordsPath)
		if err != nil {
			return err
		}

		sink := notify.Multi(notify.NewTerminal(os.Stdout), notify.NewLog(logger.L()))
		orch := job.NewOrchestrator(renderer, sink,
			export.NewPDFExporter(cfg.Institution.Name),
			export.NewWordExporter(cfg.Word.Grid),
			export.NewImageExporter(export.ImageOptions{
				Format:    encoding,
				Quality:   cfg.Images.JPEGQuality,
				QueueSize: cfg.Images.QueueSize,
				PerSecond: cfg.Images.PerSecond,
				Notify:    emitProgress(sink, len(records)),
			}),
			export.NewPrintExporter(cfg.Institution.Name),
		)

		j, err := orch.Run(context.Background(), job.Request{
			Records:  records,
			PaperKey: paperKey,
			Format:   format,
			Names:    export.NameContext{Batch: batch, Department: department},
			Files:    export.DirWriter{Dir: outDir},
		})
		if err != nil {
			return reportedError{err}
		}

		if open && format != export.FormatImages && len(j.Files) > 0 {
			if err := export.OpenFile(j.Files[0]); err != nil {
				return fmt.Errorf("error opening %s: %w", j.Files[0], err)
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("records", "r", "", "JSON file with student records")
	exportCmd.Flags().StringP("paper", "p", "", "paper profile: a4, letter or a3 (default from config)")
	exportCmd.Flags().StringP("batch", "b", "", "only export records of this batch")
	exportCmd.Flags().StringP("department", "d", "", "only export records of this department")
	exportCmd.Flags().StringSlice("select", nil, "only export these student codes (comma separated)")
	exportCmd.Flags().StringP("out", "o", "", "output directory (default from config)")
	exportCmd.Flags().String("image-format", "", "image export format: png, jpeg, bmp or tiff")
	exportCmd.Flags().Bool("open", false, "open the exported file when done")
	_ = exportCmd.MarkFlagRequired("records")
}

// newRenderer builds the card renderer from config. Relative photo paths in
// the records file are resolved against the records file's directory.
func newRenderer(cfg *config.Config, cfgPath, recordsPath string) (*render.Raster, error) {
	tmpl, err := render.TemplateFromConfig(cfg, cfgPath)
	if err != nil {
		return nil, err
	}
	return render.NewRaster(tmpl, render.Options{
		Fonts: render.FontFilesFromConfig(cfg, cfgPath),
		Photos: render.PhotoLoader{
			BaseDir: filepath.Dir(recordsPath),
			Client:  &http.Client{Timeout: 30 * time.Second},
		},
		Logger: logger.L(),
	})
}

// emitProgress reports image file emission on the sink.
func emitProgress(sink notify.Sink, total int) func(emit.Notification) {
	var done int
	return func(n emit.Notification) {
		done++
		stage := "write"
		if n.Status != emit.StatusDone {
			stage = "write (" + string(n.Status) + ")"
		}
		sink.Progress(stage, done, total)
	}
}
