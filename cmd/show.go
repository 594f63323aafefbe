package cmd

import (
	"context"
	"fmt"
	"os"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/cardpress/internal/card"
	"github.com/arcanaland/cardpress/internal/preview"
)

var showCmd = &cobra.Command{
	Use:   "show [student_code]",
	Short: "Preview a student's card in the terminal",
	Long: `Show renders the card for one student and prints it as ANSI art next to
the record's details. The card is rendered exactly as it would be exported.

Examples:
  cardpress show S01 --records students.json
  cardpress show S01 --records students.json --width 40`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recordsPath, _ := cmd.Flags().GetString("records")
		width, _ := cmd.Flags().GetInt("width")

		records, err := card.LoadRecords(recordsPath)
		if err != nil {
			return err
		}
		rec, err := card.Find(records, args[0])
		if err != nil {
			return err
		}

		cfg, cfgPath, err := loadConfig()
		if err != nil {
			return err
		}
		renderer, err := newRenderer(cfg, cfgPath, recordsPath)
		if err != nil {
			return err
		}

		rendered, err := renderer.Render(context.Background(), rec)
		if err != nil {
			return err
		}

		termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || termWidth <= 0 {
			termWidth = 80
		}
		if width <= 0 {
			width = termWidth / 3
		}
		if width > 60 {
			width = 60
		}

		w, h := preview.Size(rendered.Image, width)
		art := preview.ANSI(rendered.Image, w, h, !colorize.NoColor)

		fmt.Println()
		fmt.Print(preview.SideBySide(art, infoLines(rendered), 4))
		fmt.Println()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)

	showCmd.Flags().StringP("records", "r", "", "JSON file with student records")
	showCmd.Flags().IntP("width", "w", 0, "preview width in columns (default a third of the terminal)")
	_ = showCmd.MarkFlagRequired("records")
}

func infoLines(c *card.Rendered) []string {
	rec := c.Record
	field := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return colorize.CyanString("%-12s", label) + colorize.HiWhiteString("%s", value)
	}

	w, h := c.Size()
	lines := []string{
		field("Code:", rec.Code()),
		field("Name:", rec.Name()),
		field("Local name:", rec.LocalName()),
		field("Department:", rec.Department()),
		field("Batch:", rec.Batch()),
		field("Record ID:", rec.ID()),
		"",
		field("Bitmap:", fmt.Sprintf("%dx%d px (x%d)", w, h, c.Scale)),
	}
	if !rec.HasPhoto() {
		lines = append(lines, colorize.YellowString("No photo on record, placeholder used"))
	}
	return lines
}
