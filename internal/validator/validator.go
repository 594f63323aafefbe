package validator

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/arcanaland/cardpress/internal/card"
	"github.com/arcanaland/cardpress/internal/config"
	"github.com/arcanaland/cardpress/internal/export"
	"github.com/arcanaland/cardpress/internal/paper"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether no errors were found.
func (r ValidationResults) Valid() bool {
	return len(r.Errors) == 0
}

type Validator struct {
	ConfigPath  string
	RecordsPath string // Optional
	Results     ValidationResults
}

func NewValidator(configPath, recordsPath string) *Validator {
	return &Validator{
		ConfigPath:  configPath,
		RecordsPath: recordsPath,
		Results:     ValidationResults{},
	}
}

// Validate checks the config file, the built-in paper profiles and, if set,
// the records file. The error is non-nil only when a file cannot be read at
// all; problems inside the files end up in the results.
func (v *Validator) Validate() (ValidationResults, error) {
	cfg, err := v.validateConfigToml()
	if err != nil {
		return v.Results, err
	}

	v.validatePaper(cfg)
	v.validateInstitution(cfg)
	v.validateFonts(cfg)
	v.validateExport(cfg)
	v.validateProfiles()

	if v.RecordsPath != "" {
		if err := v.validateRecords(); err != nil {
			return v.Results, err
		}
	}

	return v.Results, nil
}

func (v *Validator) errorf(format string, args ...any) {
	v.Results.Errors = append(v.Results.Errors, fmt.Sprintf(format, args...))
}

func (v *Validator) warnf(format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf(format, args...))
}

func (v *Validator) validateConfigToml() (*config.Config, error) {
	if _, err := os.Stat(v.ConfigPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", v.ConfigPath)
	}

	cfg := config.Default()
	meta, err := toml.DecodeFile(v.ConfigPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	for _, key := range meta.Undecoded() {
		v.warnf("unknown config key: %s", key.String())
	}
	return cfg, nil
}

func (v *Validator) validatePaper(cfg *config.Config) {
	if cfg.DefaultPaper == "" {
		return
	}
	if _, err := paper.Lookup(cfg.DefaultPaper); err != nil {
		v.errorf("default_paper: %v (known: %s)", err, strings.Join(profileIDs(), ", "))
	}
}

func (v *Validator) validateInstitution(cfg *config.Config) {
	inst := cfg.Institution
	if strings.TrimSpace(inst.Name) == "" {
		v.warnf("institution.name is empty, card headers will be blank")
	}

	colors := []struct{ key, value string }{
		{"institution.header_color", inst.HeaderColor},
		{"institution.accent_color", inst.AccentColor},
	}
	for _, c := range colors {
		if c.value == "" {
			continue
		}
		if _, err := colorful.Hex(c.value); err != nil {
			v.errorf("%s: invalid colour %q (expected #rrggbb)", c.key, c.value)
		}
	}

	if inst.Logo != "" {
		v.checkFile("institution.logo", inst.Logo)
	}
	if len(cfg.Contact.Lines) == 0 {
		v.warnf("contact.lines is empty, card footers will be blank")
	}
}

func (v *Validator) validateFonts(cfg *config.Config) {
	if cfg.Fonts.Regular != "" {
		v.checkFile("fonts.regular", cfg.Fonts.Regular)
	}
	if cfg.Fonts.Bold != "" {
		v.checkFile("fonts.bold", cfg.Fonts.Bold)
	}
}

func (v *Validator) validateExport(cfg *config.Config) {
	if cfg.Images.Format != "" {
		if _, err := export.ParseImageFormat(cfg.Images.Format); err != nil {
			v.errorf("images.format: %v", err)
		}
	}
	if q := cfg.Images.JPEGQuality; q != 0 && (q < 1 || q > 100) {
		v.warnf("images.jpeg_quality %d is out of range 1-100, the default will be used", q)
	}
	if cfg.Images.QueueSize < 0 {
		v.errorf("images.queue_size must not be negative")
	}
	if cfg.Images.PerSecond < 0 {
		v.errorf("images.per_second must not be negative")
	}

	switch cfg.Word.Grid {
	case "", config.WordGridFixed, config.WordGridProfile:
	default:
		v.errorf("word.grid: unknown mode %q (expected %q or %q)",
			cfg.Word.Grid, config.WordGridFixed, config.WordGridProfile)
	}

	if cfg.OutputDir != "" {
		if info, err := os.Stat(config.ResolvePath(v.ConfigPath, cfg.OutputDir)); err == nil && !info.IsDir() {
			v.errorf("output_dir is not a directory: %s", cfg.OutputDir)
		}
	}
}

// validateProfiles checks that every card grid fits its page.
func (v *Validator) validateProfiles() {
	for _, p := range paper.Profiles() {
		if !p.Fits() {
			v.errorf("paper profile %s: %dx%d grid of %gx%g mm cards does not fit %gx%g mm",
				p.ID, p.Cols, p.Rows, p.CardWidth, p.CardHeight, p.PageWidth, p.PageHeight)
		}
	}
}

// validateRecords checks the records file for missing fields and duplicate
// student codes.
func (v *Validator) validateRecords() error {
	records, err := card.LoadRecords(v.RecordsPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		v.errorf("records file contains no records")
		return nil
	}

	seen := make(map[string]int)
	var noPhoto int
	for i, r := range records {
		label := fmt.Sprintf("record %d", i+1)
		if r.ID() == "" {
			v.errorf("%s: id is missing", label)
		}
		if r.Code() == "" {
			v.errorf("%s: student_code is missing", label)
		} else {
			seen[r.Code()]++
		}
		if r.Name() == "" {
			v.warnf("%s (%s): std_eng_name is empty", label, r.Code())
		}
		if !r.HasPhoto() {
			noPhoto++
		}
	}

	var dups []string
	for code, n := range seen {
		if n > 1 {
			dups = append(dups, code)
		}
	}
	sort.Strings(dups)
	if len(dups) > 0 {
		v.warnf("duplicate student codes, image exports will add suffixes: %s", strings.Join(dups, ", "))
	}
	if noPhoto > 0 {
		v.warnf("%d record(s) have no profile_image and will use the placeholder", noPhoto)
	}
	return nil
}

func (v *Validator) checkFile(key, p string) {
	path := config.ResolvePath(v.ConfigPath, p)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		v.errorf("%s: file not found: %s", key, p)
	}
}

func profileIDs() []string {
	var ids []string
	for _, p := range paper.Profiles() {
		ids = append(ids, p.ID)
	}
	return ids
}
