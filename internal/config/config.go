package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	DefaultPaper string      `toml:"default_paper"`
	OutputDir    string      `toml:"output_dir"`
	Institution  Institution `toml:"institution"`
	Contact      Contact     `toml:"contact"`
	Fonts        Fonts       `toml:"fonts"`
	Images       Images      `toml:"images"`
	Word         Word        `toml:"word"`
}

// Institution is the header block printed on every card
type Institution struct {
	Name        string `toml:"name"`
	Subtitle    string `toml:"subtitle"`
	Logo        string `toml:"logo"`
	HeaderColor string `toml:"header_color"`
	AccentColor string `toml:"accent_color"`
}

// Contact is the footer block printed on every card
type Contact struct {
	Lines []string `toml:"lines"`
}

// Fonts points at TrueType/OpenType files; empty means the built-in Go fonts
type Fonts struct {
	Regular string `toml:"regular"`
	Bold    string `toml:"bold"`
}

// Images configures per-card image export
type Images struct {
	Format      string  `toml:"format"`
	JPEGQuality int     `toml:"jpeg_quality"`
	QueueSize   int     `toml:"queue_size"`
	PerSecond   float64 `toml:"per_second"` // 0 disables pacing
}

// Word configures DOCX export
type Word struct {
	Grid string `toml:"grid"` // "fixed" (3x2) or "profile"
}

// Word grid modes.
const (
	// WordGridFixed always lays cards out 3 across and 2 down per page.
	WordGridFixed = "fixed"

	// WordGridProfile uses the paper profile's own grid, matching PDF output.
	WordGridProfile = "profile"
)

// Default returns the configuration written on first use
func Default() *Config {
	return &Config{
		DefaultPaper: "a4",
		OutputDir:    ".",
		Institution: Institution{
			Name:        "Institute of Technology",
			Subtitle:    "Student Identification Card",
			HeaderColor: "#1e3a8a",
			AccentColor: "#3b82f6",
		},
		Contact: Contact{
			Lines: []string{"If found, please return to the registrar's office."},
		},
		Images: Images{
			Format:      "png",
			JPEGQuality: 92,
			QueueSize:   4,
			PerSecond:   0,
		},
		Word: Word{Grid: WordGridFixed},
	}
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetCacheDir returns XDG_CACHE_HOME/cardpress or default path
func GetCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "cardpress")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cardpress")
	}
	return filepath.Join(homeDir, ".cache", "cardpress")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "cardpress", "config.toml")
}

// LoadConfig loads the config file from its default location
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(GetConfigFilePath())
}

// LoadConfigFrom loads the config file at configPath, creating it with
// defaults if it does not exist
func LoadConfigFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	config := Default()
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	config.applyDefaults()

	return config, nil
}

// applyDefaults fills zero values left by a partial config file
func (c *Config) applyDefaults() {
	d := Default()
	if c.DefaultPaper == "" {
		c.DefaultPaper = d.DefaultPaper
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.Institution.HeaderColor == "" {
		c.Institution.HeaderColor = d.Institution.HeaderColor
	}
	if c.Institution.AccentColor == "" {
		c.Institution.AccentColor = d.Institution.AccentColor
	}
	if c.Images.Format == "" {
		c.Images.Format = d.Images.Format
	}
	if c.Images.JPEGQuality <= 0 || c.Images.JPEGQuality > 100 {
		c.Images.JPEGQuality = d.Images.JPEGQuality
	}
	if c.Images.QueueSize <= 0 {
		c.Images.QueueSize = d.Images.QueueSize
	}
	if c.Word.Grid == "" {
		c.Word.Grid = d.Word.Grid
	}
}

// createDefaultConfig creates a default config file
func createDefaultConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	// Ensure the config directory exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	config := Default()
	if err := writeConfig(configPath, config); err != nil {
		return nil, err
	}

	return config, nil
}

func writeConfig(configPath string, config *Config) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	return nil
}

// SetDefaultPaper sets the default paper profile in the config at configPath
func SetDefaultPaper(configPath, key string) error {
	config, err := LoadConfigFrom(configPath)
	if err != nil {
		return err
	}

	config.DefaultPaper = key

	return writeConfig(configPath, config)
}

// ResolvePath resolves p against the directory of the config file, so logo
// and font paths in the config can be relative to it
func ResolvePath(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}
