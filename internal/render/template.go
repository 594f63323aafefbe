package render

import (
	"fmt"
	"image"
	"os"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/arcanaland/cardpress/internal/config"
)

// TemplateFromConfig builds the card template described by cfg. Relative
// logo paths are resolved against the config file's directory.
func TemplateFromConfig(cfg *config.Config, configPath string) (Template, error) {
	header, err := colorful.Hex(cfg.Institution.HeaderColor)
	if err != nil {
		return Template{}, fmt.Errorf("invalid header_color %q: %w", cfg.Institution.HeaderColor, err)
	}
	accent, err := colorful.Hex(cfg.Institution.AccentColor)
	if err != nil {
		return Template{}, fmt.Errorf("invalid accent_color %q: %w", cfg.Institution.AccentColor, err)
	}

	tmpl := Template{
		Institution: cfg.Institution.Name,
		Subtitle:    cfg.Institution.Subtitle,
		HeaderColor: header,
		AccentColor: accent,
		Contact:     cfg.Contact.Lines,
	}

	if cfg.Institution.Logo != "" {
		logo, err := loadImageFile(config.ResolvePath(configPath, cfg.Institution.Logo))
		if err != nil {
			return Template{}, fmt.Errorf("failed to load logo: %w", err)
		}
		tmpl.Logo = logo
	}

	return tmpl, nil
}

// FontFilesFromConfig resolves the configured font paths.
func FontFilesFromConfig(cfg *config.Config, configPath string) FontFiles {
	return FontFiles{
		Regular: config.ResolvePath(configPath, cfg.Fonts.Regular),
		Bold:    config.ResolvePath(configPath, cfg.Fonts.Bold),
	}
}

func loadImageFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
