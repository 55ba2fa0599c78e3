package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pigmentlabs/pigment/blocks"
)

// Palette is the brand palette file format.
type Palette struct {
	Colors []PaletteColor `yaml:"colors" validate:"dive"`
}

// PaletteColor is one palette entry.
type PaletteColor struct {
	Hex  string `yaml:"hex" validate:"required,hexcolor"`
	Name string `yaml:"name"`
}

// LoadPalette reads a palette YAML file into color wall entries. An
// empty path returns nil entries, which selects the built-in palette.
func LoadPalette(path string) ([]blocks.PaletteEntry, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading palette: %w", err)
	}

	var pal Palette
	if err := yaml.Unmarshal(data, &pal); err != nil {
		return nil, fmt.Errorf("decoding palette %s: %w", path, err)
	}
	if err := validatorInstance().Struct(&pal); err != nil {
		return nil, fmt.Errorf("palette %s: %w", path, convertValidationError(err))
	}

	entries := make([]blocks.PaletteEntry, 0, len(pal.Colors))
	for _, c := range pal.Colors {
		entries = append(entries, blocks.PaletteEntry{Hex: c.Hex, Name: c.Name})
	}
	return entries, nil
}
