package models

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Theme seeds a scenario: the nutrient the villain is weak to, a villain
// name to riff on and a short hint of what the nutrient does.
type Theme struct {
	Nutrient string `yaml:"nutrient"`
	Villain  string `yaml:"villain"`
	Hint     string `yaml:"hint"`
}

type themeCatalog struct {
	Themes []Theme `yaml:"themes"`
}

var ErrNoThemes = errors.New("theme catalog is empty")

// ParseThemes decodes a YAML theme catalog.
func ParseThemes(data []byte) ([]Theme, error) {
	var catalog themeCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse themes: %w", err)
	}

	var themes []Theme
	for i, t := range catalog.Themes {
		if t.Nutrient == "" || t.Villain == "" {
			return nil, fmt.Errorf("theme %d: nutrient and villain are required", i)
		}
		themes = append(themes, t)
	}
	if len(themes) == 0 {
		return nil, ErrNoThemes
	}
	return themes, nil
}

// LoadThemes reads a theme catalog from disk.
func LoadThemes(path string) ([]Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseThemes(data)
}
