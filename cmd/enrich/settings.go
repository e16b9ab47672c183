package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the optional YAML file for CLI runs. Flags override it.
type Settings struct {
	Keywords   []string `yaml:"keywords"`
	Catalog    string   `yaml:"catalog"`
	BrandRules string   `yaml:"brand_rules"`

	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`

	MaxAttempts            int  `yaml:"max_attempts"`
	VerdictThreshold       int  `yaml:"verdict_threshold"`
	PreValidationThreshold int  `yaml:"prevalidation_threshold"`
	SanitizeAnchors        bool `yaml:"sanitize_anchors"`
	Probe                  bool `yaml:"probe"`
}

func defaultSettings() Settings {
	return Settings{
		Catalog:                "catalog.db",
		Model:                  "anthropic/claude-sonnet-4",
		Temperature:            0.3,
		MaxAttempts:            3,
		VerdictThreshold:       7,
		PreValidationThreshold: 6,
		SanitizeAnchors:        true,
		Probe:                  true,
	}
}

func loadSettings(path string) (Settings, error) {
	s := defaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}
