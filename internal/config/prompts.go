package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// ScopePrompts holds the two grounding-mode prompt templates. City scopes
// the search to a named city; Radius scopes it to a coordinate-centred
// radius when live location is available.
type ScopePrompts struct {
	City   string `yaml:"city"`
	Radius string `yaml:"radius"`
}

// SearchPrompts holds the restaurant-search prompt templates.
type SearchPrompts struct {
	System   string       `yaml:"system"`
	Trending string       `yaml:"trending"`
	Scope    ScopePrompts `yaml:"scope"`
	Contract string       `yaml:"contract"`
}

// Prompts is the top-level prompt configuration loaded from YAML.
type Prompts struct {
	Search SearchPrompts `yaml:"search"`
}

// LoadPrompts reads and parses a YAML prompt configuration file.
func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var prompts Prompts
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompts YAML: %w", err)
	}

	return &prompts, nil
}

// RenderPrompt executes Go template interpolation on a prompt string.
// The data map provides values for template placeholders like {{.Subject}},
// {{.City}}, and {{.RadiusKM}}.
func RenderPrompt(tmpl string, data map[string]interface{}) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}
