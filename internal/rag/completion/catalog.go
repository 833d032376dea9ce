package completion

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultCatalog []byte

type Model struct {
	Name         string  `yaml:"name"`
	ContextChars int     `yaml:"context_chars"`
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float32 `yaml:"temperature"`
	TopP         float32 `yaml:"top_p"`
}

type catalogFile struct {
	Models []Model `yaml:"models"`
}

func ParseCatalog(data []byte) ([]Model, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse model catalog: %w", err)
	}
	out := make([]Model, 0, len(f.Models))
	for i, m := range f.Models {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return nil, fmt.Errorf("model catalog entry %d has no name", i)
		}
		if m.ContextChars <= 0 {
			return nil, fmt.Errorf("model %q: context_chars must be positive", m.Name)
		}
		if m.MaxTokens <= 0 {
			m.MaxTokens = 1024
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model catalog is empty")
	}
	return out, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() []Model {
	models, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return models
}

// LoadCatalog reads path, or the embedded catalog when path is empty.
func LoadCatalog(path string) ([]Model, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model catalog: %w", err)
	}
	return ParseCatalog(data)
}
