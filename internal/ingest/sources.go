package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is one syndication feed to poll.
type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

type sourceFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the YAML source list and returns the enabled
// entries.
func LoadSources(path string) ([]Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source list: %w", err)
	}

	var file sourceFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse source list: %w", err)
	}

	sources := make([]Source, 0, len(file.Sources))
	for i, s := range file.Sources {
		if s.URL == "" {
			return nil, fmt.Errorf("source %d is missing a url", i)
		}
		if s.Disabled {
			continue
		}
		sources = append(sources, s)
	}
	return sources, nil
}
