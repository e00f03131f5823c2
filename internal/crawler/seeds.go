package crawler

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Seed describes one crawl job in a seed file.
type Seed struct {
	StartURL       string   `yaml:"start_url"`
	MaxPages       int      `yaml:"max_pages,omitempty"`
	AllowedDomains []string `yaml:"allowed_domains,omitempty"`
	DelayMS        int      `yaml:"delay_ms,omitempty"`
}

// Config converts a seed into a crawl configuration, falling back to the
// given defaults for unset fields.
func (s Seed) Config(defaults Config) Config {
	cfg := defaults
	if s.MaxPages > 0 {
		cfg.MaxPages = s.MaxPages
	}
	if len(s.AllowedDomains) > 0 {
		cfg.AllowedDomains = s.AllowedDomains
	}
	if s.DelayMS > 0 {
		cfg.Delay = time.Duration(s.DelayMS) * time.Millisecond
	}
	return cfg
}

// LoadSeeds reads a YAML seed file: a list of crawl jobs.
func LoadSeeds(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("crawler: reading seed file: %w", err)
	}

	var seeds []Seed
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("crawler: parsing seed file %s: %w", path, err)
	}

	for i, s := range seeds {
		if s.StartURL == "" {
			return nil, fmt.Errorf("crawler: seed %d has no start_url", i)
		}
	}
	return seeds, nil
}
