// Package config loads and validates the YAML pipeline configuration.
// Validation is strict and happens before any dictionary is built: a
// configuration that would let the dictionary and the matcher disagree
// is rejected here, not discovered as silent false negatives later.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ontotag/ontotag/pkg/match"
	"github.com/ontotag/ontotag/pkg/normalize"
	"github.com/ontotag/ontotag/pkg/termsource"
)

// Config is the full pipeline configuration.
type Config struct {
	// Normalization names the normalizer cascade, e.g. [lowercase, greek].
	Normalization []string `yaml:"normalization"`
	// CaseSensitive disables the implicit lowercase step. When false
	// (the default), "lowercase" is prepended to the cascade if absent.
	CaseSensitive bool `yaml:"case_sensitive"`
	// OverlapPolicy is "longest-wins" (default) or "keep-all".
	OverlapPolicy string `yaml:"overlap_policy"`
	// Offsets is "bytes" (default) or "codepoints".
	Offsets string `yaml:"offsets"`

	Tokenizer    TokenizerConfig    `yaml:"tokenizer"`
	Dictionaries []DictionaryConfig `yaml:"dictionaries"`

	// AbbrevDetection enables document-local abbreviation learning.
	AbbrevDetection bool `yaml:"abbrev_detection"`
	// SentenceBoundaries forbids entity spans from crossing sentence ends.
	SentenceBoundaries bool `yaml:"sentence_boundaries"`
	// StepBudget caps match candidates generated per section (0 = off).
	StepBudget int `yaml:"step_budget"`
	// Workers sizes the collection worker pool (0 = NumCPU).
	Workers int `yaml:"workers"`
	// IgnoreDocErrors keeps a collection run going past failed documents.
	IgnoreDocErrors bool `yaml:"ignore_doc_errors"`
	// CachePath points at the compiled-dictionary cache database.
	CachePath string `yaml:"cache_path"`

	Server ServerConfig `yaml:"server"`
}

// TokenizerConfig mirrors tokenize.Options.
type TokenizerConfig struct {
	SplitHyphen bool `yaml:"split_hyphen"`
	SplitSlash  bool `yaml:"split_slash"`
}

// DictionaryConfig describes one termlist to load.
type DictionaryConfig struct {
	Name       string `yaml:"name"`
	Path       string `yaml:"path"`
	Format     string `yaml:"format"`
	SkipHeader bool   `yaml:"skip_header"`
	// Priority breaks ties when dictionaries disagree on a span;
	// higher wins.
	Priority int `yaml:"priority"`
}

// ServerConfig configures the REST front end.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a minimal valid configuration.
func Default() *Config {
	return &Config{
		Normalization: []string{"lowercase"},
		OverlapPolicy: "longest-wins",
		Offsets:       "bytes",
		Server:        ServerConfig{Addr: ":8080"},
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline would choke
// on. It normalizes the cascade for the case-sensitivity setting.
func (c *Config) Validate() error {
	if len(c.Normalization) == 0 {
		c.Normalization = []string{"identity"}
	}
	hasLower := false
	for _, name := range c.Normalization {
		if name == "lowercase" {
			hasLower = true
		}
	}
	if c.CaseSensitive && hasLower {
		return fmt.Errorf("config: case_sensitive conflicts with the lowercase normalizer")
	}
	if !c.CaseSensitive && !hasLower {
		c.Normalization = append([]string{"lowercase"}, c.Normalization...)
	}
	if _, err := normalize.New(c.Normalization...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := match.ParsePolicy(c.OverlapPolicy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Offsets {
	case "", "bytes", "codepoints":
	default:
		return fmt.Errorf("config: unknown offsets mode %q", c.Offsets)
	}
	for i, d := range c.Dictionaries {
		if d.Path == "" {
			return fmt.Errorf("config: dictionary %d: path is required", i)
		}
		if d.Name == "" {
			return fmt.Errorf("config: dictionary %d: name is required", i)
		}
		switch termsource.Format(d.Format) {
		case "", termsource.Format4, termsource.Format6, termsource.FormatHub:
		default:
			return fmt.Errorf("config: dictionary %q: unknown format %q", d.Name, d.Format)
		}
	}
	if c.StepBudget < 0 {
		return fmt.Errorf("config: step_budget must not be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative")
	}
	return nil
}
