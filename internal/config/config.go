// Package config loads the analyzer configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable for an analysis run and the surrounding
// services. Zero values are replaced with defaults on load.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Report   ReportConfig   `yaml:"report"`
	GCS      GCSConfig      `yaml:"gcs"`
	BigQuery BigQueryConfig `yaml:"bigquery"`
	Notion   NotionConfig   `yaml:"notion"`
	API      APIConfig      `yaml:"api"`
}

type AnalysisConfig struct {
	Contamination float64 `yaml:"contamination"`
	Seed          int64   `yaml:"seed"`
	TopTerms      int     `yaml:"top_terms"`
	MinTokenLen   int     `yaml:"min_token_len"`
}

type ReportConfig struct {
	Dir string `yaml:"dir"`
}

type GCSConfig struct {
	Bucket string `yaml:"bucket"`
}

type BigQueryConfig struct {
	Project string `yaml:"project"`
	Dataset string `yaml:"dataset"`
}

type NotionConfig struct {
	DatabaseID string `yaml:"database_id"`
}

type APIConfig struct {
	Port string `yaml:"port"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the YAML file at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Analysis.Contamination == 0 {
		c.Analysis.Contamination = 0.05
	}
	if c.Analysis.Seed == 0 {
		c.Analysis.Seed = 42
	}
	if c.Analysis.TopTerms == 0 {
		c.Analysis.TopTerms = 10
	}
	if c.Analysis.MinTokenLen == 0 {
		c.Analysis.MinTokenLen = 3
	}
	if c.Report.Dir == "" {
		c.Report.Dir = "reports"
	}
	if c.BigQuery.Dataset == "" {
		c.BigQuery.Dataset = "finance_analytics"
	}
	if c.API.Port == "" {
		c.API.Port = "8080"
	}
}
