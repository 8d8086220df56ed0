package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the canonical config file name inside a ledger directory.
const FileName = "equityflow.yaml"

// Config represents the top-level equityflow.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Store    StoreConfig    `yaml:"store"`
	Equity   EquityConfig   `yaml:"equity"`
	Service  ServiceConfig  `yaml:"service"`
	Git      GitConfig      `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

// StoreConfig selects the ledger backend. Ref is a scheme-prefixed
// reference such as "file:books", "memory:", "postgres://..." or
// "https://ledger.example.com".
type StoreConfig struct {
	Ref string `yaml:"ref"`
}

// EquityConfig drives capital classification for rows recorded before
// intents existed. Clearing names the internal routing account.
// Categories lists the category names whose expense transactions count
// as capital movements; the first name backed by an expense category
// also tags distribution legs. DivestmentMarkers lists description
// markers that flag a clearing transfer as money leaving a project
// rather than entering it.
type EquityConfig struct {
	Clearing          string   `yaml:"clearing"`
	Categories        []string `yaml:"categories"`
	DivestmentMarkers []string `yaml:"divestment_markers"`
}

// ServiceConfig controls the HTTP ledger service.
type ServiceConfig struct {
	Listen string `yaml:"listen"`
}

// GitConfig controls git integration for file-backed ledgers.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads an equityflow.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:     businessName,
			Currency: "USD",
		},
		Store: StoreConfig{
			Ref: "file:books",
		},
		Equity: EquityConfig{
			Clearing: "Internal Clearing",
			Categories: []string{
				"Profit Share",
				"Owner Equity",
				"Owner Withdrawn",
				"Dividend",
			},
			DivestmentMarkers: []string{
				"Equity Move out",
				"Buyout",
				"Investment Return",
			},
		},
		Service: ServiceConfig{
			Listen: ":8373",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "EquityFlow",
			AuthorEmail: "ledger@equityflow.dev",
		},
	}
}
