// Package config holds the identifier and demographics configuration that
// shapes every fabricated patient and study.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flatmapit/dicomfabricator/internal/identifier"
)

// Config is the full fabrication configuration.
type Config struct {
	IDGeneration   identifier.Pattern   `yaml:"id_generation"`
	NameGeneration NameGenerationConfig `yaml:"name_generation"`
	Demographics   DemographicsConfig   `yaml:"demographics"`
	Accession      AccessionConfig      `yaml:"accession"`
}

// NameGenerationConfig controls how patient names are synthesized.
type NameGenerationConfig struct {
	// UseRealistic switches from the fixed synthetic pool to realistic
	// generated names.
	UseRealistic bool   `yaml:"use_realistic"`
	CustomNames  []Name `yaml:"custom_names"`
}

// Name is one two-part entry of the synthetic name pool.
type Name struct {
	First string `yaml:"first"`
	Last  string `yaml:"last"`
}

// DemographicsConfig holds the pools and distributions for the non-name
// demographic fields.
type DemographicsConfig struct {
	BirthYearRange  [2]int             `yaml:"birth_year_range"`
	SexDistribution map[string]float64 `yaml:"sex_distribution"`
	Addresses       []string           `yaml:"addresses"`
	PhonePattern    string             `yaml:"phone_pattern"`
}

// AccessionConfig controls accession number synthesis.
type AccessionConfig struct {
	// Pattern, when set, is rendered with the current year as prefix,
	// e.g. "{2letters}{7digits}" produces "2026AB0034517".
	Pattern string `yaml:"pattern"`
}

// Default returns the built-in configuration: synthetic pools only, no
// realistic demographics.
func Default() *Config {
	return &Config{
		IDGeneration: identifier.Pattern{
			Template:   "PID{6digits}",
			StartValue: 100000,
			Increment:  1,
		},
		NameGeneration: NameGenerationConfig{
			UseRealistic: false,
			CustomNames: []Name{
				{First: "TEST", Last: "PATIENT"},
				{First: "DEMO", Last: "USER"},
				{First: "SAMPLE", Last: "PERSON"},
				{First: "FAKE", Last: "NAME"},
				{First: "SYNTHETIC", Last: "DATA"},
				{First: "CLINICAL", Last: "TESTCASE"},
				{First: "RADIOLOGY", Last: "PHANTOM"},
			},
		},
		Demographics: DemographicsConfig{
			BirthYearRange: [2]int{1940, 2005},
			SexDistribution: map[string]float64{
				"M": 0.45,
				"F": 0.45,
				"O": 0.10,
			},
			Addresses: []string{
				"123 Test Street, Sydney NSW 2000",
				"456 Sample Road, Melbourne VIC 3000",
				"789 Fake Avenue, Brisbane QLD 4000",
				"321 Mock Boulevard, Perth WA 6000",
				"159 Demo Crescent, Adelaide SA 5000",
				"742 Example Drive, Hobart TAS 7000",
				"88 Synthetic Close, Darwin NT 0800",
				"264 Clinical Way, Canberra ACT 2600",
			},
			PhonePattern: "04{2digits} {3digits} {3digits}",
		},
	}
}

// Load reads a YAML configuration file. Missing sections fall back to the
// defaults so a partial file only overrides what it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.IDGeneration.Template == "" {
		cfg.IDGeneration = Default().IDGeneration
	}
	if len(cfg.NameGeneration.CustomNames) == 0 {
		cfg.NameGeneration.CustomNames = Default().NameGeneration.CustomNames
	}
	if len(cfg.Demographics.Addresses) == 0 {
		cfg.Demographics.Addresses = Default().Demographics.Addresses
	}
	if cfg.Demographics.PhonePattern == "" {
		cfg.Demographics.PhonePattern = Default().Demographics.PhonePattern
	}
	if len(cfg.Demographics.SexDistribution) == 0 {
		cfg.Demographics.SexDistribution = Default().Demographics.SexDistribution
	}
	if cfg.Demographics.BirthYearRange == [2]int{} {
		cfg.Demographics.BirthYearRange = Default().Demographics.BirthYearRange
	}

	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
