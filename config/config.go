/*
Package config loads engine policy configuration.

PURPOSE:
  Tunable business constants live here instead of being buried in code:
  discount ceilings, claim auto-validation threshold, forecast
  confidence constants, cache TTL. Configuration is
  a YAML file layered over Default(); a missing file means defaults.

USAGE:
  cfg, err := config.Load("engine.yaml")
  v := engine.NewValidator(detector, cfg.Validation, logger)

SEE ALSO:
  - cmd/engine/main.go: Flag overrides on top of the file
*/
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warp/promo-engine/money"
)

type Config struct {
	Validation Validation `yaml:"validation"`
	Claims     Claims     `yaml:"claims"`
	Forecast   Forecast   `yaml:"forecast"`
	Cache      Cache      `yaml:"cache"`
	Kafka      Kafka      `yaml:"kafka"`
	Database   Database   `yaml:"database"`
}

// Validation bounds promotion definitions.
type Validation struct {
	// MaxDiscountPercent is the ceiling for percentage-style mechanics.
	MaxDiscountPercent money.Money `yaml:"max_discount_percent"`

	MinDurationDays int `yaml:"min_duration_days"`
	MaxDurationDays int `yaml:"max_duration_days"`

	// LeadTimeDays triggers an advisory warning (never an error) when a
	// promotion starts sooner than this many days out.
	LeadTimeDays int `yaml:"lead_time_days"`
}

// Claims controls claim adjudication.
type Claims struct {
	// AutoValidationThreshold: claims priced at or below this amount are
	// validated and approved without manual review. Boundary inclusive.
	AutoValidationThreshold money.Money `yaml:"auto_validation_threshold"`
}

// Forecast holds the confidence policy constants.
//
// DataQuality is a step function of historical sample count:
// DataQualityHigh with at least SufficientSamples snapshots,
// DataQualityLow below that. FactorReliability is the fixed trust level
// in factor sourcing. Confidence = min(0.95, dataQuality * reliability).
type Forecast struct {
	SufficientSamples int     `yaml:"sufficient_samples"`
	DataQualityHigh   float64 `yaml:"data_quality_high"`
	DataQualityLow    float64 `yaml:"data_quality_low"`
	FactorReliability float64 `yaml:"factor_reliability"`

	// BaselinePeriodDays is the period each performance snapshot covers;
	// forecasts scale linearly from it to the requested horizon.
	BaselinePeriodDays int `yaml:"baseline_period_days"`
}

// Cache controls the transient result memo. Entries are never
// invalidated when promotion terms change; pick a TTL short enough for
// the caller's freshness needs.
type Cache struct {
	TTL time.Duration `yaml:"ttl"`
}

type Kafka struct {
	Brokers     []string `yaml:"brokers"`
	ClaimsTopic string   `yaml:"claims_topic"`
}

type Database struct {
	Path string `yaml:"path"`
}

// Default returns the shipped policy constants.
func Default() Config {
	return Config{
		Validation: Validation{
			MaxDiscountPercent: money.MustParse("50"),
			MinDurationDays:    1,
			MaxDurationDays:    90,
			LeadTimeDays:       14,
		},
		Claims: Claims{
			AutoValidationThreshold: money.MustParse("5000"),
		},
		Forecast: Forecast{
			SufficientSamples:  3,
			DataQualityHigh:    0.9,
			DataQualityLow:     0.6,
			FactorReliability:  0.85,
			BaselinePeriodDays: 30,
		},
		Cache: Cache{
			TTL: 5 * time.Minute,
		},
		Kafka: Kafka{
			ClaimsTopic: "promo.claims",
		},
		Database: Database{
			Path: "promo.db",
		},
	}
}

// Load reads path over Default(). A missing file is not an error: the
// defaults apply unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
