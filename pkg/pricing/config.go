package pricing

import (
	"fmt"
	"os"

	"github.com/venslabs/sbomwatch/pkg/meter"
	"go.yaml.in/yaml/v3"
)

const (
	DefaultCurrency   = "EUR"
	DefaultPerRequest = 0.05
)

// Config represents the structure of pricing.yaml provided by users.
//
// Example YAML:
//
//	currency: EUR
//	perRequest: 0.05   # price of one billable unit
//	countWhere: true   # bill every where() hop, not only service round trips
//
// Every field is optional; missing fields take the defaults above.
type Config struct {
	Currency   string   `yaml:"currency,omitempty"`
	PerRequest *float64 `yaml:"perRequest,omitempty"`
	CountWhere *bool    `yaml:"countWhere,omitempty"`
}

// Default returns the pricing used when no file is given.
func Default() *Config {
	per := DefaultPerRequest
	countWhere := true
	return &Config{Currency: DefaultCurrency, PerRequest: &per, CountWhere: &countWhere}
}

// Load parses a pricing.yaml file from the given path and validates it.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Config
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	def := Default()
	if f.Currency == "" {
		f.Currency = def.Currency
	}
	if f.PerRequest == nil {
		f.PerRequest = def.PerRequest
	}
	if f.CountWhere == nil {
		f.CountWhere = def.CountWhere
	}
	if *f.PerRequest < 0 {
		return nil, fmt.Errorf("perRequest must not be negative, got %v", *f.PerRequest)
	}
	return &f, nil
}

// Rate returns the price of one billable unit.
func (f *Config) Rate() float64 {
	if f == nil || f.PerRequest == nil {
		return DefaultPerRequest
	}
	return *f.PerRequest
}

// Policy maps countWhere onto the meter policy.
func (f *Config) Policy() meter.Policy {
	if f == nil || f.CountWhere == nil || *f.CountWhere {
		return meter.PolicyEveryCall
	}
	return meter.PolicyRoundTrips
}

// Estimate prices calls billable units.
func (f *Config) Estimate(calls int64) meter.Cost {
	currency := DefaultCurrency
	if f != nil && f.Currency != "" {
		currency = f.Currency
	}
	return meter.Estimate(calls, f.Rate(), currency)
}
