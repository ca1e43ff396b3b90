package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Universe defines the tradeable symbol set for a research run.
type Universe struct {
	Symbols   []string `yaml:"symbols"`
	Timeframe string   `yaml:"timeframe"`
	Exchange  string   `yaml:"exchange"`
}

// LoadUniverse reads a universe definition from a YAML file.
func LoadUniverse(path string) (*Universe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file: %w", err)
	}

	var u Universe
	if err := yaml.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe file: %w", err)
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("invalid universe: %w", err)
	}
	return &u, nil
}

// Validate ensures the universe is usable by the scan/backtest pipeline.
func (u *Universe) Validate() error {
	if len(u.Symbols) == 0 {
		return fmt.Errorf("universe must list at least one symbol")
	}
	if u.Timeframe == "" {
		return fmt.Errorf("universe must set a timeframe")
	}
	seen := make(map[string]bool, len(u.Symbols))
	for _, s := range u.Symbols {
		if s == "" {
			return fmt.Errorf("universe contains an empty symbol")
		}
		if seen[s] {
			return fmt.Errorf("duplicate symbol %s in universe", s)
		}
		seen[s] = true
	}
	return nil
}
