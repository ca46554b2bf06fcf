package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv overlays MOVIEWEB_* environment variables onto target. Unset
// variables leave the current value in place.
func ParseEnv(target *Config) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
