package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/linuxmatters/voxrisk/internal/store"
)

// Validate ensures the configuration is usable
func (c *Config) Validate() error {
	if err := c.FeatureConfig().Validate(); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if c.Extract.TargetSampleRate < 0 {
		return fmt.Errorf("extract.target_sample_rate must not be negative, got %d", c.Extract.TargetSampleRate)
	}
	switch c.Extract.MainsHz {
	case 0, 50, 60:
	default:
		return fmt.Errorf("extract.mains_hz must be 0, 50 or 60, got %d", c.Extract.MainsHz)
	}

	if err := c.TrainingConfig().Validate(); err != nil {
		return fmt.Errorf("forest: %w", err)
	}
	if c.Synthetic.Samples <= 0 {
		return fmt.Errorf("synthetic.samples must be positive, got %d", c.Synthetic.Samples)
	}

	switch c.Store.Backend {
	case store.BackendFile, store.BackendSQLite:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", store.BackendFile, store.BackendSQLite, c.Store.Backend)
	}
	if c.Store.Keep < 1 {
		return fmt.Errorf("store.keep must be at least 1, got %d", c.Store.Keep)
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
