// Package config loads voxrisk settings from TOML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/linuxmatters/voxrisk/internal/features"
	"github.com/linuxmatters/voxrisk/internal/model"
	"github.com/linuxmatters/voxrisk/internal/store"
	"github.com/linuxmatters/voxrisk/internal/training"
)

const (
	defaultConfigPath = "~/.config/voxrisk/config.toml"
	projectConfigName = "voxrisk.toml"
	defaultStoreDir   = "~/.local/share/voxrisk/models"
	defaultSampleRate = 22050
	defaultKeep       = 3
	defaultLogLevel   = "info"
)

// Extract configures audio preparation and feature extraction
type Extract struct {
	FrameLength      int     `toml:"frame_length"`
	HopLength        int     `toml:"hop_length"`
	MFCC             int     `toml:"mfcc"`
	Mels             int     `toml:"mels"`
	TopDB            float64 `toml:"top_db"`
	RolloffPercent   float64 `toml:"rolloff_percent"`
	TargetSampleRate int     `toml:"target_sample_rate"` // 0 keeps the recording's rate
	RemoveHum        bool    `toml:"remove_hum"`
	MainsHz          int     `toml:"mains_hz"` // 0 detects from the timezone
}

// Forest configures classifier training
type Forest struct {
	Trees           int     `toml:"trees"`
	MaxDepth        int     `toml:"max_depth"`
	MinSamplesSplit int     `toml:"min_samples_split"`
	MinSamplesLeaf  int     `toml:"min_samples_leaf"`
	MaxFeatures     int     `toml:"max_features"`
	Seed            uint64  `toml:"seed"`
	Jobs            int     `toml:"jobs"`
	TestFraction    float64 `toml:"test_fraction"`
	SplitSeed       uint64  `toml:"split_seed"`
}

// Synthetic configures the bootstrap corpus used when no model is stored
type Synthetic struct {
	Samples   int     `toml:"samples"`
	Seed      uint64  `toml:"seed"`
	Threshold float64 `toml:"threshold"`
}

// Store configures model persistence
type Store struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	Keep    int    `toml:"keep"`
}

// Logging configures the structured debug log
type Logging struct {
	DebugLog string `toml:"debug_log"` // empty disables
	Level    string `toml:"level"`
}

// Config is the complete voxrisk configuration
type Config struct {
	Extract   Extract   `toml:"extract"`
	Forest    Forest    `toml:"forest"`
	Synthetic Synthetic `toml:"synthetic"`
	Store     Store     `toml:"store"`
	Logging   Logging   `toml:"logging"`
}

// Default returns the built-in configuration
func Default() Config {
	fc := features.DefaultConfig()
	fp := model.DefaultForestParams()
	tc := training.DefaultConfig()
	syn := training.DefaultSyntheticSource()

	return Config{
		Extract: Extract{
			FrameLength:      fc.FrameLength,
			HopLength:        fc.HopLength,
			MFCC:             fc.NumMFCC,
			Mels:             fc.NumMels,
			TopDB:            fc.TopDB,
			RolloffPercent:   fc.RolloffPercent,
			TargetSampleRate: defaultSampleRate,
		},
		Forest: Forest{
			Trees:           fp.Trees,
			MaxDepth:        fp.MaxDepth,
			MinSamplesSplit: fp.MinSamplesSplit,
			MinSamplesLeaf:  fp.MinSamplesLeaf,
			Seed:            fp.Seed,
			TestFraction:    tc.TestFraction,
			SplitSeed:       tc.SplitSeed,
		},
		Synthetic: Synthetic{
			Samples:   syn.Samples,
			Seed:      syn.Seed,
			Threshold: syn.Threshold,
		},
		Store: Store{
			Backend: store.BackendFile,
			Dir:     defaultStoreDir,
			Keep:    defaultKeep,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}

// Load reads the configuration at path, or the first of
// ~/.config/voxrisk/config.toml and ./voxrisk.toml when path is empty.
// It returns the resolved path and whether a file was found; without a
// file the defaults apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config %s: unknown keys\n%s", resolvedPath, strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := ExpandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Store.Dir) == "" {
		c.Store.Dir = defaultStoreDir
	}
	if c.Store.Dir, err = ExpandPath(c.Store.Dir); err != nil {
		return fmt.Errorf("store.dir: %w", err)
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = store.BackendFile
	}

	if c.Logging.DebugLog, err = ExpandPath(c.Logging.DebugLog); err != nil {
		return fmt.Errorf("logging.debug_log: %w", err)
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
// An empty path stays empty.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// FeatureConfig converts the extract section for the feature extractor
func (c *Config) FeatureConfig() features.Config {
	fc := features.DefaultConfig()
	fc.FrameLength = c.Extract.FrameLength
	fc.HopLength = c.Extract.HopLength
	fc.NumMFCC = c.Extract.MFCC
	fc.NumMels = c.Extract.Mels
	fc.TopDB = c.Extract.TopDB
	fc.RolloffPercent = c.Extract.RolloffPercent
	return fc
}

// TrainingConfig converts the forest section for the trainer
func (c *Config) TrainingConfig() training.Config {
	return training.Config{
		Forest: model.ForestParams{
			Trees:           c.Forest.Trees,
			MaxDepth:        c.Forest.MaxDepth,
			MinSamplesSplit: c.Forest.MinSamplesSplit,
			MinSamplesLeaf:  c.Forest.MinSamplesLeaf,
			MaxFeatures:     c.Forest.MaxFeatures,
			Seed:            c.Forest.Seed,
			Jobs:            c.Forest.Jobs,
		},
		TestFraction: c.Forest.TestFraction,
		SplitSeed:    c.Forest.SplitSeed,
	}
}

// SyntheticSource converts the synthetic section into a bootstrap source
func (c *Config) SyntheticSource() training.SyntheticSource {
	return training.SyntheticSource{
		Samples:   c.Synthetic.Samples,
		Seed:      c.Synthetic.Seed,
		Threshold: c.Synthetic.Threshold,
	}
}

// StoreOptions converts the store section
func (c *Config) StoreOptions() store.Options {
	return store.Options{Backend: c.Store.Backend, Dir: c.Store.Dir, Keep: c.Store.Keep}
}
