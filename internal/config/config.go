// Package config holds run configuration: YAML file values overridden by
// CLI flags.
package config

import (
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// DefaultVendorString is the encoder vendor tag that --vendor compares
// against when no --vendor-string is given.
const DefaultVendorString = "reference libFLAC 1.3.1 20141125"

type Config struct {
	// Folder is the root directory for the recursive file search
	Folder string `yaml:"folder"`

	// Mask is the glob pattern matched against file names (e.g. "*.flac")
	Mask string `yaml:"mask"`

	// Parallel is the number of concurrent encode jobs
	Parallel int `yaml:"parallel"`

	// CheckVendor enables skipping files whose vendor tag matches VendorString
	CheckVendor bool `yaml:"check_vendor"`

	// VendorString is the vendor tag that marks a file as already re-encoded
	VendorString string `yaml:"vendor_string"`

	// Verify enables the encoder's own verification pass (-V) before the
	// original is overwritten. Slower, but catches encoder errors.
	Verify bool `yaml:"verify"`

	// FlacPath is the path to the flac binary (default: "flac")
	FlacPath string `yaml:"flac_path"`

	// MetaflacPath is the path to the metaflac binary (default: "metaflac")
	MetaflacPath string `yaml:"metaflac_path"`

	// CachePath is the SQLite vendor-probe cache location.
	// Empty disables caching; runs are fully functional without it.
	CachePath string `yaml:"cache_path"`

	// LogLevel is the slog level: debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// DryRun lists what would be re-encoded without spawning the encoder.
	// CLI-only, never read from the config file.
	DryRun bool `yaml:"-"`
}

// DefaultParallel leaves one logical CPU free for the rest of the system.
func DefaultParallel() int {
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Folder:       ".",
		Mask:         "*.flac",
		Parallel:     DefaultParallel(),
		VendorString: DefaultVendorString,
		Verify:       true,
		FlacPath:     "flac",
		MetaflacPath: "metaflac",
		LogLevel:     "info",
	}
}

// Load reads config from a YAML file, applying defaults for missing values.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Apply defaults for empty values
	if cfg.Folder == "" {
		cfg.Folder = "."
	}
	if cfg.Mask == "" {
		cfg.Mask = "*.flac"
	}
	if cfg.Parallel < 1 {
		cfg.Parallel = DefaultParallel()
	}
	if cfg.VendorString == "" {
		cfg.VendorString = DefaultVendorString
	}
	if cfg.FlacPath == "" {
		cfg.FlacPath = "flac"
	}
	if cfg.MetaflacPath == "" {
		cfg.MetaflacPath = "metaflac"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}
