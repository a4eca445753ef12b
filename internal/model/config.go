package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the process-level configuration (flags, env, config file).
// It controls where data lives and how the process behaves; the per-user sync
// Settings live inside the store instead.
type Config struct {
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Retention RetentionConfig `yaml:"retention" mapstructure:"retention"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// StorageConfig selects and locates the backing store
type StorageConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Layered bool   `yaml:"layered" mapstructure:"layered"` // memory front over the file store
}

// HTTPConfig bounds outbound sync traffic
type HTTPConfig struct {
	SyncTimeout time.Duration `yaml:"sync_timeout" mapstructure:"sync_timeout"`
	TestTimeout time.Duration `yaml:"test_timeout" mapstructure:"test_timeout"`
	UserAgent   string        `yaml:"user_agent" mapstructure:"user_agent"`
	MinGap      time.Duration `yaml:"min_gap" mapstructure:"min_gap"` // floor between sync attempts
}

// RetentionConfig controls the cleanup job
type RetentionConfig struct {
	Window time.Duration `yaml:"window" mapstructure:"window"`
}

// OutputConfig controls CLI chattiness
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults, used when no config file or
// environment overrides are present.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Dir:     defaultDataDir(),
			Layered: true,
		},
		HTTP: HTTPConfig{
			SyncTimeout: 30 * time.Second,
			TestTimeout: 10 * time.Second,
			UserAgent:   "Wortschatz/0.3 (+https://github.com/mfedotov/wortschatz)",
			MinGap:      2 * time.Second,
		},
		Retention: RetentionConfig{
			Window: 30 * 24 * time.Hour,
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wortschatz/data"
	}
	return filepath.Join(home, ".wortschatz", "data")
}
