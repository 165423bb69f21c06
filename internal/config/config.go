package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

const (
	defaultConfigPath = "~/.config/astro-tools/config.json"
	defaultScaleLow   = 1
	defaultScaleHigh  = 2
)

// Config holds user-editable settings for the tools.
type Config struct {
	Solver  Solver  `json:"solver"`
	Logging Logging `json:"logging"`
	Paths   Paths   `json:"paths"`
	Watch   Watch   `json:"watch"`
	Server  Server  `json:"server"`
}

// Solver configures how solve-field is invoked.
type Solver struct {
	Binary     string  `json:"binary"`      // solver executable name or path
	ScaleLow   float64 `json:"scale_low"`   // --scale-low, arcsec/pix
	ScaleHigh  float64 `json:"scale_high"`  // --scale-high, arcsec/pix
	GuessScale bool    `json:"guess_scale"` // let the solver guess scale from the header
	CPULimit   int     `json:"cpulimit"`    // per-image CPU seconds, 0 = solver default
	TempRoot   string  `json:"temp_root"`   // parent for per-run working directories
	SaveTemps  bool    `json:"save_temps"`  // retain working directories after each run
}

// Logging controls logging verbosity and destinations.
type Logging struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // text, json
	FileOutput bool   `json:"file_output"` // Enable file logging
	LogDir     string `json:"log_dir"`     // Directory for log files
}

// Paths configures default input/output locations.
type Paths struct {
	DefaultOutput string `json:"default_output"` // result artifact destination, "" = stdout
	DatabasePath  string `json:"database_path"`  // solve result catalog
}

// Watch configures directory monitoring.
type Watch struct {
	Extensions []string `json:"extensions"`  // file extensions considered images
	DebounceMS int      `json:"debounce_ms"` // settle time before a new file is solved
}

// Server configures the results API.
type Server struct {
	Addr string `json:"addr"`
}

// Load reads configuration from disk, falling back to sensible defaults.
func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("ASTRO_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	expanded, err := expandUser(configPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Solver: Solver{
			Binary:     "solve-field",
			ScaleLow:   defaultScaleLow,
			ScaleHigh:  defaultScaleHigh,
			GuessScale: true,
			TempRoot:   os.TempDir(),
		},
		Logging: Logging{
			Level:  "warn",
			Format: "text",
			LogDir: "./logs",
		},
		Paths: Paths{
			DefaultOutput: "",
			DatabasePath:  filepath.Join(os.TempDir(), "astro-tools.db"),
		},
		Watch: Watch{
			Extensions: []string{".fits", ".fit", ".fts"},
			DebounceMS: 500,
		},
		Server: Server{
			Addr: ":8089",
		},
	}
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
