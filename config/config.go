// Package config loads and saves the interpreter's TOML configuration
// file, grounded directly on the teacher's config.go: the same
// section-per-concern struct shape, the same platform-specific config/log
// directory resolution, and the same tolerant "missing file -> defaults"
// load behaviour, retargeted from emulator run settings to interpreter
// run settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable of a run of the interpreter.
type Config struct {
	// Execution settings.
	Execution struct {
		MaxStatements     uint64 `toml:"max_statements"` // 0 = unbounded
		ControlStackDepth int    `toml:"control_stack_depth"`
		DefaultProgram    string `toml:"default_program"`
		EnableLineTrace   bool   `toml:"enable_line_trace"`
		EnableVarTrace    bool   `toml:"enable_var_trace"`
		EnableStats       bool   `toml:"enable_stats"`
	} `toml:"execution"`

	// Console settings.
	Console struct {
		ColumnWidth int  `toml:"column_width"` // not read; PRINT's comma zones are a fixed 10 columns
		ColorOutput bool `toml:"color_output"`
		EchoInput   bool `toml:"echo_input"`
	} `toml:"console"`

	// Trace settings, for the supplemented TRON/TROFF line tracer.
	Trace struct {
		OutputFile string `toml:"output_file"`
		MaxEntries int    `toml:"max_entries"`
	} `toml:"trace"`

	// Statistics settings, for the supplemented vm.Stats run report.
	Statistics struct {
		OutputFile string `toml:"output_file"`
		Format     string `toml:"format"` // json, csv, html
	} `toml:"statistics"`
}

// DefaultConfig returns a configuration with the interpreter's built-in
// defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxStatements = 0
	cfg.Execution.ControlStackDepth = 4096
	cfg.Execution.DefaultProgram = ""
	cfg.Execution.EnableLineTrace = false
	cfg.Execution.EnableVarTrace = false
	cfg.Execution.EnableStats = false

	cfg.Console.ColumnWidth = 14
	cfg.Console.ColorOutput = true
	cfg.Console.EchoInput = false

	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.MaxEntries = 100000

	cfg.Statistics.OutputFile = "stats.json"
	cfg.Statistics.Format = "json"

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "basic6502")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "basic6502")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "basic6502", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "basic6502", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, returning defaults unchanged if
// the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to path, creating parent directories as
// needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
