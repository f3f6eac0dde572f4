// Package config loads the simulator's ambient run settings: the cycle
// budget, logging verbosity, and default file paths. These sit alongside
// (and are overridden by) the positional CLI arguments spec.md §6 defines.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the simulator's ambient run settings.
type Config struct {
	// CycleBudget mirrors OPTIONAL_CYCLE_LIMIT: the run terminates once the
	// cycle counter exceeds this, even if no HLT was ever dispatched.
	CycleBudget int `yaml:"cycleBudget"`

	// UnlimitedCycles mirrors ENABLE_UNLIMITED_INPUT: when true, CycleBudget
	// is ignored and the run relies solely on the HLT-drains-the-pipeline
	// termination rule.
	UnlimitedCycles bool `yaml:"unlimitedCycles"`

	// Verbose switches the logger to include microsecond timestamps and
	// source file/line, matching the teacher's -v handling.
	Verbose bool `yaml:"verbose"`

	// EchoReportToStdout additionally prints the stage-completion table to
	// stdout once the output file is written.
	EchoReportToStdout bool `yaml:"echoReportToStdout"`

	// Default file paths, overridden by CLI positional arguments when given.
	InstructionFile string `yaml:"instructionFile"`
	DataFile        string `yaml:"dataFile"`
	OutputFile      string `yaml:"outputFile"`
}

// LoadConfig loads configuration from a YAML file. A missing file is not an
// error — the simulator is expected to run with nothing but default file
// names, and the -config flag is optional (spec.md §6's CLI contract has no
// required config file).
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validateConfig checks if the configuration is structurally sane.
func validateConfig(cfg *Config) error {
	if cfg.CycleBudget <= 0 && !cfg.UnlimitedCycles {
		return fmt.Errorf("cycle budget must be positive unless unlimitedCycles is set")
	}
	if cfg.InstructionFile == "" {
		return fmt.Errorf("instructionFile must not be empty")
	}
	if cfg.DataFile == "" {
		return fmt.Errorf("dataFile must not be empty")
	}
	if cfg.OutputFile == "" {
		return fmt.Errorf("outputFile must not be empty")
	}
	return nil
}

// DefaultConfig returns the simulator's default ambient settings, matching
// the original source's OPTIONAL_CYCLE_LIMIT and default file names
// verbatim (spec.md §6).
func DefaultConfig() *Config {
	return &Config{
		CycleBudget:        100,
		UnlimitedCycles:    false,
		Verbose:            false,
		EchoReportToStdout: true,
		InstructionFile:    "default_inst.txt",
		DataFile:           "default_data_segment.txt",
		OutputFile:         "default_output.txt",
	}
}
