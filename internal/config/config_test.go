package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	content := `
cycleBudget: 500
unlimitedCycles: false
verbose: true
echoReportToStdout: false
instructionFile: "prog.txt"
dataFile: "data.txt"
outputFile: "out.txt"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	cfg, err := LoadConfig(tmpfile.Name())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.CycleBudget != 500 {
		t.Errorf("CycleBudget = %d, want 500", cfg.CycleBudget)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
	if cfg.EchoReportToStdout {
		t.Error("EchoReportToStdout = true, want false")
	}
	if cfg.InstructionFile != "prog.txt" {
		t.Errorf("InstructionFile = %q, want prog.txt", cfg.InstructionFile)
	}
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() on missing file should not error, got %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("LoadConfig() on missing file = %+v, want defaults %+v", cfg, DefaultConfig())
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg: Config{
				CycleBudget:     100,
				InstructionFile: "i.txt",
				DataFile:        "d.txt",
				OutputFile:      "o.txt",
			},
			wantErr: false,
		},
		{
			name: "unlimited cycles allows zero budget",
			cfg: Config{
				UnlimitedCycles: true,
				InstructionFile: "i.txt",
				DataFile:        "d.txt",
				OutputFile:      "o.txt",
			},
			wantErr: false,
		},
		{
			name: "non-positive budget without unlimited",
			cfg: Config{
				CycleBudget:     0,
				InstructionFile: "i.txt",
				DataFile:        "d.txt",
				OutputFile:      "o.txt",
			},
			wantErr: true,
		},
		{
			name: "missing instruction file",
			cfg: Config{
				CycleBudget: 100,
				DataFile:    "d.txt",
				OutputFile:  "o.txt",
			},
			wantErr: true,
		},
		{
			name: "missing data file",
			cfg: Config{
				CycleBudget:     100,
				InstructionFile: "i.txt",
				OutputFile:      "o.txt",
			},
			wantErr: true,
		},
		{
			name: "missing output file",
			cfg: Config{
				CycleBudget:     100,
				InstructionFile: "i.txt",
				DataFile:        "d.txt",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateConfig(&tt.cfg); (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CycleBudget != 100 {
		t.Errorf("default CycleBudget = %d, want 100", cfg.CycleBudget)
	}
	if cfg.UnlimitedCycles {
		t.Error("default UnlimitedCycles = true, want false")
	}
	if !cfg.EchoReportToStdout {
		t.Error("default EchoReportToStdout = false, want true")
	}
}
