package simulator

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jasonKoogler/cpu-sim/internal/config"
)

func testLogger() *log.Logger {
	return log.New(&bytes.Buffer{}, "", 0)
}

func writeTestProgram(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "prog.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write test program: %v", err)
	}
	return path
}

func writeTestData(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write test data: %v", err)
	}
	return path
}

const shortProgram = `LI R1, 5
LI R2, 10
ADD R3, R1, R2
HLT
`

func TestNew(t *testing.T) {
	sim, err := New(config.DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sim == nil {
		t.Fatal("New() returned nil simulator")
	}
	if sim.running.Load() {
		t.Error("New() simulator should not be running initially")
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, testLogger()); err == nil {
		t.Fatal("New() with nil config should return error")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	instrPath := writeTestProgram(t, dir, shortProgram)
	dataPath := writeTestData(t, dir, "")
	outPath := filepath.Join(dir, "out.txt")

	cfg := config.DefaultConfig()
	cfg.EchoReportToStdout = false
	sim, _ := New(cfg, testLogger())

	if err := sim.Run(instrPath, dataPath, outPath); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := sim.GetStatistics()
	if stats.InstructionsCompleted != 4 {
		t.Errorf("InstructionsCompleted = %d, want 4", stats.InstructionsCompleted)
	}
	if stats.TotalCycles == 0 {
		t.Error("TotalCycles = 0, want > 0")
	}
	if stats.HaltCycle == 0 {
		t.Error("HaltCycle = 0, want HLT to have been fetched")
	}

	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file not written: %v", err)
	}
}

func TestRun_AlreadyRunning(t *testing.T) {
	sim, _ := New(config.DefaultConfig(), testLogger())
	sim.running.Store(true)

	if err := sim.Run("x", "y", "z"); err == nil {
		t.Fatal("Run() while already running should return error")
	}

	sim.running.Store(false)
}

func TestShutdown(t *testing.T) {
	dir := t.TempDir()
	instrPath := writeTestProgram(t, dir, "LOOP: J LOOP\n")
	dataPath := writeTestData(t, dir, "")
	outPath := filepath.Join(dir, "out.txt")

	cfg := config.DefaultConfig()
	cfg.UnlimitedCycles = true
	cfg.EchoReportToStdout = false
	sim, _ := New(cfg, testLogger())

	started := make(chan struct{})
	runDone := make(chan error, 1)

	go func() {
		go func() {
			for {
				if sim.running.Load() {
					close(started)
					return
				}
				time.Sleep(time.Millisecond)
			}
		}()
		runDone <- sim.Run(instrPath, dataPath, outPath)
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("simulation failed to start within timeout")
	}

	sim.Shutdown()

	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after Shutdown()")
	}

	if sim.running.Load() {
		t.Error("simulator should be stopped after Shutdown()")
	}
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	instrPath := writeTestProgram(t, dir, shortProgram)
	dataPath := writeTestData(t, dir, "")
	outPath := filepath.Join(dir, "out.txt")

	cfg := config.DefaultConfig()
	cfg.EchoReportToStdout = false
	sim, _ := New(cfg, testLogger())

	if err := sim.Run(instrPath, dataPath, outPath); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sim.GetStatistics().TotalCycles == 0 {
		t.Fatal("expected nonzero statistics before Reset()")
	}

	sim.Reset()

	after := sim.GetStatistics()
	if after.TotalCycles != 0 || after.InstructionsCompleted != 0 || after.IPC != 0 {
		t.Errorf("Reset() left stale statistics: %+v", after)
	}

	if err := sim.Run(instrPath, dataPath, outPath); err != nil {
		t.Fatalf("Run() after Reset() error = %v", err)
	}
	if sim.GetStatistics().InstructionsCompleted != 4 {
		t.Error("Run() after Reset() should still dispatch the full program")
	}
}
