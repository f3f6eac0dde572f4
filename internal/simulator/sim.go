// Package simulator wires the assembly parser, the pipeline engine, and
// the report formatter into the single entry point the CLI calls: load a
// program and data image, run it to completion, write the stage-completion
// table.
package simulator

import (
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/jasonKoogler/cpu-sim/internal/asm"
	"github.com/jasonKoogler/cpu-sim/internal/config"
	"github.com/jasonKoogler/cpu-sim/internal/core"
	"github.com/jasonKoogler/cpu-sim/internal/pipeline"
	"github.com/jasonKoogler/cpu-sim/internal/report"
)

// Statistics summarizes one completed run.
type Statistics struct {
	TotalCycles            int
	InstructionsDispatched int
	InstructionsCompleted  int
	IPC                    float64 // InstructionsCompleted / TotalCycles
	HaltCycle              int     // cycle HLT was fetched into IF, 0 if none was
}

// Simulator is the top-level orchestrator. One Simulator runs one program
// at a time; Run is not reentrant while a run is in flight.
type Simulator struct {
	cfg    *config.Config
	logger *log.Logger

	running  atomic.Bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	statsMutex sync.RWMutex
	stats      Statistics
}

// New builds a Simulator from the given ambient configuration.
func New(cfg *config.Config, logger *log.Logger) (*Simulator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil configuration provided")
	}
	if logger == nil {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}

	return &Simulator{
		cfg:      cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Run loads the instruction and data files, simulates the program to
// completion (or until the cycle budget or an external Shutdown cuts it
// short), and writes the stage-completion report to outputFile.
func (s *Simulator) Run(instructionFile, dataFile, outputFile string) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("simulation is already running")
	}
	defer s.running.Store(false)

	program, err := asm.LoadProgram(s.logger, instructionFile)
	if err != nil {
		return fmt.Errorf("loading instructions: %w", err)
	}

	data, err := asm.LoadData(s.logger, dataFile)
	if err != nil {
		return fmt.Errorf("loading data segment: %w", err)
	}

	proc := core.NewProcessor(data, program.Labels, s.logger)
	engine := pipeline.New(program, proc, s.cfg.CycleBudget, s.cfg.UnlimitedCycles, s.logger)

	s.wg.Add(1)
	defer s.wg.Done()

	done := make(chan struct{})
	go func() {
		engine.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-s.stopChan:
		engine.RequestStop()
		<-done
	}

	s.recordStatistics(engine)

	outFile, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer outFile.Close()

	if err := report.Write(outFile, engine.History); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if s.cfg.EchoReportToStdout {
		if err := report.Write(os.Stdout, engine.History); err != nil {
			return fmt.Errorf("echoing report: %w", err)
		}
	}

	return nil
}

func (s *Simulator) recordStatistics(e *pipeline.Engine) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	completed := 0
	for _, instr := range e.History {
		if instr.HasCompleted {
			completed++
		}
	}

	s.stats = Statistics{
		TotalCycles:            e.TotalCycles,
		InstructionsDispatched: len(e.History),
		InstructionsCompleted:  completed,
		HaltCycle:              e.HaltCycle(),
	}
	if e.TotalCycles > 0 {
		s.stats.IPC = float64(completed) / float64(e.TotalCycles)
	}
}

// GetStatistics returns the statistics from the most recently completed run.
func (s *Simulator) GetStatistics() Statistics {
	s.statsMutex.RLock()
	defer s.statsMutex.RUnlock()
	return s.stats
}

// Shutdown requests that an in-flight Run stop at the next cycle boundary
// and waits for it to return. Calling Shutdown when nothing is running is a
// no-op.
func (s *Simulator) Shutdown() {
	if !s.running.Load() {
		return
	}
	close(s.stopChan)
	s.wg.Wait()
	s.stopChan = make(chan struct{})
}

// Reset clears accumulated statistics so the Simulator can be reused for a
// fresh run.
func (s *Simulator) Reset() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()
	s.stats = Statistics{}
}
