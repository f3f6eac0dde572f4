package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jasonKoogler/cpu-sim/internal/config"
	"github.com/jasonKoogler/cpu-sim/internal/simulator"
)

func main() {
	configPath := flag.String("config", "configs/default.yaml", "Path to the configuration file")
	verbose := flag.Bool("v", false, "Enable verbose output")
	cycleBudget := flag.Int("cycles", 0, "Cycle budget (0 keeps the configured default)")
	unlimitedCycles := flag.Bool("unlimited-cycles", false, "Ignore the cycle budget; rely on HLT to drain the pipeline")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if *verbose {
		cfg.Verbose = true
	}
	if cfg.Verbose {
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	if *cycleBudget > 0 {
		cfg.CycleBudget = *cycleBudget
	}
	if *unlimitedCycles {
		cfg.UnlimitedCycles = true
	}

	instructionFile := cfg.InstructionFile
	dataFile := cfg.DataFile
	outputFile := cfg.OutputFile

	args := flag.Args()
	switch len(args) {
	case 0:
	case 1:
		instructionFile = args[0]
	case 2:
		instructionFile = args[0]
		dataFile = args[1]
	case 3:
		instructionFile = args[0]
		dataFile = args[1]
		outputFile = args[2]
	default:
		logger.Fatalf("usage: simulator [flags] [instruction-file [data-file [output-file]]]")
	}

	logger.Println("Pipeline Processor Simulator")
	fmt.Println("\nConfiguration Summary:")
	fmt.Printf("	Instructions: %s\n", instructionFile)
	fmt.Printf("	Data Segment: %s\n", dataFile)
	fmt.Printf("	Output: %s\n", outputFile)
	if cfg.UnlimitedCycles {
		fmt.Println("	Cycle Budget: unlimited")
	} else {
		fmt.Printf("	Cycle Budget: %d\n", cfg.CycleBudget)
	}

	sim, err := simulator.New(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize simulator: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)

		logger.Println("Starting simulation...")
		if err := sim.Run(instructionFile, dataFile, outputFile); err != nil {
			logger.Fatalf("Simulation failed: %v", err)
		}

		stats := sim.GetStatistics()
		fmt.Println("\nSimulation Statistics:")
		fmt.Printf("	Total Cycles: %d\n", stats.TotalCycles)
		fmt.Printf("	Instructions Dispatched: %d\n", stats.InstructionsDispatched)
		fmt.Printf("	Instructions Completed: %d\n", stats.InstructionsCompleted)
		fmt.Printf("	IPC: %.2f\n", stats.IPC)
		if stats.HaltCycle > 0 {
			fmt.Printf("	HLT Fetched At Cycle: %d\n", stats.HaltCycle)
		}
	}()

	select {
	case <-done:
	case <-sigChan:
		logger.Println("Received termination signal. Shutting down...")
		sim.Shutdown()
		logger.Println("Simulation terminated successfully")
	}
}
