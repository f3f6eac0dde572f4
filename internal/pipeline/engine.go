// Package pipeline implements the cycle-by-cycle engine that drives
// instructions through the seven pipeline stages: fetch, advance, hazard
// resolution, and termination (spec.md §4.1, §4.2).
package pipeline

import (
	"log"
	"sync/atomic"

	"github.com/jasonKoogler/cpu-sim/internal/asm"
	"github.com/jasonKoogler/cpu-sim/internal/core"
	"github.com/jasonKoogler/cpu-sim/internal/isa"
	"github.com/jasonKoogler/cpu-sim/internal/stage"
)

// historyReserve is the preallocation hint for running_instrs, mirroring
// the original's reserve(MAX_CYCLE_LIMIT).
const historyReserve = 1000

// Engine owns the stage-register array and dispatch history and advances
// them one cycle at a time.
type Engine struct {
	Program   *asm.Program
	Processor *core.Processor

	active  [stage.NumStages]*asm.Instruction
	History []*asm.Instruction

	flags FlagReg

	CycleBudget     int
	UnlimitedCycles bool

	// TotalCycles is set once Run returns: the number of cycles actually
	// simulated.
	TotalCycles int

	// haltCycle is the cycle HLT was fetched into IF, 0 if the run never
	// dispatched one (e.g. it was cut short by RequestStop or ran out the
	// cycle budget first).
	haltCycle int

	stopRequested atomic.Bool

	logger *log.Logger
}

// New builds an Engine ready to run the given program against the given
// processor (register file + data memory + label map).
func New(program *asm.Program, proc *core.Processor, cycleBudget int, unlimited bool, logger *log.Logger) *Engine {
	return &Engine{
		Program:         program,
		Processor:       proc,
		History:         make([]*asm.Instruction, 0, historyReserve),
		CycleBudget:     cycleBudget,
		UnlimitedCycles: unlimited,
		logger:          logger,
	}
}

// Run drives the cycle loop until program_complete is set, either by the
// HLT-drains-the-pipeline termination rule (spec.md §4.1 "Termination") or
// by cycle-budget exhaustion (spec.md §5 "Cancellation").
func (e *Engine) Run() {
	cycle := 1
	e.flags = globalFlags(&e.active, e.History, e.flags)

	for !e.flags.ProgramComplete {
		e.flags = globalFlags(&e.active, e.History, e.flags)

		if e.flags.AbleToInsert {
			e.fetchPhase(cycle)
		}

		for i := stage.NumStages - 1; i >= 0; i-- {
			s := stage.Ordered[i]
			e.flags = globalFlags(&e.active, e.History, e.flags)
			if e.active[s] != nil {
				e.advanceStage(s, cycle)
			}
		}

		cycle++
		if !e.UnlimitedCycles && cycle > e.CycleBudget {
			e.flags.ProgramComplete = true
		}
		if e.stopRequested.Load() {
			e.flags.ProgramComplete = true
		}
	}

	e.TotalCycles = cycle - 1
}

// RequestStop asks Run to terminate at the next cycle boundary, for
// cooperative cancellation from outside the goroutine running Run (spec.md
// §5 "Cancellation").
func (e *Engine) RequestStop() {
	e.stopRequested.Store(true)
}

// HaltCycle returns the cycle HLT was fetched into IF, or 0 if none was.
func (e *Engine) HaltCycle() int {
	return e.haltCycle
}

// fetchPhase dequeues the next existing instruction starting at the
// processor's PC, dispatches it into IF, and records the dispatch in
// History. A PC that has run off the end of the program logs a diagnostic
// and dispatches nothing (spec.md §7 "PC out of bounds").
func (e *Engine) fetchPhase(cycle int) {
	instr := e.nextExistingInstruction()
	if instr == nil || !instr.Exists {
		return
	}

	instr.InstrIndex = len(e.History)
	instr.InStage = stage.IF
	instr.FinishLog[stage.IF] = cycle

	if instr.Opcode == isa.HLT && e.haltCycle == 0 {
		e.haltCycle = cycle
	}

	e.History = append(e.History, instr)
	e.active[stage.IF] = instr
}

// nextExistingInstruction advances the PC past blank/unrecognized lines and
// returns a fresh dispatch copy of the next existing instruction, or an
// empty, non-existent Instruction if the PC has run out of bounds or no
// existing line remains. Each dispatch is a copy of the program's
// parsed template so that a program that jumps backward and re-dispatches
// the same line gets independent runtime bookkeeping per dispatch (the
// pipeline's stage registers hold pointers into History, never into
// Program.Instructions — see spec.md §9 "Stage-register pointers").
func (e *Engine) nextExistingInstruction() *asm.Instruction {
	instrs := e.Program.Instructions
	pc := e.Processor.PC

	if pc < 0 || pc > len(instrs)-1 {
		e.logger.Printf("PC is out of bounds!")
		return &asm.Instruction{}
	}

	for pc < len(instrs) {
		template := instrs[pc]
		pc++
		e.Processor.PC = pc
		if template.Exists {
			dispatched := *template
			return &dispatched
		}
	}
	return &asm.Instruction{}
}

// advanceStage applies the bookkeeping and semantics for the instruction in
// stage s this cycle, then attempts to push it forward (spec.md §4.1
// "Advance phase", §4.3 "Instruction Semantics").
//
// finish_log and mem_count are updated before the opcode's architectural
// effect runs, which is the reverse of the original source's ordering
// (there, attempt_push increments mem_count only after the switch-case has
// already checked it). The original ordering makes SW's store check
// mem_count one cycle too early and the write never fires; this engine
// increments first so the effect fires on the cycle mem_count actually
// reaches NumMemCycles, matching spec.md §4.3's "MEM (when mem_count=3)"
// and the load/store scenario in spec.md §8 (S5).
func (e *Engine) advanceStage(s stage.Stage, cycle int) {
	instr := e.active[s]

	if !instr.HasCompleted {
		instr.FinishLog[s] = cycle
	}
	if s == stage.MEM {
		instr.MemCount++
	}

	e.Processor.Execute(instr, s)

	if s == stage.EX1 && finalizesAtEX1(instr.Opcode) {
		instr.FinishLog[stage.EX3] = instr.FinishLog[stage.ID] + 1
	}

	e.flags = globalFlags(&e.active, e.History, e.flags)
	f := resolveStage(&e.active, s)

	if !f.AbleToPush {
		return
	}

	if f.FinishOpThisStage {
		instr.HasCompleted = true
	}

	next, hasNext := stage.Next(s)
	if hasNext {
		instr.InStage = next
		e.active[next] = instr
	}
	e.active[s] = nil
}

// finalizesAtEX1 reports whether op completes in EX1 rather than WB, per the
// completion-in-stage policy (spec.md §4.1): its finish_log[EX3] must be
// synthesized here since the instruction's has_completed guard suppresses
// the natural stamp once it reaches EX3.
func finalizesAtEX1(op isa.Opcode) bool {
	return op == isa.J || op == isa.BEQ || op == isa.BNE || op == isa.HLT
}
