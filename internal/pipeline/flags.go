package pipeline

import (
	"github.com/jasonKoogler/cpu-sim/internal/asm"
	"github.com/jasonKoogler/cpu-sim/internal/isa"
	"github.com/jasonKoogler/cpu-sim/internal/stage"
)

// FlagReg is the per-cycle scratch record the hazard resolver produces for
// a single stage, mirroring the source's FlagReg exactly (spec.md §3).
type FlagReg struct {
	HasStructuralHazard bool
	HasDataHazard       bool
	AbleToPush          bool
	FinishOpThisStage   bool
	IsStalling          bool

	ControlHazardExists bool
	AbleToInsert        bool
	FinishingUp         bool // monotonic once set
	ProgramComplete     bool // monotonic once set
}

// updateDataHazards is the hazard resolver's data-hazard pass over the
// active stage registers and the dispatch history. It is not a pure
// function: it returns nothing and records its result by mutating the
// instructions' HasDataHazard and NearestDataHazard fields. It keeps no
// state of its own across calls.
//
// The comparison against the consumer's source registers checks
// source_reg1 twice and never source_reg2 — reproduced verbatim from the
// original (spec.md §9 flags this as a likely bug, to be preserved, not
// normalized).
func updateDataHazards(active *[stage.NumStages]*asm.Instruction, history []*asm.Instruction) {
	ifInstr := active[stage.IF]

	for i := stage.NumStages - 1; i >= 1; i-- {
		s := stage.Ordered[i]
		producer := active[s]
		if ifInstr == nil || producer == nil {
			continue
		}
		if !ifInstr.Exists || !producer.Exists || !producer.WritesToRegister {
			continue
		}

		if producer.ResultReg == ifInstr.SourceReg1 || producer.ResultReg == ifInstr.SourceReg1 {
			if producer.AlreadyWroteResult {
				ifInstr.HasDataHazard = false
			} else {
				ifInstr.HasDataHazard = true
				ifInstr.NearestDataHazard = producer.InstrIndex
			}
		}
	}

	for i := stage.NumStages - 1; i >= 0; i-- {
		s := stage.Ordered[i]
		candidate := active[s]
		if ifInstr == nil || candidate == nil {
			continue
		}
		if !candidate.Exists || !candidate.HasDataHazard {
			continue
		}

		hazardDistance := ifInstr.InstrIndex - candidate.NearestDataHazard
		if hazardDistance > stage.NumStages-1 {
			candidate.HasDataHazard = false
		}
		if history[candidate.NearestDataHazard].AlreadyWroteResult {
			candidate.HasDataHazard = false
		}
	}
}

// susceptibleToDataHazard reports whether the instruction occupying stage s
// is the kind that stalls on a data hazard rather than advancing
// regardless: branches stall in IF, other source-register consumers stall
// in ID (spec.md §4.2).
func susceptibleToDataHazard(active *[stage.NumStages]*asm.Instruction, s stage.Stage) bool {
	instr := active[s]
	if instr == nil {
		return false
	}
	switch s {
	case stage.IF:
		return instr.IsBranch
	case stage.ID:
		return instr.HasSourceRegs && !instr.IsBranch
	default:
		return false
	}
}

// resolveStage computes the push-decision flags for the instruction
// currently in stage s, per spec.md §4.1 "Push permission" and §4.2
// "Structural hazards".
func resolveStage(active *[stage.NumStages]*asm.Instruction, s stage.Stage) FlagReg {
	var f FlagReg
	instr := active[s]

	if s == stage.WB {
		f.HasStructuralHazard = false
		f.AbleToPush = true
	} else {
		f.HasDataHazard = instr.HasDataHazard
		next, _ := stage.Next(s)
		nextOccupant := active[next]
		f.HasStructuralHazard = nextOccupant != nil && nextOccupant.Exists

		susceptible := susceptibleToDataHazard(active, s)
		f.AbleToPush = !f.HasStructuralHazard && (!susceptible || !f.HasDataHazard)

		if s == stage.MEM && instr.MemCount < stage.NumMemCycles {
			f.AbleToPush = false
		}
	}

	if !f.HasStructuralHazard && f.HasDataHazard {
		f.IsStalling = true
	}

	switch s {
	case stage.EX1:
		if instr.Opcode == isa.J || instr.Opcode == isa.BEQ || instr.Opcode == isa.BNE || instr.Opcode == isa.HLT {
			f.FinishOpThisStage = true
		}
	case stage.WB:
		f.FinishOpThisStage = true
	}

	return f
}

// globalFlags recomputes the flags that do not depend on which stage is
// about to be processed: the data-hazard pass, control-hazard presence,
// fetch eligibility, the monotonic finishing-up latch, and program
// completion. Mirrors the original's update_flags, which runs
// update_data_hazards on every call rather than leaving it for a caller to
// invoke separately.
func globalFlags(active *[stage.NumStages]*asm.Instruction, history []*asm.Instruction, prev FlagReg) FlagReg {
	updateDataHazards(active, history)

	f := prev

	ifInstr := active[stage.IF]
	if ifInstr != nil && ifInstr.Exists && ifInstr.OpcodeName == "HLT" {
		f.FinishingUp = true
	}

	idInstr := active[stage.ID]
	f.ControlHazardExists = idInstr != nil && idInstr.Exists && idInstr.IsBranch
	f.AbleToInsert = ifInstr == nil && !f.ControlHazardExists && !f.FinishingUp

	hltReachedID := idInstr != nil && idInstr.Exists && idInstr.OpcodeName == "HLT"
	if !hltReachedID {
		for _, instr := range history {
			if instr.OpcodeName == "HLT" && instr.FinishLog[stage.ID] != 0 {
				hltReachedID = true
				break
			}
		}
	}

	if hltReachedID {
		complete := true
		for _, s := range [...]stage.Stage{stage.EX1, stage.EX2, stage.EX3, stage.MEM, stage.WB} {
			occupant := active[s]
			if occupant != nil && !occupant.HasCompleted {
				complete = false
				break
			}
		}
		if complete {
			f.ProgramComplete = true
		}
	}

	return f
}
