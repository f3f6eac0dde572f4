// Package asm parses the simulator's assembly and data file formats into
// the structures the pipeline engine consumes: a Program (instructions plus
// a label map) and a DataMemory.
package asm

import (
	"strconv"

	"github.com/jasonKoogler/cpu-sim/internal/isa"
	"github.com/jasonKoogler/cpu-sim/internal/stage"
)

// Instruction is one parsed line of the assembly source, plus the mutable
// bookkeeping the pipeline engine attaches to it while it runs.
type Instruction struct {
	// Parse-time attributes. Immutable once the program is loaded.
	LineNumber   int    // 1-based
	OriginalLine string // source text, minimal cleanup only
	Label        string
	OpcodeName   string // textual mnemonic, "" if unrecognized
	Opcode       isa.Opcode
	Arg1         string
	Arg2         string
	Arg3         string
	ResultReg    string
	SourceReg1   string
	SourceReg2   string

	WritesToRegister bool
	HasSourceRegs    bool
	IsBranch         bool
	Exists           bool

	// Runtime attributes. Mutated by the pipeline engine as the
	// instruction advances through the stages.
	InstrIndex         int // position in the dispatch history
	InStage            stage.Stage
	MemCount           int
	HasDataHazard      bool
	NearestDataHazard  int
	AlreadyWroteResult bool
	HasCompleted       bool
	FinishLog          [stage.NumStages]int
}

// Program is the ordered instruction list plus the label→line map produced
// by the parser.
type Program struct {
	Instructions []*Instruction
	Labels       map[string]int
}

// DataMemory is the ordered sequence of 32-bit data words loaded from the
// data file.
type DataMemory struct {
	Words []uint32
}

// Get returns the word at the given index, or 0 if the index is out of
// range (a well-formed program never does this; this only protects against
// malformed input reaching data access).
func (d *DataMemory) Get(index int) uint32 {
	if index < 0 || index >= len(d.Words) {
		return 0
	}
	return d.Words[index]
}

// Set stores a word at the given index, growing the backing slice if the
// index falls past the end (store targets past the loaded data segment are
// valid for well-formed programs that compute addresses beyond the initial
// image).
func (d *DataMemory) Set(index int, value uint32) {
	if index < 0 {
		return
	}
	for index >= len(d.Words) {
		d.Words = append(d.Words, 0)
	}
	d.Words[index] = value
}

// baseAddress is the byte address of the first data word.
const baseAddress = 256

// ByteAddressToIndex converts a byte address into a data-memory word index.
func ByteAddressToIndex(addr int) int {
	return (addr - baseAddress) / 4
}

// formatDecimal renders n the way fill_label_map stores numeric
// self-mappings (decimal, base 10).
func formatDecimal(n int) string {
	return strconv.Itoa(n)
}
