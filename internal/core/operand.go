// Package core holds the register file, data memory access, operand
// resolution, and per-opcode instruction semantics — the parts of the
// simulator that actually mutate architectural state.
package core

import (
	"strconv"
	"strings"

	"github.com/jasonKoogler/cpu-sim/internal/asm"
	"github.com/jasonKoogler/cpu-sim/internal/isa"
)

// Resolve converts a textual operand into its integer value, trying, in
// order: register name, address expression, label, immediate. This mirrors
// get_value verbatim, including resolving a label before falling back to an
// immediate (so a bareword that happens to name a label resolves to the
// label's line number even outside an address/register position).
func (p *Processor) Resolve(str string) int {
	if idx, ok := isa.Registers[str]; ok {
		return int(p.Registers[idx])
	}
	if strings.ContainsRune(str, '(') && strings.ContainsRune(str, ')') {
		return int(p.Data.Get(p.AddressToIndex(str)))
	}
	if line, ok := p.Labels[str]; ok {
		return line
	}
	return ResolveImmediate(str)
}

// AddressToIndex converts an address expression of the form "off(reg)" or
// "reg(off)" into a data-memory word index. Disambiguation between the two
// forms is done by checking whether the whole string starts with 'R', not
// by checking which side actually parses as a register — reproduced
// verbatim from address_to_index.
func (p *Processor) AddressToIndex(str string) int {
	openPos := strings.IndexByte(str, '(')
	closePos := strings.IndexByte(str, ')')
	op1 := str[:openPos]
	op2 := str[openPos+1 : closePos]

	var val1, val2 int
	if len(str) == 0 || str[0] != 'R' {
		// op1 is immediate, op2 is register
		val1, _ = strconv.Atoi(op1)
		val2 = int(p.Registers[isa.Registers[op2]])
	} else {
		// op1 is register, op2 is immediate
		val1 = int(p.Registers[isa.Registers[op1]])
		val2, _ = strconv.Atoi(op2)
	}

	address := val1 + val2
	return asm.ByteAddressToIndex(address)
}

// ResolveImmediate parses a decimal or (H-suffixed) hexadecimal immediate
// string into an integer, mirroring resolve_immediate verbatim.
func ResolveImmediate(str string) int {
	if hPos := strings.IndexByte(str, 'H'); hPos != -1 {
		n, _ := strconv.ParseInt(str[:hPos], 16, 64)
		return int(n)
	}
	n, _ := strconv.ParseInt(str, 10, 64)
	return int(n)
}
