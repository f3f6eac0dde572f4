package asm

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jasonKoogler/cpu-sim/internal/isa"
)

// LoadProgram reads an assembly source file and returns the parsed Program.
// A missing file is logged and an empty Program is returned, matching the
// "degrade, don't abort" error handling the rest of the simulator relies on.
func LoadProgram(logger *log.Logger, filename string) (*Program, error) {
	f, err := os.Open(filename)
	if err != nil {
		logger.Printf("File could not be opened: %s", filename)
		return &Program{Labels: map[string]int{}}, nil
	}
	defer f.Close()

	lines, err := readAllLines(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	program := &Program{
		Instructions: make([]*Instruction, len(lines)),
		Labels:       map[string]int{},
	}
	for i, line := range lines {
		program.Instructions[i] = parseLine(line, i+1)
	}
	fillLabelMap(program)

	return program, nil
}

func readAllLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 256), 64*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// parseLine fully parses a single instruction line, mirroring
// read_instruction_line: strip bars and CR/LF, trim and uppercase a working
// copy for tokenizing, while keeping the original line text intact.
func parseLine(rawLine string, lineNumber int) *Instruction {
	original := removeCRLF(removeBars(rawLine))

	instr := &Instruction{
		LineNumber:   lineNumber,
		OriginalLine: original,
	}

	working := trim(strings.ToUpper(original))

	extractLabel(instr, &working)
	extractOpcode(instr, &working)
	extractArguments(instr, &working)

	return instr
}

func removeBars(line string) string {
	return strings.ReplaceAll(line, "|", "")
}

func removeCRLF(line string) string {
	line = strings.ReplaceAll(line, "\r", " ")
	line = strings.ReplaceAll(line, "\n", " ")
	return line
}

const whitespace = " \t\r\n\f\v"

func trim(line string) string {
	return strings.Trim(line, whitespace)
}

// extractLabel pulls an optional "LABEL:" prefix off the working line.
func extractLabel(instr *Instruction, line *string) {
	if pos := strings.IndexByte(*line, ':'); pos != -1 {
		instr.Label = (*line)[:pos]
		*line = trim((*line)[pos+1:])
	} else {
		instr.Label = ""
	}
}

// extractOpcode matches the opcode against the longest valid prefix of the
// remaining line, exactly as extract_opcode's widening-search loop does.
func extractOpcode(instr *Instruction, line *string) {
	if *line == "" {
		instr.OpcodeName = ""
		instr.Exists = false
		return
	}
	instr.Exists = true

	// Mirrors the original's widening do-while search verbatim, including
	// the quirk that next_op is left stale (not recomputed) once
	// cur_length+1 exceeds the line length.
	curLength := 0
	curOp := ""
	nextOp := ""
	var curValid, nextValid bool
	for {
		curOp = substr(*line, 0, curLength)
		if curLength+1 <= len(*line) {
			nextOp = substr(*line, 0, curLength+1)
		}
		_, curValid = isa.Opcodes[curOp]
		_, nextValid = isa.Opcodes[nextOp]
		curLength++

		if !((!curValid || nextValid) && curLength <= len(*line)) {
			break
		}
	}

	instr.OpcodeName = curOp
	if op, ok := isa.Opcodes[curOp]; ok {
		instr.Opcode = op
	} else {
		instr.OpcodeName = ""
		instr.Exists = false
	}

	*line = trim(substr(*line, curLength-1, len(*line)))
}

func substr(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}
	return s[start:end]
}

// extractArguments splits the remaining comma-separated operand list and
// assigns result/source register fields per-opcode, exactly as
// extract_arguments does.
func extractArguments(instr *Instruction, line *string) {
	if !instr.Exists {
		return
	}

	instr.Arg1 = extractNextArgument(line)
	instr.Arg2 = extractNextArgument(line)
	instr.Arg3 = extractNextArgument(line)

	switch instr.Opcode {
	case isa.LW: // {rd, #(rs)}
		instr.ResultReg = instr.Arg1
		instr.SourceReg1 = registerFromAddress(instr.Arg2)
		instr.WritesToRegister = true
		instr.HasSourceRegs = true

	case isa.SW: // {rs, #(rt)}
		instr.SourceReg1 = instr.Arg1
		instr.SourceReg2 = registerFromAddress(instr.Arg2)
		instr.HasSourceRegs = true

	case isa.LI: // {rd, #}
		instr.ResultReg = instr.Arg1
		instr.WritesToRegister = true

	case isa.ADD, isa.MULT, isa.SUB: // {rd, rs, rt}
		instr.ResultReg = instr.Arg1
		instr.SourceReg1 = instr.Arg2
		instr.SourceReg2 = instr.Arg3
		instr.WritesToRegister = true
		instr.HasSourceRegs = true

	case isa.ADDI, isa.MULTI, isa.SUBI: // {rd, rs, #}
		instr.ResultReg = instr.Arg1
		instr.SourceReg1 = instr.Arg2
		instr.WritesToRegister = true
		instr.HasSourceRegs = true

	case isa.BEQ, isa.BNE: // {rs, rt, label/#}
		instr.SourceReg1 = instr.Arg1
		instr.SourceReg2 = instr.Arg2
		instr.HasSourceRegs = true
		instr.IsBranch = true

	case isa.J, isa.HLT: // {} / {label/#}
		// no register fields
	}
}

// extractNextArgument pops the next comma-separated token off line,
// returning "" once the operand list is exhausted.
func extractNextArgument(line *string) string {
	*line = trim(*line)
	if *line == "" {
		return ""
	}

	if pos := strings.IndexByte(*line, ','); pos != -1 {
		arg := (*line)[:pos]
		*line = (*line)[pos+1:]
		return trim(arg)
	}

	arg := *line
	*line = ""
	return trim(arg)
}

// registerFromAddress extracts the register token out of an address
// expression of the form "off(reg)" or "reg(off)".
func registerFromAddress(str string) string {
	openPos := strings.IndexByte(str, '(')
	if openPos == -1 {
		return ""
	}
	closePos := strings.IndexByte(str[openPos+1:], ')')
	if closePos == -1 {
		return ""
	}
	op1 := str[:openPos]
	op2 := str[openPos+1 : openPos+1+closePos]

	if len(str) == 0 || str[0] != 'R' {
		// op1 is immediate, op2 is register
		return op2
	}
	return op1
}

// fillLabelMap populates the label map: every instruction's own line number
// maps to itself (decimal string), and any explicit label maps to its
// instruction's line number too.
func fillLabelMap(program *Program) {
	for _, instr := range program.Instructions {
		program.Labels[formatDecimal(instr.LineNumber)] = instr.LineNumber
		if instr.Label != "" {
			program.Labels[instr.Label] = instr.LineNumber
		}
	}
}
