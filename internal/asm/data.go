package asm

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// LoadData reads the data-memory image: one 32-bit word per line, each
// written as a binary digit string. A missing file is logged and an empty
// DataMemory is returned, matching LoadProgram's degrade-don't-abort policy.
func LoadData(logger *log.Logger, filename string) (*DataMemory, error) {
	f, err := os.Open(filename)
	if err != nil {
		logger.Printf("File could not be opened: %s", filename)
		return &DataMemory{}, nil
	}
	defer f.Close()

	lines, err := readAllLines(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	mem := &DataMemory{Words: make([]uint32, len(lines))}
	for i, line := range lines {
		word, err := strconv.ParseUint(trim(line), 2, 32)
		if err != nil {
			logger.Printf("data line %d (%q) is not a 32-bit binary word: %v", i+1, line, err)
			continue
		}
		mem.Words[i] = uint32(word)
	}

	return mem, nil
}
