// Package report renders the stage-completion table the simulator emits
// once a run terminates (spec.md §6 "Output format").
package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jasonKoogler/cpu-sim/internal/asm"
	"github.com/jasonKoogler/cpu-sim/internal/stage"
)

// padColumn is the column the original line text is padded to before the
// tab-separated cycle numbers.
const padColumn = 35

const header = "Cycle Number for Each Stage        IF\tID\tEX3\tMEM\tWB"

// Write renders the dispatch history to w: a header line followed by one
// row per dispatched instruction, each padded to padColumn and followed by
// the IF/ID/EX3/MEM/WB finish_log entries. EX1 and EX2 are intentionally
// omitted from the report, per spec.md §6.
func Write(w io.Writer, history []*asm.Instruction) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, header); err != nil {
		return err
	}

	for _, instr := range history {
		if _, err := fmt.Fprint(bw, padLine(instr.OriginalLine)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%d\n",
			instr.FinishLog[stage.IF],
			instr.FinishLog[stage.ID],
			instr.FinishLog[stage.EX3],
			instr.FinishLog[stage.MEM],
			instr.FinishLog[stage.WB],
		); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func padLine(line string) string {
	if len(line) >= padColumn {
		return line
	}
	padding := make([]byte, padColumn-len(line))
	for i := range padding {
		padding[i] = ' '
	}
	return line + string(padding)
}
