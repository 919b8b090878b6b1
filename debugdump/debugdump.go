// Package debugdump formats register-file and data-memory snapshots for
// the CLI driver's two output modes, grounded on the original simulator's
// print_registers, print_memory, and print_registers_original.
package debugdump

import (
	"fmt"
	"strings"

	"github.com/sarchlab/dlxsim/isa"
)

// FormatRegistersRows renders the register file as two rows of eight,
// the format the -D debug block uses.
func FormatRegistersRows(regs [isa.RegisterCount]int) string {
	var b strings.Builder

	for row := 0; row < 2; row++ {
		for col := 0; col < 8; col++ {
			i := row*8 + col
			fmt.Fprintf(&b, "R%-2d: %-10d ", i, regs[i])
		}
		b.WriteByte('\n')
	}

	return b.String()
}

// FormatRegistersColumns renders the register file as four columns of
// four, the format the non-debug "Final register file values:" block
// uses.
func FormatRegistersColumns(regs [isa.RegisterCount]int) string {
	var b strings.Builder

	for i := 0; i < isa.RegisterCount; i += 4 {
		fmt.Fprintf(&b, "  R%-2d: %-10d  R%-2d: %-10d", i, regs[i], i+1, regs[i+1])
		fmt.Fprintf(&b, "  R%-2d: %-10d  R%-2d: %-10d\n", i+2, regs[i+2], i+3, regs[i+3])
	}

	return b.String()
}

// FormatMemory renders data memory in rows of 20 words, each row labeled
// with its starting address.
func FormatMemory(words []int) string {
	var b strings.Builder

	for i := 0; i < len(words); i += 20 {
		fmt.Fprintf(&b, "%4d ", i)
		end := i + 20
		if end > len(words) {
			end = len(words)
		}
		for _, w := range words[i:end] {
			fmt.Fprintf(&b, "%-4d ", w)
		}
		b.WriteByte('\n')
	}

	return b.String()
}
