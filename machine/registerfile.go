// Package machine provides the passive stores surrounding the DLX
// pipeline: the register file and word-addressed data memory.
package machine

import "github.com/sarchlab/dlxsim/isa"

// RegisterFile holds the 16 signed DLX registers. R0 is hard-wired to
// zero: Read always returns 0 for register 0 regardless of what was last
// written there, and the pipeline's writeback stage refuses to write it
// (see pipeline.ExitIllegalRegWrite).
type RegisterFile struct {
	regs [isa.RegisterCount]int
}

// Read returns the value of register r. Reading register 0 always yields
// zero, and so does reading isa.NoReg or any other out-of-range index:
// instructions that don't use an operand (NOP, J) still flow through
// decode's unconditional register reads, so Read must tolerate the
// sentinel rather than index out of bounds.
func (f *RegisterFile) Read(r int) int {
	if r <= 0 || r >= isa.RegisterCount {
		return 0
	}
	return f.regs[r]
}

// Write sets register r to value. Callers are responsible for rejecting
// writes to register 0; Write itself does not guard against it so that
// the pipeline's writeback stage can distinguish "no write requested"
// from "illegal write requested" before ever mutating state.
func (f *RegisterFile) Write(r int, value int) {
	f.regs[r] = value
}

// Snapshot returns a copy of all register values, R0 included, for
// debug dumps.
func (f *RegisterFile) Snapshot() [isa.RegisterCount]int {
	out := f.regs
	out[0] = 0
	return out
}
