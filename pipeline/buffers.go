// Package pipeline implements the five-stage DLX pipeline: the per-stage
// buffers, the hazard/forwarding unit, and the reverse-order cycle driver
// that advances them all as if the stages ran concurrently within one
// tick.
package pipeline

import "github.com/sarchlab/dlxsim/isa"

// ForwardSource names where an execute-stage operand port's value comes
// from.
type ForwardSource uint8

const (
	// ForwardNone means use the value already latched in the buffer.
	ForwardNone ForwardSource = iota
	// ForwardMemory means forward from the memory stage's buffer.
	ForwardMemory
	// ForwardWriteback means forward from the writeback stage's buffer.
	ForwardWriteback
)

// FetchBuffer holds the fetch stage's persistent, cross-cycle state.
type FetchBuffer struct {
	// PC is the next instruction to fetch.
	PC int
	// PCBranch is the branch/jump target, set by decode.
	PCBranch int
	// Stall, when set, skips this cycle's fetch entirely.
	Stall bool
	// Flush, when set, inserts a bubble into decode and redirects PC.
	Flush bool
}

// DecodeBuffer holds the decode stage's persistent state.
type DecodeBuffer struct {
	// PCNext is the sequential successor of the instruction in Inst.
	PCNext int
	// Inst is the instruction currently in decode.
	Inst isa.Instruction
	// Stall, when set, turns this cycle's decode into a bubble.
	Stall bool
	// ShouldJump is the taken-branch/jump signal published to fetch.
	ShouldJump bool
	// Forward and Data carry a value injected into the branch comparator
	// from a later stage, bypassing the register file.
	Forward bool
	Data    int
}

// ExecuteBuffer holds the execute stage's persistent state.
type ExecuteBuffer struct {
	A, B   int
	ALUOut int
	Inst   isa.Instruction
	// ForwardA and ForwardB select the source for operand ports A and B
	// respectively; see HazardUnit.ForwardOnHazard.
	ForwardA, ForwardB ForwardSource
}

// MemoryBuffer holds the memory stage's persistent state.
type MemoryBuffer struct {
	ALUOut    int
	WriteData int
	Inst      isa.Instruction
}

// WritebackBuffer holds the writeback stage's persistent state.
type WritebackBuffer struct {
	ReadData int
	ALUOut   int
	// Result is the value actually committed, preserved one extra cycle
	// so a later instruction can forward from it (ForwardWriteback).
	Result int
	Inst   isa.Instruction
}

// Clear resets a DecodeBuffer to hold a bubble.
func (b *DecodeBuffer) Clear() {
	*b = DecodeBuffer{Inst: isa.Nop}
}

// Clear resets an ExecuteBuffer to hold a bubble.
func (b *ExecuteBuffer) Clear() {
	*b = ExecuteBuffer{Inst: isa.Nop}
}

// Clear resets a MemoryBuffer to hold a bubble.
func (b *MemoryBuffer) Clear() {
	*b = MemoryBuffer{Inst: isa.Nop}
}

// Clear resets a WritebackBuffer to hold a bubble.
func (b *WritebackBuffer) Clear() {
	*b = WritebackBuffer{Inst: isa.Nop}
}
