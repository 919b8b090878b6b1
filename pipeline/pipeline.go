// Package pipeline implements the five-stage DLX pipeline: the per-stage
// buffers, the hazard/forwarding unit, and the reverse-order cycle driver
// that advances them all as if the stages ran concurrently within one
// tick.
package pipeline

import (
	"fmt"

	"github.com/sarchlab/dlxsim/isa"
	"github.com/sarchlab/dlxsim/machine"
)

// MaxCycles is the fail-safe cycle cap: a run that has not halted by this
// many cycles is aborted as runaway rather than looping forever.
const MaxCycles = 500_000

// State is the owning record for the pipeline's own state: the
// instruction stream, the five pipeline buffers, the halt flag, and the
// cycle and retired-instruction counters. It does not hold the register
// file or the data memory: those are separate machine.RegisterFile and
// machine.Memory values passed to NewPipeline. There is exactly one State
// per simulation run, with an explicit lifetime spanning it.
type State struct {
	Fetch     FetchBuffer
	Decode    DecodeBuffer
	Execute   ExecuteBuffer
	Memory    MemoryBuffer
	Writeback WritebackBuffer

	instMem   []isa.Instruction
	instCount int

	halt bool

	cyclesExecuted       int
	instructionsExecuted int
}

// NewState creates a State over the given instruction stream; instCount is
// the number of valid entries at the front of instMem. instMem is not
// copied, so the caller must not mutate it once the simulation starts.
func NewState(instMem []isa.Instruction, instCount int) *State {
	return &State{
		instMem:   instMem,
		instCount: instCount,
		Decode:    DecodeBuffer{Inst: isa.Nop},
		Execute:   ExecuteBuffer{Inst: isa.Nop},
		Memory:    MemoryBuffer{Inst: isa.Nop},
		Writeback: WritebackBuffer{Inst: isa.Nop},
	}
}

// Halted reports whether the drain protocol has finished and the
// simulation should stop advancing.
func (st *State) Halted() bool { return st.halt }

// Cycles returns the number of cycles executed so far.
func (st *State) Cycles() int { return st.cyclesExecuted }

// InstructionsExecuted returns the number of non-NOP instructions retired
// so far.
func (st *State) InstructionsExecuted() int { return st.instructionsExecuted }

// RunawayError is returned by Run when a simulation exceeds MaxCycles
// without halting, the sign of a simulated program that never reaches its
// drain tail (an infinite loop, typically).
type RunawayError struct {
	Cycles int
}

func (e *RunawayError) Error() string {
	return fmt.Sprintf("simulation exceeded %d cycles without halting", e.Cycles)
}

// Pipeline wires the five stage objects to one State and drives it one
// cycle at a time in the reverse order (WB, MEM, EX, ID, IF) that realizes
// synchronous-latch semantics with a single copy of each buffer instead of
// a current/next pair.
type Pipeline struct {
	state *State

	fetch     *FetchStage
	decode    *DecodeStage
	execute   *ExecuteStage
	access    *MemoryStage
	writeback *WritebackStage
}

// NewPipeline builds a pipeline over state, reading and writing regFile
// and memory through the five stages.
func NewPipeline(state *State, regFile *machine.RegisterFile, memory *machine.Memory) *Pipeline {
	hazard := NewHazardUnit()

	return &Pipeline{
		state:     state,
		fetch:     NewFetchStage(),
		decode:    NewDecodeStage(regFile),
		execute:   NewExecuteStage(hazard),
		access:    NewMemoryStage(memory, hazard),
		writeback: NewWritebackStage(regFile, hazard),
	}
}

// State returns the pipeline's underlying state container.
func (p *Pipeline) State() *State { return p.state }

// Tick advances the pipeline by exactly one cycle, running WB, MEM, EX,
// ID, IF in that order. It returns a *FatalError if any stage detects one
// of the three fatal conditions (illegal register write, illegal memory
// access, illegal jump); the caller must stop calling Tick once that
// happens.
func (p *Pipeline) Tick() error {
	st := p.state

	if err := p.writeback.Writeback(st); err != nil {
		return err
	}
	if err := p.access.Access(st); err != nil {
		return err
	}

	p.execute.Execute(st)
	p.decode.Decode(st)

	if err := p.fetch.Fetch(st); err != nil {
		return err
	}

	st.cyclesExecuted++

	return nil
}

// Run ticks the pipeline until it halts, a stage reports a fatal error, or
// MaxCycles is exceeded (reported as a *RunawayError).
func (p *Pipeline) Run() error {
	for !p.state.halt {
		if p.state.cyclesExecuted > MaxCycles {
			return &RunawayError{Cycles: p.state.cyclesExecuted}
		}
		if err := p.Tick(); err != nil {
			return err
		}
	}

	return nil
}
