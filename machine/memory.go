package machine

import "github.com/sarchlab/dlxsim/isa"

// Memory is the word-addressed data memory. It performs no bounds
// checking of its own: the pipeline's memory stage validates addresses
// against Words before calling Read or Write, per the effective-address
// check §4.4 requires, so that an out-of-range access is reported as a
// simulator-fatal condition with a diagnostic rather than as a Go panic.
type Memory struct {
	words []int
}

// NewMemory creates data memory with isa.MaxWordsOfData capacity, all
// words initialized to zero.
func NewMemory() *Memory {
	return &Memory{words: make([]int, isa.MaxWordsOfData)}
}

// Words returns the memory's capacity in words.
func (m *Memory) Words() int {
	return len(m.words)
}

// InRange reports whether addr is a valid word address.
func (m *Memory) InRange(addr int) bool {
	return addr >= 0 && addr < len(m.words)
}

// Read returns the word at addr. The caller must have validated addr with
// InRange.
func (m *Memory) Read(addr int) int {
	return m.words[addr]
}

// Write stores value at addr. The caller must have validated addr with
// InRange.
func (m *Memory) Write(addr int, value int) {
	m.words[addr] = value
}

// LoadImage copies an initial data image into the low words of memory,
// as produced by the assembler's .data section.
func (m *Memory) LoadImage(image []int) {
	copy(m.words, image)
}

// Snapshot returns a copy of the full data memory for debug dumps.
func (m *Memory) Snapshot() []int {
	out := make([]int, len(m.words))
	copy(out, m.words)
	return out
}
