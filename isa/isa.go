// Package isa provides DLX instruction definitions and the pure,
// opcode-derived properties the pipeline consults for hazard detection,
// ALU control, and memory control.
//
// This package does not decode machine words: the assembler (package asm)
// produces Instruction values directly from assembly text, so there is no
// binary encoding to reverse here.
package isa

// Op is a DLX opcode.
type Op uint8

// The closed set of opcodes the pipeline understands.
const (
	NOP Op = iota
	ADD
	SUB
	ADDI
	SUBI
	LW
	SW
	BEQZ
	BNEZ
	J
)

// String returns the mnemonic for an opcode.
func (op Op) String() string {
	switch op {
	case NOP:
		return "NOP"
	case ADD:
		return "ADD"
	case SUB:
		return "SUB"
	case ADDI:
		return "ADDI"
	case SUBI:
		return "SUBI"
	case LW:
		return "LW"
	case SW:
		return "SW"
	case BEQZ:
		return "BEQZ"
	case BNEZ:
		return "BNEZ"
	case J:
		return "J"
	default:
		return "UNKNOWN"
	}
}

// NoReg is the sentinel used for a register operand that an instruction
// does not use.
const NoReg = -1

// RegisterCount is the number of architectural registers, R0 included.
const RegisterCount = 16

// MaxLinesOfCode bounds the number of instructions an assembled program
// may contain.
const MaxLinesOfCode = 4096

// MaxWordsOfData bounds the size of the word-addressed data memory.
const MaxWordsOfData = 4096

// Instruction is a single decoded DLX instruction record.
type Instruction struct {
	Op Op

	// Rs, Rt, Rd are register indices in [0, RegisterCount), or NoReg if
	// the operand is unused by this opcode.
	Rs, Rt, Rd int

	// Imm is the instruction's signed immediate operand. Unused unless
	// HasImmediate(Op) is true, except for branch/jump instructions where
	// it carries the label-relative offset.
	Imm int
}

// Nop is the canonical NOP instruction: every register field unused, zero
// immediate.
var Nop = Instruction{Op: NOP, Rs: NoReg, Rt: NoReg, Rd: NoReg, Imm: 0}

// ALUOp is the arithmetic operation an instruction's execute stage
// performs. It is a distinct enumeration from Op and from MemOp: values
// are never compared across these three types.
type ALUOp uint8

const (
	// ALUUndefined marks instructions that do not use the ALU's result.
	ALUUndefined ALUOp = iota
	// ALUPlus is addition (ADD, ADDI, LW, SW effective-address compute).
	ALUPlus
	// ALUMinus is subtraction (SUB, SUBI).
	ALUMinus
)

// MemOp is the data-memory operation an instruction performs.
type MemOp uint8

const (
	// MemNone means the instruction does not touch data memory.
	MemNone MemOp = iota
	// MemRead is a load (LW).
	MemRead
	// MemWrite is a store (SW).
	MemWrite
)

// OutputRegister returns the register an instruction writes, or NoReg if
// it writes no register.
func OutputRegister(inst Instruction) int {
	switch inst.Op {
	case ADD, SUB:
		return inst.Rd
	case ADDI, SUBI, LW:
		return inst.Rt
	default:
		return NoReg
	}
}

// HasImmediate reports whether an instruction's second ALU operand comes
// from its immediate field rather than register Rt.
func HasImmediate(op Op) bool {
	switch op {
	case ADDI, SUBI, LW, SW:
		return true
	default:
		return false
	}
}

// GetALUOp returns the ALU operation an instruction's execute stage
// performs.
func GetALUOp(inst Instruction) ALUOp {
	switch inst.Op {
	case ADD, ADDI, LW, SW:
		return ALUPlus
	case SUB, SUBI:
		return ALUMinus
	default:
		return ALUUndefined
	}
}

// GetMemOp returns the data-memory operation an instruction performs.
func GetMemOp(inst Instruction) MemOp {
	switch inst.Op {
	case LW:
		return MemRead
	case SW:
		return MemWrite
	default:
		return MemNone
	}
}

// IsBranch reports whether an instruction is a conditional branch. J is a
// jump, not a branch, by this definition: it never needs an operand and so
// participates in neither RAW hazard detection nor operand forwarding.
func IsBranch(inst Instruction) bool {
	switch inst.Op {
	case BEQZ, BNEZ:
		return true
	default:
		return false
	}
}

// RegRAWHazard returns the register on which reader has a read-after-write
// hazard against writer, and whether one exists. rs is checked before rt,
// so if both match (the reader names the same register as rs and rt, as
// in ADD R2, R1, R1), rs wins.
func RegRAWHazard(reader, writer Instruction) (reg int, ok bool) {
	writeReg := OutputRegister(writer)
	if writeReg == NoReg {
		return NoReg, false
	}

	switch reader.Op {
	case ADD, SUB, LW, SW:
		if reader.Rs == writeReg {
			return reader.Rs, true
		}
		if reader.Rt == writeReg {
			return reader.Rt, true
		}
	case ADDI, SUBI, BEQZ, BNEZ:
		if reader.Rs == writeReg {
			return reader.Rs, true
		}
	}

	return NoReg, false
}
