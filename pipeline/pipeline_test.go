package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dlxsim/isa"
	"github.com/sarchlab/dlxsim/machine"
	"github.com/sarchlab/dlxsim/pipeline"
)

// runProgram assembles insts into a fresh machine, runs it to completion,
// and returns the resulting pipeline, register file, and memory for
// inspection.
func runProgram(insts ...isa.Instruction) (*pipeline.Pipeline, *machine.RegisterFile, *machine.Memory) {
	st := program(insts...)
	regFile := &machine.RegisterFile{}
	mem := machine.NewMemory()
	p := pipeline.NewPipeline(st, regFile, mem)

	Expect(p.Run()).To(Succeed())

	return p, regFile, mem
}

var _ = Describe("Pipeline end-to-end", func() {
	It("runs straight-line arithmetic with no hazards", func() {
		p, regFile, _ := runProgram(
			isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 1, Imm: 5},
			isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 2, Imm: 7},
			isa.Instruction{Op: isa.ADD, Rs: 1, Rt: 2, Rd: 3},
		)

		Expect(regFile.Read(1)).To(Equal(5))
		Expect(regFile.Read(2)).To(Equal(7))
		Expect(regFile.Read(3)).To(Equal(12))
		Expect(p.State().Cycles()).To(Equal(7))
		Expect(p.State().InstructionsExecuted()).To(Equal(3))
	})

	It("resolves a RAW hazard via EX-to-EX forwarding with no stall", func() {
		p, regFile, _ := runProgram(
			isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 1, Imm: 10},
			isa.Instruction{Op: isa.ADD, Rs: 1, Rt: 1, Rd: 2},
		)

		Expect(regFile.Read(1)).To(Equal(10))
		Expect(regFile.Read(2)).To(Equal(20))
		Expect(p.State().Cycles()).To(Equal(6))
	})

	It("inserts exactly one stall cycle for a load-use hazard", func() {
		p, regFile, _ := runProgram(
			isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 1, Imm: 0},
			isa.Instruction{Op: isa.SW, Rs: 0, Rt: 1, Imm: 0},
			isa.Instruction{Op: isa.LW, Rs: 0, Rt: 2, Imm: 0},
			isa.Instruction{Op: isa.ADD, Rs: 2, Rt: 2, Rd: 3},
		)

		Expect(regFile.Read(3)).To(Equal(0))
		// 4 instructions + 4-cycle fill + 1 stall cycle.
		Expect(p.State().Cycles()).To(Equal(9))
	})

	It("flushes one instruction on a taken branch and stalls once for the branch-use hazard", func() {
		// BEQZ is instruction index 1, pc_next = 2; target index 3, so
		// imm = 3 - 2 = 1 (see asm.resolveTarget's identical arithmetic).
		p, regFile, _ := runProgram(
			isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 1, Imm: 0},
			isa.Instruction{Op: isa.BEQZ, Rs: 1, Imm: 1},
			isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 2, Imm: 99},
			isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 3, Imm: 7},
		)

		Expect(regFile.Read(1)).To(Equal(0))
		Expect(regFile.Read(2)).To(Equal(0))
		Expect(regFile.Read(3)).To(Equal(7))
		// 4 instructions + 4-cycle fill + 1 stall cycle for the
		// branch-use hazard against R1, resolved via MEM-stage
		// branch-operand forwarding rather than a second stall.
		Expect(p.State().Cycles()).To(Equal(9))
	})

	It("flushes the sequential successor on an unconditional jump with no data hazard", func() {
		// J is instruction index 0, pc_next = 1; target index 2, so
		// imm = 2 - 1 = 1. Index 1 is never fetched.
		p, regFile, _ := runProgram(
			isa.Instruction{Op: isa.J, Imm: 1},
			isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 1, Imm: 99},
			isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 2, Imm: 42},
		)

		Expect(regFile.Read(1)).To(Equal(0))
		Expect(regFile.Read(2)).To(Equal(42))
		// 3 instructions + 4-cycle fill, no stall: J carries no operand
		// for the hazard unit to stall on.
		Expect(p.State().Cycles()).To(Equal(7))
	})

	It("fails with ExitIllegalRegWrite when an instruction tries to write R0", func() {
		st := program(
			isa.Instruction{Op: isa.ADD, Rs: 1, Rt: 2, Rd: 0},
		)
		regFile := &machine.RegisterFile{}
		mem := machine.NewMemory()
		p := pipeline.NewPipeline(st, regFile, mem)

		err := p.Run()
		Expect(err).To(HaveOccurred())
		Expect(err.(*pipeline.FatalError).Code).To(Equal(pipeline.ExitIllegalRegWrite))
	})

	It("fails with ExitIllegalMemAccess on an out-of-range load address", func() {
		st := program(
			isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 1, Imm: -1},
			isa.Instruction{Op: isa.LW, Rs: 1, Rt: 2, Imm: 0},
		)
		regFile := &machine.RegisterFile{}
		mem := machine.NewMemory()
		p := pipeline.NewPipeline(st, regFile, mem)

		err := p.Run()
		Expect(err).To(HaveOccurred())
		Expect(err.(*pipeline.FatalError).Code).To(Equal(pipeline.ExitIllegalMemAccess))
	})

	It("retires one instruction per cycle in steady state once the pipeline is full", func() {
		insts := make([]isa.Instruction, 0, 50)
		for i := 0; i < 50; i++ {
			insts = append(insts, isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 1, Imm: 1})
		}

		p, _, _ := runProgram(insts...)

		// cycles = N + 4 (the one-time fill/drain latency), so CPI -> 1
		// as N grows.
		Expect(p.State().Cycles()).To(Equal(len(insts) + 4))
		Expect(p.State().InstructionsExecuted()).To(Equal(len(insts)))
	})

	It("never lets register 0 become nonzero", func() {
		_, regFile, _ := runProgram(
			isa.Instruction{Op: isa.ADDI, Rs: 0, Rt: 1, Imm: 5},
		)

		Expect(regFile.Read(0)).To(Equal(0))
	})
})
