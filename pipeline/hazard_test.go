package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dlxsim/isa"
	"github.com/sarchlab/dlxsim/pipeline"
)

var _ = Describe("HazardUnit", func() {
	var hazard *pipeline.HazardUnit

	BeforeEach(func() {
		hazard = pipeline.NewHazardUnit()
	})

	Describe("StallOnHazard", func() {
		It("reports true when reader's rs matches writer's output register", func() {
			reader := isa.Instruction{Op: isa.ADD, Rs: 3, Rt: 4, Rd: 5}
			writer := isa.Instruction{Op: isa.ADDI, Rt: 3}

			Expect(hazard.StallOnHazard(reader, writer)).To(BeTrue())
		})

		It("reports false when there is no overlapping register", func() {
			reader := isa.Instruction{Op: isa.ADD, Rs: 3, Rt: 4, Rd: 5}
			writer := isa.Instruction{Op: isa.ADDI, Rt: 9}

			Expect(hazard.StallOnHazard(reader, writer)).To(BeFalse())
		})

		It("reports false when the writer produces no output register", func() {
			reader := isa.Instruction{Op: isa.ADD, Rs: 3, Rt: 4}
			writer := isa.Instruction{Op: isa.SW, Rs: 3, Rt: 4}

			Expect(hazard.StallOnHazard(reader, writer)).To(BeFalse())
		})
	})

	Describe("ForwardOnHazard", func() {
		It("sets ForwardA when the hazard register is reader's rs", func() {
			reader := isa.Instruction{Op: isa.ADD, Rs: 1, Rt: 4}
			writer := isa.Instruction{Op: isa.ADDI, Rt: 1}

			d := hazard.ForwardOnHazard(reader, writer)

			Expect(d.ForwardA).To(BeTrue())
			Expect(d.ForwardB).To(BeFalse())
		})

		It("sets ForwardB when the hazard register is reader's rt", func() {
			reader := isa.Instruction{Op: isa.ADD, Rs: 1, Rt: 2}
			writer := isa.Instruction{Op: isa.ADDI, Rt: 2}

			d := hazard.ForwardOnHazard(reader, writer)

			Expect(d.ForwardA).To(BeFalse())
			Expect(d.ForwardB).To(BeTrue())
		})

		It("sets both ports when rs and rt name the same register", func() {
			reader := isa.Instruction{Op: isa.ADD, Rs: 2, Rt: 2}
			writer := isa.Instruction{Op: isa.ADDI, Rt: 2}

			d := hazard.ForwardOnHazard(reader, writer)

			Expect(d.ForwardA).To(BeTrue())
			Expect(d.ForwardB).To(BeTrue())
		})

		It("forwards nothing when there is no hazard", func() {
			reader := isa.Instruction{Op: isa.ADD, Rs: 1, Rt: 2}
			writer := isa.Instruction{Op: isa.ADDI, Rt: 9}

			d := hazard.ForwardOnHazard(reader, writer)

			Expect(d.ForwardA).To(BeFalse())
			Expect(d.ForwardB).To(BeFalse())
		})

		It("only consults rs for a single-operand reader such as ADDI", func() {
			reader := isa.Instruction{Op: isa.ADDI, Rs: 1, Rt: 9}
			writer := isa.Instruction{Op: isa.ADD, Rd: 9}

			d := hazard.ForwardOnHazard(reader, writer)

			Expect(d.ForwardA).To(BeFalse())
			Expect(d.ForwardB).To(BeFalse())
		})
	})

	Describe("BranchForwardOnHazard", func() {
		It("is true for a branch depending on the writer's output register", func() {
			branch := isa.Instruction{Op: isa.BEQZ, Rs: 4}
			writer := isa.Instruction{Op: isa.ADD, Rd: 4}

			Expect(hazard.BranchForwardOnHazard(branch, writer)).To(BeTrue())
		})

		It("is false when the instruction is not a branch", func() {
			notBranch := isa.Instruction{Op: isa.ADD, Rs: 4, Rt: 1}
			writer := isa.Instruction{Op: isa.ADD, Rd: 4}

			Expect(hazard.BranchForwardOnHazard(notBranch, writer)).To(BeFalse())
		})

		It("is false when the writer produces no output register", func() {
			branch := isa.Instruction{Op: isa.BNEZ, Rs: 4}
			writer := isa.Instruction{Op: isa.SW, Rs: 4, Rt: 1}

			Expect(hazard.BranchForwardOnHazard(branch, writer)).To(BeFalse())
		})

		It("is false when the branch does not depend on the writer", func() {
			branch := isa.Instruction{Op: isa.BEQZ, Rs: 4}
			writer := isa.Instruction{Op: isa.ADD, Rd: 9}

			Expect(hazard.BranchForwardOnHazard(branch, writer)).To(BeFalse())
		})
	})
})
