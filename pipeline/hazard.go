package pipeline

import "github.com/sarchlab/dlxsim/isa"

// HazardUnit detects RAW data hazards and decides stalling and
// forwarding. It is stateless; every method is a pure function of the
// instructions it is given.
type HazardUnit struct{}

// NewHazardUnit creates a hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// StallOnHazard reports whether reader has a RAW hazard against writer.
// This is the direct counterpart of the original simulator's
// processor_stall_on_hazard: a caller that gets true is responsible for
// asserting whichever stall signal applies in its stage.
func (h *HazardUnit) StallOnHazard(reader, writer isa.Instruction) bool {
	_, ok := isa.RegRAWHazard(reader, writer)
	return ok
}

// ForwardDecision is the result of evaluating the forwarding contract for
// one reader/writer pair.
type ForwardDecision struct {
	// ForwardA and ForwardB report whether reader's A-port (rs) and
	// B-port (rt) operands should be sourced from writer's result.
	ForwardA, ForwardB bool
}

// ForwardOnHazard decides which of reader's operand ports need to be
// forwarded from writer's result.
//
// This replaces the original simulator's processor_forward_on_hazard,
// which wrote through a pointer to two adjacent forwarding-source struct
// fields via pointer arithmetic (`*(stage + 1)`). The abstract contract is
// simpler than that trick: if the hazard register is reader's rs, forward
// the A port; if it is rt, forward the B port; both fire when rs and rt
// happen to name the same register.
func (h *HazardUnit) ForwardOnHazard(reader, writer isa.Instruction) ForwardDecision {
	var d ForwardDecision

	reg, ok := isa.RegRAWHazard(reader, writer)
	if !ok {
		return d
	}

	if reg == reader.Rs {
		d.ForwardA = true
	}
	if reg == reader.Rt {
		d.ForwardB = true
	}

	return d
}

// BranchForwardOnHazard reports whether writer's result should be
// forwarded into branchInst's pending comparison in decode. It mirrors
// the second half of processor_forward_on_hazard, which forwards to
// decode's branch operand from whichever stage (MEM or WB) just produced
// a value the branch depends on.
func (h *HazardUnit) BranchForwardOnHazard(branchInst, writer isa.Instruction) bool {
	if !isa.IsBranch(branchInst) {
		return false
	}
	if isa.OutputRegister(writer) == isa.NoReg {
		return false
	}
	_, ok := isa.RegRAWHazard(branchInst, writer)
	return ok
}
