package pipeline

import (
	"github.com/sarchlab/dlxsim/isa"
	"github.com/sarchlab/dlxsim/machine"
)

// FetchStage implements the IF stage (§4.1): stall/flush handling, the
// drain protocol past the end of the program, and PC selection.
type FetchStage struct{}

// NewFetchStage creates a fetch stage.
func NewFetchStage() *FetchStage {
	return &FetchStage{}
}

// Fetch advances fetch and decode buffers by one cycle. It returns a
// FatalError if a taken branch/jump targets an out-of-range instruction.
func (s *FetchStage) Fetch(st *State) error {
	fetch := &st.Fetch
	decode := &st.Decode

	if fetch.Stall {
		fetch.Stall = false
		return nil
	}

	if fetch.Flush {
		decode.Inst = isa.Nop
		fetch.Flush = false
		fetch.PC = fetch.PCBranch
		return nil
	}

	pcNow := fetch.PC

	if pcNow >= st.instCount {
		decode.Inst = isa.Nop
		if pcNow >= st.instCount+3 {
			st.halt = true
		}
	} else {
		decode.Inst = st.instMem[pcNow]
	}

	pcNext := pcNow + 1
	decode.PCNext = pcNext

	if decode.ShouldJump {
		if fetch.PCBranch < 0 || fetch.PCBranch >= st.instCount {
			return illegalJump(fetch.PCBranch)
		}
		fetch.PC = fetch.PCBranch
	} else {
		fetch.PC = pcNext
	}

	return nil
}

// DecodeStage implements the ID stage (§4.2): register read, branch
// resolution, and publishing to execute.
type DecodeStage struct {
	regFile *machine.RegisterFile
}

// NewDecodeStage creates a decode stage reading from regFile.
func NewDecodeStage(regFile *machine.RegisterFile) *DecodeStage {
	return &DecodeStage{regFile: regFile}
}

// Decode advances the decode and execute buffers by one cycle.
func (s *DecodeStage) Decode(st *State) {
	decode := &st.Decode
	fetch := &st.Fetch
	execute := &st.Execute

	if decode.Stall {
		decode.Stall = false
		fetch.Stall = true
		execute.Clear()
		return
	}

	inst := decode.Inst

	a := s.regFile.Read(inst.Rs)
	if decode.Forward {
		a = decode.Data
	}
	b := s.regFile.Read(inst.Rt)
	decode.Forward = false

	var shouldJump bool
	switch inst.Op {
	case isa.BEQZ:
		shouldJump = a == 0
	case isa.BNEZ:
		shouldJump = a != 0
	case isa.J:
		shouldJump = true
	}

	decode.ShouldJump = shouldJump
	fetch.Flush = shouldJump
	fetch.PCBranch = inst.Imm + decode.PCNext

	execute.Inst = inst
	execute.A = a
	execute.B = b
}

// ExecuteStage implements the EX stage (§4.3): operand forwarding
// consumption, the ALU, and the branch-use stall request.
type ExecuteStage struct {
	hazard *HazardUnit
}

// NewExecuteStage creates an execute stage.
func NewExecuteStage(hazard *HazardUnit) *ExecuteStage {
	return &ExecuteStage{hazard: hazard}
}

// Execute advances the execute and memory buffers by one cycle.
func (s *ExecuteStage) Execute(st *State) {
	execute := &st.Execute
	memoryBuf := &st.Memory
	writeback := &st.Writeback
	decode := &st.Decode

	inst := execute.Inst

	a := execute.A
	writeData := execute.B

	switch execute.ForwardA {
	case ForwardMemory:
		if isa.GetMemOp(memoryBuf.Inst) == isa.MemRead {
			a = writeback.ReadData
		} else {
			a = memoryBuf.ALUOut
		}
	case ForwardWriteback:
		a = writeback.Result
	}

	switch execute.ForwardB {
	case ForwardMemory:
		if isa.GetMemOp(memoryBuf.Inst) == isa.MemRead {
			writeData = writeback.ReadData
		} else {
			writeData = memoryBuf.ALUOut
		}
	case ForwardWriteback:
		writeData = writeback.Result
	}

	execute.ForwardA = ForwardNone
	execute.ForwardB = ForwardNone

	bEffective := writeData
	if isa.HasImmediate(inst.Op) {
		bEffective = inst.Imm
	}

	var aluOut int
	switch isa.GetALUOp(inst) {
	case isa.ALUPlus:
		aluOut = a + bEffective
	case isa.ALUMinus:
		aluOut = a - bEffective
	}

	// A branch cannot take its operand from the execute stage (decode's
	// comparator is fed only from memory/writeback); if the
	// instruction currently in decode is a branch depending on this
	// instruction's result, request a stall instead so it can read a
	// forwarded value once this instruction reaches memory/writeback.
	if isa.IsBranch(decode.Inst) && s.hazard.StallOnHazard(decode.Inst, inst) {
		decode.Stall = true
	}

	memoryBuf.ALUOut = aluOut
	memoryBuf.WriteData = writeData
	memoryBuf.Inst = inst
}

// MemoryStage implements the MEM stage (§4.4): address validation, the
// load-use stall request, and both outgoing forwarding requests.
type MemoryStage struct {
	memory *machine.Memory
	hazard *HazardUnit
}

// NewMemoryStage creates a memory stage backed by memory.
func NewMemoryStage(memory *machine.Memory, hazard *HazardUnit) *MemoryStage {
	return &MemoryStage{memory: memory, hazard: hazard}
}

// Access advances the memory and writeback buffers by one cycle. It
// returns a FatalError if a load/store address is out of range.
func (s *MemoryStage) Access(st *State) error {
	memoryBuf := &st.Memory
	writeback := &st.Writeback
	execute := &st.Execute
	decode := &st.Decode

	addr := memoryBuf.ALUOut
	inst := memoryBuf.Inst
	memOp := isa.GetMemOp(inst)

	if memOp != isa.MemNone && !s.memory.InRange(addr) {
		return illegalMemAccess(addr)
	}

	data := memoryBuf.ALUOut

	switch memOp {
	case isa.MemRead:
		data = s.memory.Read(addr)
		writeback.ReadData = data

		if s.hazard.StallOnHazard(decode.Inst, inst) {
			decode.Stall = true
		}
		if s.hazard.StallOnHazard(execute.Inst, inst) {
			decode.Stall = true
		}
	case isa.MemWrite:
		s.memory.Write(addr, memoryBuf.WriteData)
	}

	forward := s.hazard.ForwardOnHazard(execute.Inst, inst)
	if forward.ForwardA {
		execute.ForwardA = ForwardMemory
	}
	if forward.ForwardB {
		execute.ForwardB = ForwardMemory
	}

	if s.hazard.BranchForwardOnHazard(decode.Inst, inst) {
		decode.Forward = true
		decode.Data = data
	}

	writeback.Inst = inst
	writeback.ALUOut = memoryBuf.ALUOut

	return nil
}

// WritebackStage implements the WB stage (§4.5): the guarded register
// commit and the forwarding request to execute.
type WritebackStage struct {
	regFile *machine.RegisterFile
	hazard  *HazardUnit
}

// NewWritebackStage creates a writeback stage writing to regFile.
func NewWritebackStage(regFile *machine.RegisterFile, hazard *HazardUnit) *WritebackStage {
	return &WritebackStage{regFile: regFile, hazard: hazard}
}

// Writeback commits a result to the register file, if any, and returns a
// FatalError if the instruction tried to write R0.
func (s *WritebackStage) Writeback(st *State) error {
	writeback := &st.Writeback
	execute := &st.Execute

	inst := writeback.Inst
	dest := isa.OutputRegister(inst)

	var data int
	switch inst.Op {
	case isa.ADD, isa.SUB, isa.ADDI, isa.SUBI:
		data = writeback.ALUOut
	case isa.LW:
		data = writeback.ReadData
	}

	if dest != isa.NoReg {
		if dest == 0 {
			return illegalRegWrite(0)
		}
		s.regFile.Write(dest, data)
	}

	forward := s.hazard.ForwardOnHazard(execute.Inst, inst)
	if forward.ForwardA {
		execute.ForwardA = ForwardWriteback
	}
	if forward.ForwardB {
		execute.ForwardB = ForwardWriteback
	}

	if s.hazard.BranchForwardOnHazard(st.Decode.Inst, inst) {
		st.Decode.Forward = true
		st.Decode.Data = data
	}

	writeback.Result = data

	if inst.Op != isa.NOP {
		st.instructionsExecuted++
	}

	return nil
}
