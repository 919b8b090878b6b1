// Package asm assembles DLX assembly text into the instruction stream and
// initial data image pipeline.State consumes. It is an external
// collaborator of the core: the driver calls Assemble exactly once, before
// any cycle of simulation runs.
package asm

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/dlxsim/isa"
)

// Program is the result of assembling a source file: a contiguous prefix
// of decoded instructions plus an initial data-memory image.
type Program struct {
	// Instructions holds InstructionCount valid entries at its front.
	Instructions []isa.Instruction
	// InstructionCount is the number of valid entries in Instructions.
	InstructionCount int
	// Data is the initial data-memory image, lowest address first.
	Data []int
}

type section int

const (
	sectionNone section = iota
	sectionData
	sectionText
)

// Assemble reads the DLX assembly source at path and produces a Program.
// It never calls itself recursively and runs exactly once per simulation.
func Assemble(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asm: opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	lines, err := stripComments(f)
	if err != nil {
		return nil, fmt.Errorf("asm: reading %s: %w", path, err)
	}

	labels, textLines, err := scanLabels(lines)
	if err != nil {
		return nil, fmt.Errorf("asm: %s: %w", path, err)
	}

	prog := &Program{
		Instructions: make([]isa.Instruction, isa.MaxLinesOfCode),
	}

	sec := sectionNone
	for _, ln := range lines {
		trimmed := strings.TrimSpace(ln.text)
		if trimmed == "" {
			continue
		}

		switch strings.ToLower(trimmed) {
		case ".data":
			sec = sectionData
			continue
		case ".text":
			sec = sectionText
			continue
		}

		switch sec {
		case sectionData:
			words, err := parseDataWords(trimmed)
			if err != nil {
				return nil, fmt.Errorf("asm: %s:%d: %w", path, ln.num, err)
			}
			prog.Data = append(prog.Data, words...)
		case sectionText:
			// Parsed in the textLines pass below, once labels are known.
		default:
			return nil, fmt.Errorf("asm: %s:%d: content outside .data/.text section", path, ln.num)
		}
	}

	if len(prog.Data) > isa.MaxWordsOfData {
		return nil, fmt.Errorf("asm: %s: .data section has %d words, exceeds MaxWordsOfData (%d)",
			path, len(prog.Data), isa.MaxWordsOfData)
	}

	for _, ln := range textLines {
		if ln.body == "" {
			continue
		}

		if prog.InstructionCount >= isa.MaxLinesOfCode {
			return nil, fmt.Errorf("asm: %s:%d: program exceeds MaxLinesOfCode (%d)",
				path, ln.num, isa.MaxLinesOfCode)
		}

		inst, err := parseInstruction(ln.body, prog.InstructionCount, labels)
		if err != nil {
			return nil, fmt.Errorf("asm: %s:%d: %w", path, ln.num, err)
		}

		prog.Instructions[prog.InstructionCount] = inst
		prog.InstructionCount++
	}

	return prog, nil
}

type sourceLine struct {
	num  int
	text string
}

// stripComments reads every line of r, discarding a trailing `;` or `#`
// comment, and returns the remainder with line numbers preserved.
func stripComments(r *os.File) ([]sourceLine, error) {
	var out []sourceLine

	scanner := bufio.NewScanner(r)
	num := 0
	for scanner.Scan() {
		num++
		text := scanner.Text()
		if i := strings.IndexAny(text, ";#"); i >= 0 {
			text = text[:i]
		}
		out = append(out, sourceLine{num: num, text: text})
	}

	return out, scanner.Err()
}

type textLine struct {
	num  int
	body string
}

// scanLabels makes a first pass over the .text section, recording each
// label's word address (its instruction's index) so forward references
// resolve on the real parsing pass, and returns the .text lines with
// their labels stripped.
func scanLabels(lines []sourceLine) (map[string]int, []textLine, error) {
	labels := make(map[string]int)
	var textLines []textLine

	sec := sectionNone
	index := 0

	for _, ln := range lines {
		trimmed := strings.TrimSpace(ln.text)
		if trimmed == "" {
			continue
		}

		switch strings.ToLower(trimmed) {
		case ".data":
			sec = sectionData
			continue
		case ".text":
			sec = sectionText
			continue
		}

		if sec != sectionText {
			continue
		}

		body := trimmed
		if i := strings.Index(body, ":"); i >= 0 {
			label := strings.TrimSpace(body[:i])
			if label == "" {
				return nil, nil, fmt.Errorf("line %d: empty label", ln.num)
			}
			if _, dup := labels[label]; dup {
				return nil, nil, fmt.Errorf("line %d: duplicate label %q", ln.num, label)
			}
			labels[label] = index
			body = strings.TrimSpace(body[i+1:])
		}

		if body == "" {
			continue
		}

		textLines = append(textLines, textLine{num: ln.num, body: body})
		index++
	}

	return labels, textLines, nil
}

func parseDataWords(line string) ([]int, error) {
	fields := strings.Fields(line)
	words := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid data word %q: %w", f, err)
		}
		words = append(words, n)
	}
	return words, nil
}

// parseInstruction decodes one instruction body (mnemonic and operands,
// label already stripped) at the given instruction index, resolving any
// label operand against labels into the PC-relative immediate §4.2's
// pc_branch := imm + pc_next expects.
func parseInstruction(body string, index int, labels map[string]int) (isa.Instruction, error) {
	fields := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return isa.Instruction{}, fmt.Errorf("empty instruction")
	}

	mnemonic := strings.ToUpper(fields[0])
	operands := fields[1:]

	switch mnemonic {
	case "NOP":
		return isa.Nop, nil

	case "ADD", "SUB":
		if len(operands) != 3 {
			return isa.Instruction{}, fmt.Errorf("%s expects 3 register operands", mnemonic)
		}
		rd, err := parseRegister(operands[0])
		if err != nil {
			return isa.Instruction{}, err
		}
		rs, err := parseRegister(operands[1])
		if err != nil {
			return isa.Instruction{}, err
		}
		rt, err := parseRegister(operands[2])
		if err != nil {
			return isa.Instruction{}, err
		}
		op := isa.ADD
		if mnemonic == "SUB" {
			op = isa.SUB
		}
		return isa.Instruction{Op: op, Rd: rd, Rs: rs, Rt: rt}, nil

	case "ADDI", "SUBI":
		if len(operands) != 3 {
			return isa.Instruction{}, fmt.Errorf("%s expects rt, rs, imm", mnemonic)
		}
		rt, err := parseRegister(operands[0])
		if err != nil {
			return isa.Instruction{}, err
		}
		rs, err := parseRegister(operands[1])
		if err != nil {
			return isa.Instruction{}, err
		}
		imm, err := strconv.Atoi(operands[2])
		if err != nil {
			return isa.Instruction{}, fmt.Errorf("invalid immediate %q: %w", operands[2], err)
		}
		op := isa.ADDI
		if mnemonic == "SUBI" {
			op = isa.SUBI
		}
		return isa.Instruction{Op: op, Rt: rt, Rs: rs, Rd: isa.NoReg, Imm: imm}, nil

	case "LW", "SW":
		if len(operands) != 2 {
			return isa.Instruction{}, fmt.Errorf("%s expects rt, offset(rs)", mnemonic)
		}
		rt, err := parseRegister(operands[0])
		if err != nil {
			return isa.Instruction{}, err
		}
		offset, rs, err := parseMemOperand(operands[1])
		if err != nil {
			return isa.Instruction{}, err
		}
		op := isa.LW
		if mnemonic == "SW" {
			op = isa.SW
		}
		return isa.Instruction{Op: op, Rt: rt, Rs: rs, Rd: isa.NoReg, Imm: offset}, nil

	case "BEQZ", "BNEZ":
		if len(operands) != 2 {
			return isa.Instruction{}, fmt.Errorf("%s expects rs, target", mnemonic)
		}
		rs, err := parseRegister(operands[0])
		if err != nil {
			return isa.Instruction{}, err
		}
		imm, err := resolveTarget(operands[1], index, labels)
		if err != nil {
			return isa.Instruction{}, err
		}
		op := isa.BEQZ
		if mnemonic == "BNEZ" {
			op = isa.BNEZ
		}
		return isa.Instruction{Op: op, Rs: rs, Rt: isa.NoReg, Rd: isa.NoReg, Imm: imm}, nil

	case "J":
		if len(operands) != 1 {
			return isa.Instruction{}, fmt.Errorf("J expects a single target")
		}
		imm, err := resolveTarget(operands[0], index, labels)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.Instruction{Op: isa.J, Rs: isa.NoReg, Rt: isa.NoReg, Rd: isa.NoReg, Imm: imm}, nil

	default:
		return isa.Instruction{}, fmt.Errorf("unknown mnemonic %q", mnemonic)
	}
}

// resolveTarget turns a branch/jump operand, either a label or a literal
// signed offset, into the immediate pc_branch := imm + pc_next expects:
// label_address - (this_instruction_address + 1).
func resolveTarget(operand string, index int, labels map[string]int) (int, error) {
	if addr, ok := labels[operand]; ok {
		return addr - (index + 1), nil
	}

	imm, err := strconv.Atoi(operand)
	if err != nil {
		return 0, fmt.Errorf("target %q is neither a known label nor a literal offset", operand)
	}
	return imm, nil
}

// parseMemOperand parses the `offset(rs)` syntax LW/SW use.
func parseMemOperand(operand string) (offset, rs int, err error) {
	open := strings.Index(operand, "(")
	shut := strings.Index(operand, ")")
	if open < 0 || shut < open {
		return 0, 0, fmt.Errorf("malformed memory operand %q, want offset(Rn)", operand)
	}

	offsetStr := strings.TrimSpace(operand[:open])
	offset, err = strconv.Atoi(offsetStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid offset %q: %w", offsetStr, err)
	}

	rs, err = parseRegister(operand[open+1 : shut])
	if err != nil {
		return 0, 0, err
	}

	return offset, rs, nil
}

// parseRegister parses a register operand, accepting R0-R15 and the
// %-prefixed alias, both case-insensitively.
func parseRegister(tok string) (int, error) {
	tok = strings.TrimSpace(tok)
	tok = strings.TrimPrefix(tok, "%")
	upper := strings.ToUpper(tok)

	if !strings.HasPrefix(upper, "R") {
		return 0, fmt.Errorf("invalid register %q, want R0-R%d", tok, isa.RegisterCount-1)
	}

	n, err := strconv.Atoi(upper[1:])
	if err != nil || n < 0 || n >= isa.RegisterCount {
		return 0, fmt.Errorf("invalid register %q, want R0-R%d", tok, isa.RegisterCount-1)
	}

	return n, nil
}
