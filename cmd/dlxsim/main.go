// Package main provides the command-line driver for dlxsim, a
// cycle-accurate simulator for a five-stage pipelined DLX processor.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/dlxsim/asm"
	"github.com/sarchlab/dlxsim/debugdump"
	"github.com/sarchlab/dlxsim/machine"
	"github.com/sarchlab/dlxsim/pipeline"
)

var debug = flag.Bool("D", false, "output additional information about simulator state")

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: dlxsim [-D] [program]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		os.Exit(0)
	}

	os.Exit(run(flag.Arg(0), *debug, os.Stdout))
}

func run(programPath string, debug bool, out *os.File) int {
	prog, err := asm.Assemble(programPath)
	if err != nil {
		fmt.Fprintf(out, "Error assembling program: %v\n", err)
		return 0
	}

	regFile := &machine.RegisterFile{}
	mem := machine.NewMemory()
	mem.LoadImage(prog.Data)

	state := pipeline.NewState(prog.Instructions, prog.InstructionCount)
	pipe := pipeline.NewPipeline(state, regFile, mem)

	runErr := pipe.Run()

	var fatal *pipeline.FatalError
	if errors.As(runErr, &fatal) {
		fmt.Fprintln(out, fatal.Error())
		return int(fatal.Code)
	}

	var runaway *pipeline.RunawayError
	if errors.As(runErr, &runaway) {
		fmt.Fprintf(out, "\n\n *** Runaway program? (Program halted.) ***\n\n")
	}

	printResults(out, debug, state, regFile, mem)

	return 0
}

func printResults(out *os.File, debug bool, state *pipeline.State, regFile *machine.RegisterFile, mem *machine.Memory) {
	if debug {
		fmt.Fprintln(out, "Registers:")
		fmt.Fprint(out, debugdump.FormatRegistersRows(regFile.Snapshot()))
		fmt.Fprintln(out, "Memory:")
		fmt.Fprint(out, debugdump.FormatMemory(mem.Snapshot()))
		fmt.Fprintf(out, "Instructions: %d\n", state.InstructionsExecuted())
		fmt.Fprintf(out, "Cycles: %d\n", state.Cycles())
		return
	}

	fmt.Fprintln(out, "Final register file values:")
	fmt.Fprint(out, debugdump.FormatRegistersColumns(regFile.Snapshot()))
	fmt.Fprintf(out, "\nCycles executed: %d\n", state.Cycles())

	ipc := float64(state.InstructionsExecuted()) / float64(state.Cycles())
	fmt.Fprintf(out, "IPC:  %6.3f\n", ipc)
	fmt.Fprintf(out, "CPI:  %6.3f\n", 1/ipc)
}
