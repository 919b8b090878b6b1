// Package main provides the entry point for dlxsim, a cycle-accurate
// simulator for a five-stage pipelined DLX processor.
//
// For the full CLI, use: go run ./cmd/dlxsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("dlxsim - DLX pipeline simulator")
	fmt.Println("")
	fmt.Println("Usage: dlxsim [-D] <program>")
	fmt.Println("")
	fmt.Println("Flags:")
	fmt.Println("  -D    output additional information about simulator state")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/dlxsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/dlxsim' instead.")
	}
}
