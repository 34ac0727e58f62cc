// Package main provides the entry point for arm7sim.
// arm7sim is an ARM7TDMI CPU core with a cycle-counting memory model, built
// on Akita.
//
// For the full CLI, use: go run ./cmd/arm7sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("arm7sim - ARM7TDMI CPU Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: arm7sim [options] <program.elf|image.bin>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -timing     Enable timing simulation mode")
	fmt.Println("  -config     Path to timing configuration JSON file")
	fmt.Println("  -v          Log verbosity")
	fmt.Println("  -max        Maximum instructions to execute")
	fmt.Println("  -base       Load address for raw images")
	fmt.Println("  -skip-bios  Start in the post-boot state")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/arm7sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/arm7sim' instead.")
	}
}
