package main

import (
	"fmt"
	"os"
)

// main wires high-level dependencies through cobra. Business logic lives in
// internal packages.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "inheritx:", err)
		os.Exit(1)
	}
}
