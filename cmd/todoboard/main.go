// cmd/todoboard/main.go
//
// Entry point for the todoboard CLI. Running `todoboard` with no
// subcommand opens the board TUI for the current directory.

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
