// cmd/careerflow/main.go
//
// This is the entry point for the careerflow CLI.
// Run `careerflow board` from a project directory to open the kanban board;
// the other subcommands edit the same job store from the shell.

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
