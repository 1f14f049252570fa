// Package main provides the entry point for the Driftline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/driftline/driftline-go/cmd/driftline/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
