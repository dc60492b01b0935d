// Package main provides the entry point for the codeturtle CLI.
package main

import (
	"os"

	"github.com/codeturtle/codeturtle/cmd/codeturtle/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
