// Package main provides the entry point for the ignr CLI.
package main

import (
	"os"

	"github.com/byteowlz/ignr/cmd/ignr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
