// Package main is the entry point for wholesale-pricing CLI.
package main

import (
	"os"

	"wholesale-pricing/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
