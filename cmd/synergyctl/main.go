// Package main is the entry point for the synergyctl admin tool.
package main

import (
	"os"

	"github.com/good-yellow-bee/synergy/cmd/synergyctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
