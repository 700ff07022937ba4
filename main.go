// ABOUTME: Entry point for the academix CLI
// ABOUTME: Terminal client for the AcademiX student dashboard

package main

import (
	"os"

	"github.com/academix/academix-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(2)
	}
}
