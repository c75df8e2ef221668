// Package main is the entry point for the HiveBridge CLI.
package main

import (
	"os"

	"github.com/hivebridge-io/hivebridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
