// Package main provides the lineal command-line interface.
package main

import (
	"os"

	"github.com/lineal-labs/lineal/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
