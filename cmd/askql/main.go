// Package main provides the askql command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/askql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
