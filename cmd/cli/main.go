// Package main - Entry point for the saas-benchmark CLI
package main

import (
	"fmt"
	"os"

	"saas-benchmark/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
