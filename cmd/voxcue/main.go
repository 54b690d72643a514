// Package main provides the entry point for the voxcue CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/voxcue/voxcue/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
