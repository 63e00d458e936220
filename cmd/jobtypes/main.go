package main

// ============================================================================
// jobtypes entry point: builds the CLI and exits non-zero on error
// ============================================================================

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/jobtypes/internal/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := cli.BuildCLI().Execute(); err != nil {
		os.Exit(1)
	}
}
