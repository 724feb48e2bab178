package main

import (
	"fmt"
	"os"

	"github.com/flowline-dev/flowline/internal/cli"
)

// Version information (injected via ldflags at build time)
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	root := cli.NewRootCommand(version, commit)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
