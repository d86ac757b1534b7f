package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), err)
		os.Exit(1)
	}
}
