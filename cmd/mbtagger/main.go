package main

import (
	"fmt"
	"os"

	"mbtagger/internal/services"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(services.ExitCode(err))
	}
}
