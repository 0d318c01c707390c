// Command octue-service runs a Service Core as a standalone process,
// mainly for local development and connectivity checks against a real
// broker; applications embedding the runtime construct and serve their
// own Core directly instead of going through this binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "octue-service",
	Short: "Run Octue-style pub/sub analysis services",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
