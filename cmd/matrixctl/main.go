// Command matrixctl validates decision matrix files and evaluates them
// against a baseline classification without a running server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "matrixctl",
		Short:         "Validate and dry-run decision matrices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", envOr("PATHFINDER_LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")

	root.AddCommand(newValidateCmd(), newEvaluateCmd())
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
