// Package cli wires the cobra command surface to the orchestrator.
package cli

import (
	"github.com/spf13/cobra"
)

const workspaceDir = ".codeteam"

var rootCmd = &cobra.Command{
	Use:     "codeteam",
	Short:   "Plan and run multi-step software changes with an AI coding agent",
	Long:    `Codeteam coordinates a plan of dependent tasks through a generate, verify, review cycle with durable, resumable state on disk.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(codeCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
