package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pablasso/codeteam/internal/agent"
	"github.com/pablasso/codeteam/internal/orchestrator"
)

var planCmd = &cobra.Command{
	Use:   "plan [request]",
	Short: "Start or resume the planning phase",
	Long:  `Draft a plan from a feature request, review it, and accept it. Prompts for the request interactively when none is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlanPhase,
}

func runPlanPhase(cmd *cobra.Command, args []string) error {
	input := orchestrator.NewStdinInput(cmd.InOrStdin(), cmd.OutOrStdout())

	var request string
	if len(args) > 0 {
		request = strings.TrimSpace(args[0])
	}
	if request == "" {
		line, err := input.ReadLine("Enter your request: ")
		if err != nil {
			return err
		}
		request = line
	}
	if request == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No request provided. Exiting.")
		return nil
	}

	if !agent.IsAvailable() {
		return fmt.Errorf("claude CLI not found in PATH")
	}

	o, err := newOrchestrator(input)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return o.PlanPhase(ctx, request)
}
