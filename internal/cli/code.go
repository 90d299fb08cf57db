package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pablasso/codeteam/internal/agent"
	"github.com/pablasso/codeteam/internal/config"
	"github.com/pablasso/codeteam/internal/display"
	"github.com/pablasso/codeteam/internal/git"
	"github.com/pablasso/codeteam/internal/orchestrator"
	"github.com/pablasso/codeteam/internal/plan"
)

var codeCmd = &cobra.Command{
	Use:   "code [plan_id]",
	Short: "Start or resume the coding loop",
	Long:  `Execute the tasks of an accepted plan through the generate, verify, review cycle. Resumes from persisted state after an interruption. Runs the most recent plan unless a plan ID is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCodePhase,
}

func runCodePhase(cmd *cobra.Command, args []string) error {
	if !agent.IsAvailable() {
		return fmt.Errorf("claude CLI not found in PATH")
	}

	// Task acceptance commits with `git add -A`, so pre-existing changes
	// would be swept into the first task's commit.
	if clean, err := git.IsClean(""); err == nil && !clean {
		fmt.Fprintln(cmd.OutOrStdout(), "Warning: working tree has uncommitted changes; they will be included in the next task commit.")
	}

	input := orchestrator.NewStdinInput(cmd.InOrStdin(), cmd.OutOrStdout())
	o, err := newOrchestrator(input)
	if err != nil {
		return err
	}

	var planID string
	if len(args) > 0 {
		planID = args[0]
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return o.CodePhase(ctx, planID)
}

// newOrchestrator assembles the orchestrator with the Claude collaborators
// and the workspace store.
func newOrchestrator(input orchestrator.Input) (*orchestrator.Orchestrator, error) {
	cfg, err := config.Load(filepath.Join(workspaceDir, config.DefaultFileName))
	if err != nil {
		return nil, err
	}

	claude := agent.NewClaude(cfg.Model)
	return orchestrator.New(orchestrator.Options{
		Store:     plan.NewStore(workspaceDir),
		Config:    cfg,
		Console:   display.New(nil),
		Input:     input,
		Planner:   claude,
		Prompter:  claude,
		Coder:     claude,
		Committer: claude,
		Reviewer:  claude,
		Checkers:  agent.Checkers(claude, cfg),
	}), nil
}
