// Package agent defines the text-generation collaborators the workflow
// consumes, and a Claude Code CLI implementation of them. The orchestrator
// only ever sees these interfaces.
package agent

import (
	"context"

	"github.com/pablasso/codeteam/internal/plan"
)

// PlanDocs is the output of a plan generation pass. Both fields empty
// signals a generation failure to the orchestrator.
type PlanDocs struct {
	PlanYAML           string
	AcceptanceCriteria string
}

// Empty reports whether generation produced nothing usable.
func (d PlanDocs) Empty() bool {
	return d.PlanYAML == "" && d.AcceptanceCriteria == ""
}

// Planner drafts a plan document from an accumulated conversation.
type Planner interface {
	GeneratePlan(ctx context.Context, conversation []string) (PlanDocs, error)
}

// Prompter turns a task into a detailed instruction payload for the coder.
type Prompter interface {
	GenerateInstructions(ctx context.Context, task *plan.Task) (string, error)
}

// Coder applies a code change to the working tree. Feedback from previous
// rejected attempts is passed along so later attempts see the full history.
type Coder interface {
	ApplyChange(ctx context.Context, instructions, feedback string) error
}

// Committer generates a commit message for a completed task.
type Committer interface {
	CommitMessage(ctx context.Context, task *plan.Task) (string, error)
}

// PlanReviewer critiques a drafted plan. The feedback is persisted
// alongside the plan but never blocks acceptance.
type PlanReviewer interface {
	ReviewPlan(ctx context.Context, planYAML, criteria string) (string, error)
}
