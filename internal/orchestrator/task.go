package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/pablasso/codeteam/internal/agent"
	"github.com/pablasso/codeteam/internal/display"
	"github.com/pablasso/codeteam/internal/git"
	"github.com/pablasso/codeteam/internal/plan"
	"github.com/pablasso/codeteam/internal/verify"
)

// ErrInvalidDecision means the review step received an unrecognized
// command. The task cycle aborts without touching task status; the caller
// must retry the review rather than silently continue.
var ErrInvalidDecision = errors.New("unrecognized review decision")

// Outcome is the terminal result of one task execution.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeFailed
)

// TaskRunner drives a single task through its prompt, code, verify, review
// and commit-or-retry cycle, bounded by MaxAttempts.
type TaskRunner struct {
	Store       *plan.Store
	Prompter    agent.Prompter
	Coder       agent.Coder
	Committer   agent.Committer
	Aggregator  *verify.Aggregator
	Input       Input
	Console     *display.Console
	Progress    *plan.ProgressLogger
	MaxAttempts int
	Dir         string

	// SetState threads the orchestrator's macro state through the cycle.
	// Optional.
	SetState func(State)

	// Diff and Commit default to the git CLI; tests swap them out.
	Diff   func(dir string) (string, error)
	Commit func(dir, message string) error
}

func (r *TaskRunner) setState(s State) {
	if r.SetState != nil {
		r.SetState(s)
	}
}

func (r *TaskRunner) diff() (string, error) {
	if r.Diff != nil {
		return r.Diff(r.Dir)
	}
	return git.Diff(r.Dir)
}

func (r *TaskRunner) commit(message string) error {
	if r.Commit != nil {
		return r.Commit(r.Dir, message)
	}
	return git.CommitAll(r.Dir, message)
}

// Execute runs the full lifecycle for one task. The plan is persisted
// synchronously after every status mutation, so an interrupt at any
// suspension point leaves the last-saved state authoritative.
//
// A pre-existing report for the task seeds the first attempt's feedback,
// which preserves continuity when a run was interrupted mid-task.
func (r *TaskRunner) Execute(ctx context.Context, p *plan.Plan, task *plan.Task) (Outcome, error) {
	feedback, _, err := r.Store.ReadReport(p.PlanID, task.ID)
	if err != nil {
		return OutcomeFailed, err
	}

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return OutcomeFailed, ctx.Err()
		}

		r.Console.Banner("Task %s [attempt %d/%d]", task.ID, attempt, r.MaxAttempts)
		if err := r.Progress.TaskStarted(task.ID, attempt); err != nil {
			return OutcomeFailed, fmt.Errorf("failed to log task started: %w", err)
		}

		r.setState(StateCodingPrompting)
		instructions, err := r.Prompter.GenerateInstructions(ctx, task)
		if err != nil {
			return OutcomeFailed, fmt.Errorf("instruction generation failed: %w", err)
		}

		r.setState(StateCodingInProgress)
		if err := r.Coder.ApplyChange(ctx, instructions, feedback); err != nil {
			return OutcomeFailed, fmt.Errorf("code change failed: %w", err)
		}

		r.setState(StateVerifying)
		diff, err := r.diff()
		if err != nil {
			return OutcomeFailed, fmt.Errorf("failed to compute change-set: %w", err)
		}
		report := r.Aggregator.Run(ctx, task, diff)
		rendered := report.Render()
		if err := r.Store.WriteReport(p.PlanID, task.ID, rendered); err != nil {
			return OutcomeFailed, err
		}

		r.setState(StateAwaitingVerificationReview)
		r.Console.Report(rendered)
		r.Console.Hint("Review the changes. Type '/accept_changes' or '/reject_changes [feedback]'.")

		line, err := r.Input.ReadLine("> ")
		if err != nil {
			return OutcomeFailed, fmt.Errorf("failed to read decision: %w", err)
		}

		decision := ParseDecision(line)
		switch decision.Kind {
		case DecisionAccept:
			if err := r.acceptTask(ctx, p, task, attempt); err != nil {
				return OutcomeFailed, err
			}
			return OutcomeCompleted, nil

		case DecisionReject:
			r.Progress.ChangesRejected(task.ID, attempt, decision.Feedback)
			note := fmt.Sprintf("\n## Reviewer Feedback (attempt %d)\n\n%s\n", attempt, decision.Feedback)
			if err := r.Store.AppendReport(p.PlanID, task.ID, note); err != nil {
				return OutcomeFailed, err
			}
			// Feed the whole accumulated report forward so later attempts
			// see every earlier rejection, in order.
			feedback, _, err = r.Store.ReadReport(p.PlanID, task.ID)
			if err != nil {
				return OutcomeFailed, err
			}
			r.Console.Info("Changes rejected. Retrying with accumulated feedback.")

		default:
			return OutcomeFailed, fmt.Errorf("%w: %q", ErrInvalidDecision, line)
		}
	}

	// Exhausted the attempt budget without an acceptance. The report stays
	// on disk for whoever picks the task up.
	task.Status = plan.TaskStatusFailed
	if err := r.Store.Save(p); err != nil {
		return OutcomeFailed, err
	}
	r.Progress.TaskFailed(task.ID, r.MaxAttempts)
	r.Console.Error("Task %s failed after %d attempts. Manual intervention needed.", task.ID, r.MaxAttempts)
	return OutcomeFailed, nil
}

// acceptTask commits the change and finalizes the task: status completed,
// report deleted, plan persisted.
func (r *TaskRunner) acceptTask(ctx context.Context, p *plan.Plan, task *plan.Task, attempt int) error {
	r.setState(StateCommitting)
	message, err := r.Committer.CommitMessage(ctx, task)
	if err != nil {
		return fmt.Errorf("commit message generation failed: %w", err)
	}
	if err := r.commit(message); err != nil {
		// No retry. The working tree state after a failed commit is unknown.
		return err
	}

	task.Status = plan.TaskStatusCompleted
	if err := r.Store.DeleteReport(p.PlanID, task.ID); err != nil {
		return err
	}
	if err := r.Store.Save(p); err != nil {
		return err
	}

	r.Progress.ChangesAccepted(task.ID, attempt)
	r.Progress.TaskCompleted(task.ID)
	r.Console.Success("Task %s committed.", task.ID)
	return nil
}
