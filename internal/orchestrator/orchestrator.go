// Package orchestrator is the top-level driver for the plan/code workflow.
// It composes the scheduler, the task execution state machine, the
// verification aggregator and the plan store, and is the only component
// allowed to set the halted-for-error state.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/pablasso/codeteam/internal/agent"
	"github.com/pablasso/codeteam/internal/config"
	"github.com/pablasso/codeteam/internal/display"
	"github.com/pablasso/codeteam/internal/plan"
	"github.com/pablasso/codeteam/internal/verify"
)

// Orchestrator owns the two workflow phases and their shared state.
type Orchestrator struct {
	store     *plan.Store
	cfg       *config.Config
	console   *display.Console
	input     Input
	planner   agent.Planner
	prompter  agent.Prompter
	coder     agent.Coder
	committer agent.Committer
	reviewer  agent.PlanReviewer
	checkers  []verify.Checker
	dir       string
	state     State

	// test seams for the task runner
	diffFn   func(dir string) (string, error)
	commitFn func(dir, message string) error
}

// Options configures an Orchestrator.
type Options struct {
	Store     *plan.Store
	Config    *config.Config
	Console   *display.Console
	Input     Input
	Planner   agent.Planner
	Prompter  agent.Prompter
	Coder     agent.Coder
	Committer agent.Committer
	Reviewer  agent.PlanReviewer
	Checkers  []verify.Checker
	Dir       string

	// Diff and Commit override the git CLI. Tests only.
	Diff   func(dir string) (string, error)
	Commit func(dir, message string) error
}

// New creates an orchestrator in the idle state.
func New(opts Options) *Orchestrator {
	if opts.Console == nil {
		opts.Console = display.New(nil)
	}
	return &Orchestrator{
		store:     opts.Store,
		cfg:       opts.Config,
		console:   opts.Console,
		input:     opts.Input,
		planner:   opts.Planner,
		prompter:  opts.Prompter,
		coder:     opts.Coder,
		committer: opts.Committer,
		reviewer:  opts.Reviewer,
		checkers:  opts.Checkers,
		dir:       opts.Dir,
		diffFn:    opts.Diff,
		commitFn:  opts.Commit,
		state:     StateIdle,
	}
}

// State returns the current macro-phase.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.state = s
}

// halt records a fatal, cross-cutting failure. Only this method sets
// StateHaltedForError.
func (o *Orchestrator) halt(format string, args ...any) error {
	o.setState(StateHaltedForError)
	err := fmt.Errorf(format, args...)
	o.console.Error("%v", err)
	return err
}

// PlanPhase drafts a plan from the initial request and loops until the
// user accepts it, asks for a revision, or the drafting collaborator
// fails.
func (o *Orchestrator) PlanPhase(ctx context.Context, request string) error {
	o.setState(StatePlanDrafting)
	conversation := []string{"User request: " + request}

	docs, err := o.planner.GeneratePlan(ctx, conversation)
	if err != nil {
		return o.halt("plan generation failed: %v", err)
	}
	if docs.Empty() {
		return o.halt("planner produced no plan documents")
	}

	planID, err := o.store.NextPlanID()
	if err != nil {
		return o.halt("%v", err)
	}
	if err := o.store.CreatePlan(planID, docs.PlanYAML, docs.AcceptanceCriteria); err != nil {
		return o.halt("%v", err)
	}

	progress := plan.NewProgressLogger(o.store.PlanDir(planID))
	progress.Log(plan.EventPlanCreated, map[string]any{"plan_id": planID})

	o.console.Banner("Plan '%s' created in %s", planID, o.store.PlanDir(planID))

	o.setState(StatePlanAwaitingReview)
	for {
		o.console.Hint("Review the plan. Type '/accept_plan', '/revise_plan [feedback]' or '/verify_plan'.")
		line, err := o.input.ReadLine("> ")
		if err != nil {
			return o.halt("failed to read command: %v", err)
		}

		cmd := ParsePlanCommand(line)
		switch cmd.Kind {
		case PlanAccept:
			progress.Log(plan.EventPlanAccepted, map[string]any{"plan_id": planID})
			o.console.Success("Plan accepted. Run 'codeteam code' to start the coding phase.")
			o.setState(StateIdle)
			return nil

		case PlanVerify:
			o.setState(StatePlanVerifying)
			feedback, err := o.reviewer.ReviewPlan(ctx, docs.PlanYAML, docs.AcceptanceCriteria)
			if err != nil {
				return o.halt("plan review failed: %v", err)
			}
			if err := o.store.WriteFeedback(planID, feedback); err != nil {
				return o.halt("%v", err)
			}
			o.console.Banner("Plan Verification Feedback")
			o.console.Report(feedback)
			o.setState(StatePlanAwaitingReview)

		case PlanRevise:
			o.setState(StatePlanDrafting)
			if cmd.Feedback != "" {
				conversation = append(conversation, "User feedback: "+cmd.Feedback)
			}
			docs, err = o.planner.GeneratePlan(ctx, conversation)
			if err != nil {
				return o.halt("plan generation failed: %v", err)
			}
			if docs.Empty() {
				return o.halt("planner produced no plan documents")
			}
			if err := o.store.WritePlanDocs(planID, docs.PlanYAML, docs.AcceptanceCriteria); err != nil {
				return o.halt("%v", err)
			}
			progress.Log(plan.EventPlanRevised, map[string]any{"plan_id": planID})
			o.console.Info("Plan revised.")
			o.setState(StatePlanAwaitingReview)

		default:
			o.console.Hint("Invalid command.")
		}
	}
}

// CodePhase runs the coding loop over the given plan, or the most recently
// modified plan when planID is empty. It repeats select → execute → reload
// until the plan completes, blocks, or a fatal failure halts it.
func (o *Orchestrator) CodePhase(ctx context.Context, planID string) error {
	var p *plan.Plan
	var err error
	if planID == "" {
		p, err = o.store.LoadLatest()
	} else {
		p, err = o.store.Load(planID)
	}
	if err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			o.console.Info("No active plan found. Run 'codeteam plan' first.")
			return nil
		}
		return o.halt("%v", err)
	}

	planDir := o.store.PlanDir(p.PlanID)
	lock := plan.NewLock(planDir)
	if err := lock.Acquire(); err != nil {
		return o.halt("%v", err)
	}
	defer lock.Release()

	progress := plan.NewProgressLogger(planDir)
	runner := &TaskRunner{
		Store:     o.store,
		Prompter:  o.prompter,
		Coder:     o.coder,
		Committer: o.committer,
		Aggregator: &verify.Aggregator{
			Commands: o.cfg.Verification.Commands,
			Checkers: o.checkers,
			Dir:      o.dir,
			Timeout:  o.cfg.CommandTimeout(),
		},
		Input:       o.input,
		Console:     o.console,
		Progress:    progress,
		MaxAttempts: o.cfg.MaxAttempts,
		Dir:         o.dir,
		SetState:    o.setState,
		Diff:        o.diffFn,
		Commit:      o.commitFn,
	}

	for {
		o.setState(StateCodingAwaitingTaskSelection)
		taskID, result := plan.SelectNext(p)

		switch result {
		case plan.PlanComplete:
			o.setState(StatePlanComplete)
			progress.PlanComplete(len(p.Tasks), p.Completed())
			o.console.Success("Plan complete! %d/%d tasks finished.", p.Completed(), len(p.Tasks))
			return nil

		case plan.PlanBlocked:
			o.setState(StatePlanComplete)
			blocked := plan.Blocked(p)
			progress.PlanBlocked(blocked)
			o.console.Error("Plan is blocked: tasks %v are stuck behind failed dependencies.", blocked)
			o.console.Info("Fix the failed tasks and rerun 'codeteam code'.")
			return nil
		}

		task := p.Task(taskID)
		if task == nil {
			// The scheduler only returns IDs from the plan it scanned, so a
			// miss here means the in-memory plan diverged from the store.
			return o.halt("task %q selected but not present in plan %q", taskID, p.PlanID)
		}

		if _, err := runner.Execute(ctx, p, task); err != nil {
			if ctx.Err() != nil {
				o.console.Info("Interrupted. The last persisted state is authoritative; rerun 'codeteam code' to resume.")
				return nil
			}
			if errors.Is(err, ErrInvalidDecision) {
				// Local user-input error: abort this cycle without touching
				// status and let the user rerun the review.
				o.console.Error("%v", err)
				o.console.Info("Task status unchanged. Rerun 'codeteam code' to retry the review.")
				return nil
			}
			progress.Log(plan.EventHaltedForError, map[string]any{
				"task_id": task.ID,
				"error":   err.Error(),
			})
			return o.halt("%v", err)
		}

		// Reload so out-of-process plan edits are picked up before the next
		// selection.
		p, err = o.store.Load(p.PlanID)
		if err != nil {
			return o.halt("%v", err)
		}
	}
}
