package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pablasso/codeteam/internal/plan"
)

// claudeResponse represents the JSON structure returned by Claude Code CLI
// when using --output-format json.
type claudeResponse struct {
	Type    string `json:"type"`
	Result  string `json:"result"`
	IsError bool   `json:"is_error"`
}

// CommandContext is the function used to create exec.Cmd instances.
// It can be replaced in tests to mock command execution.
var CommandContext = exec.CommandContext

// planDocsSeparator splits the two plan documents in one generation
// response.
const planDocsSeparator = "---_---"

// IsAvailable checks if the claude command exists in PATH.
func IsAvailable() bool {
	_, err := exec.LookPath("claude")
	return err == nil
}

// Claude drives the Claude Code CLI. It implements every collaborator
// interface in this package.
type Claude struct {
	Model string
	Dir   string
	// Out and Err receive the coder's streamed output. Default to the
	// process streams.
	Out io.Writer
	Err io.Writer
}

// NewClaude creates a Claude CLI client for the given model.
func NewClaude(model string) *Claude {
	return &Claude{Model: model, Out: os.Stdout, Err: os.Stderr}
}

// query runs a single non-interactive prompt and returns the result text.
func (c *Claude) query(ctx context.Context, prompt string) (string, error) {
	// --dangerously-skip-permissions is required for non-interactive use.
	cmd := CommandContext(ctx, "claude",
		"-p", prompt,
		"--model", c.Model,
		"--output-format", "json",
		"--dangerously-skip-permissions",
	)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("claude command failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("failed to execute claude command: %w", err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		// Not the JSON envelope; treat the raw output as the result.
		return strings.TrimSpace(string(output)), nil
	}
	if resp.IsError {
		return "", errors.New("claude returned an error: " + resp.Result)
	}
	return strings.TrimSpace(resp.Result), nil
}

// GeneratePlan drafts plan.yml and ACCEPTANCE_CRITERIA.md from the
// accumulated planning conversation. A malformed response yields empty
// docs, which the orchestrator treats as a generation failure.
func (c *Claude) GeneratePlan(ctx context.Context, conversation []string) (PlanDocs, error) {
	prompt := buildPlanPrompt(conversation)

	response, err := c.query(ctx, prompt)
	if err != nil {
		return PlanDocs{}, err
	}

	parts := strings.Split(response, planDocsSeparator)
	if len(parts) != 2 {
		return PlanDocs{}, nil
	}

	planYAML := extractCodeBlock(parts[0], "yaml")
	if planYAML == "" {
		planYAML = strings.TrimSpace(parts[0])
	}
	criteria := extractCodeBlock(parts[1], "markdown")
	if criteria == "" {
		criteria = strings.TrimSpace(parts[1])
	}

	return PlanDocs{PlanYAML: planYAML, AcceptanceCriteria: criteria}, nil
}

// GenerateInstructions produces the detailed coder payload for a task.
func (c *Claude) GenerateInstructions(ctx context.Context, task *plan.Task) (string, error) {
	prompt := fmt.Sprintf(`You are a technical lead preparing instructions for a coding agent.

Task ID: %s
Task description: %s

Write a detailed, self-contained instruction payload for implementing this
task in the current repository. Name the files likely to change, call out
edge cases, and state how the agent can verify its own work. Return only
the instructions, no preamble.`, task.ID, task.Description)

	return c.query(ctx, prompt)
}

// ApplyChange runs the coding agent against the working tree, streaming
// its output. Unlike query, the coder gets tool access and no output
// format, matching interactive agent behavior.
func (c *Claude) ApplyChange(ctx context.Context, instructions, feedback string) error {
	if feedback == "" {
		feedback = "No feedback from previous attempts."
	}
	prompt := fmt.Sprintf(`%s

## Feedback from previous attempts

%s

Implement the change now. Modify the working tree directly. Do NOT commit;
the orchestrator commits after the change passes review.`, instructions, feedback)

	cmd := CommandContext(ctx, "claude",
		"-p", prompt,
		"--model", c.Model,
		"--dangerously-skip-permissions",
	)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	cmd.Stdout = c.out()
	cmd.Stderr = c.err()

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("claude exited with error: %w", err)
	}
	return nil
}

// CommitMessage generates a conventional commit message for a completed
// task.
func (c *Claude) CommitMessage(ctx context.Context, task *plan.Task) (string, error) {
	prompt := fmt.Sprintf(`Generate a conventional commit message for the change currently staged in
this repository.

Task ID: %s
Task description: %s

Return only the commit message text, no code fences and no explanation.`, task.ID, task.Description)

	message, err := c.query(ctx, prompt)
	if err != nil {
		return "", err
	}
	if block := extractCodeBlock(message, ""); block != "" {
		message = block
	}
	return strings.TrimSpace(message), nil
}

// ReviewPlan runs a critique pass over a drafted plan.
func (c *Claude) ReviewPlan(ctx context.Context, planYAML, criteria string) (string, error) {
	prompt := fmt.Sprintf(`You are reviewing an implementation plan for flaws. Be critical: look for
missing dependencies between tasks, tasks too large to verify, and
acceptance criteria that cannot be checked.

## plan.yml

%s

## ACCEPTANCE_CRITERIA.md

%s

Return your feedback as a short markdown report.`, planYAML, criteria)

	return c.query(ctx, prompt)
}

// check runs the checker capability for one kind. The diff and task go
// out, a free-text report comes back verbatim.
func (c *Claude) check(ctx context.Context, kind string, task *plan.Task, diff string) (string, error) {
	prompt := fmt.Sprintf(`You are a %s reviewer. Review the following code changes made for task
'%s' (%s) and report problems relevant to your concern.

`+"```diff\n%s\n```"+`

Provide your verification report in a PASS/FAIL format with reasons.`,
		strings.ReplaceAll(kind, "_", " "), task.ID, task.Description, diff)

	return c.query(ctx, prompt)
}

func (c *Claude) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func (c *Claude) err() io.Writer {
	if c.Err != nil {
		return c.Err
	}
	return os.Stderr
}

func buildPlanPrompt(conversation []string) string {
	var sb strings.Builder
	sb.WriteString(`You are a technical project planner collaborating with a user on a
software-change plan. Here is the conversation so far:

`)
	sb.WriteString(strings.Join(conversation, "\n"))
	sb.WriteString(`

Generate the final plan as two documents.

First, the full content for plan.yml:

description: one sentence describing the overall goal
tasks:
  - id: short-stable-id
    description: what to change and why
    dependencies: [ids of tasks that must complete first]
    status: pending

Order tasks by implementation dependency; IDs must be unique and every
dependency must name a declared task. Then output the separator '` + planDocsSeparator + `'
on its own line, then the full content for ACCEPTANCE_CRITERIA.md
describing how the finished work will be judged. Output nothing else.`)
	return sb.String()
}

// extractCodeBlock extracts the content of the first fenced code block,
// preferring a language-tagged fence when language is non-empty.
func extractCodeBlock(text, language string) string {
	if language != "" {
		if block := fencedBlock(text, "```"+language); block != "" {
			return block
		}
	}
	return fencedBlock(text, "```")
}

func fencedBlock(text, fence string) string {
	start := strings.Index(text, fence+"\n")
	if start == -1 {
		return ""
	}
	rest := text[start+len(fence)+1:]
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
