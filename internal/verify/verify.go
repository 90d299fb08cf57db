// Package verify runs configured shell commands and checker capabilities
// against a change-set and merges their results into one report.
package verify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pablasso/codeteam/internal/config"
	"github.com/pablasso/codeteam/internal/plan"
)

// CommandContext is the function used to create exec.Cmd instances.
// It can be replaced in tests to mock command execution.
var CommandContext = exec.CommandContext

// SectionKind distinguishes automated-command results from checker results.
type SectionKind string

const (
	KindCommand SectionKind = "command"
	KindChecker SectionKind = "checker"
)

// Section status constants.
const (
	StatusPass  = "PASS"
	StatusFail  = "FAIL"
	StatusError = "ERROR"
	StatusInfo  = "INFO"
)

// Section is one independently attributable result in a report. The name
// in the header lets a reviewer or a later attempt tell which check
// produced which verdict.
type Section struct {
	Name   string
	Kind   SectionKind
	Status string
	Body   string
}

// Report is the merged output of all commands and checkers for one attempt.
type Report struct {
	Sections []Section
}

// Passed reports whether every command section passed. Checker sections are
// free text and carry no machine verdict.
func (r *Report) Passed() bool {
	for _, s := range r.Sections {
		if s.Kind == KindCommand && s.Status != StatusPass {
			return false
		}
	}
	return true
}

// Render produces the persisted markdown form of the report.
func (r *Report) Render() string {
	var sb strings.Builder
	for i, s := range r.Sections {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		switch s.Kind {
		case KindCommand:
			sb.WriteString(fmt.Sprintf("## Command: %s — %s\n", s.Name, s.Status))
		default:
			sb.WriteString(fmt.Sprintf("## Checker: %s\n", s.Name))
		}
		if s.Body != "" {
			sb.WriteString("\n")
			sb.WriteString(s.Body)
			if !strings.HasSuffix(s.Body, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// Checker is an external capability producing a free-text assessment of a
// change-set against one concern.
type Checker interface {
	Name() string
	Check(ctx context.Context, task *plan.Task, diff string) (string, error)
}

// Aggregator runs the configured commands and checkers. It holds no state
// between calls; each Run is a function of its inputs plus the current
// working tree.
type Aggregator struct {
	Commands []config.Command
	Checkers []Checker
	Dir      string

	// Timeout bounds each command run. Zero means no bound.
	Timeout time.Duration
}

// Run executes every configured command and checker against the change-set
// and merges the results: command sections first, then checker sections, in
// configuration order. A tool's infrastructure failure becomes an ERROR
// section instead of aborting the pipeline.
func (a *Aggregator) Run(ctx context.Context, task *plan.Task, diff string) *Report {
	report := &Report{}

	for _, c := range a.Commands {
		report.Sections = append(report.Sections, a.runCommand(ctx, c))
	}

	for _, checker := range a.Checkers {
		body, err := checker.Check(ctx, task, diff)
		if err != nil {
			report.Sections = append(report.Sections, Section{
				Name:   checker.Name(),
				Kind:   KindChecker,
				Status: StatusError,
				Body:   fmt.Sprintf("checker failed: %v", err),
			})
			continue
		}
		report.Sections = append(report.Sections, Section{
			Name:   checker.Name(),
			Kind:   KindChecker,
			Status: StatusInfo,
			Body:   body,
		})
	}

	return report
}

// runCommand executes one verification command with the working tree as
// context. PASS iff the exit code is zero; FAIL attaches the combined
// output verbatim.
func (a *Aggregator) runCommand(ctx context.Context, c config.Command) Section {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	cmd := CommandContext(ctx, "bash", "-c", c.Command)
	if a.Dir != "" {
		cmd.Dir = a.Dir
	}

	output, err := cmd.CombinedOutput()
	if err == nil {
		return Section{Name: c.Name, Kind: KindCommand, Status: StatusPass}
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Section{
			Name:   c.Name,
			Kind:   KindCommand,
			Status: StatusError,
			Body:   fmt.Sprintf("command timed out after %s", a.Timeout),
		}
	}

	if _, isExit := err.(*exec.ExitError); isExit {
		return Section{
			Name:   c.Name,
			Kind:   KindCommand,
			Status: StatusFail,
			Body:   string(output),
		}
	}

	// Could not execute at all (binary missing, context cancelled, ...).
	return Section{
		Name:   c.Name,
		Kind:   KindCommand,
		Status: StatusError,
		Body:   fmt.Sprintf("failed to execute %q: %v", c.Command, err),
	}
}
