package orchestrator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DecisionKind classifies a verification-review decision.
type DecisionKind int

const (
	DecisionInvalid DecisionKind = iota
	DecisionAccept
	DecisionReject
)

// Decision is a parsed verification-review command.
type Decision struct {
	Kind     DecisionKind
	Feedback string
}

// ParseDecision parses a review-loop command. Valid forms are
// "/accept_changes" and "/reject_changes [feedback]"; anything else is
// invalid and must not be silently continued past.
func ParseDecision(input string) Decision {
	input = strings.TrimSpace(input)
	switch {
	case input == "/accept_changes":
		return Decision{Kind: DecisionAccept}
	case input == "/reject_changes":
		return Decision{Kind: DecisionReject}
	case strings.HasPrefix(input, "/reject_changes "):
		feedback := strings.TrimSpace(strings.TrimPrefix(input, "/reject_changes "))
		return Decision{Kind: DecisionReject, Feedback: feedback}
	default:
		return Decision{Kind: DecisionInvalid}
	}
}

// PlanCommandKind classifies a planning-review command.
type PlanCommandKind int

const (
	PlanInvalid PlanCommandKind = iota
	PlanAccept
	PlanRevise
	PlanVerify
)

// PlanCommand is a parsed planning-loop command.
type PlanCommand struct {
	Kind     PlanCommandKind
	Feedback string
}

// ParsePlanCommand parses a planning-loop command: "/accept_plan",
// "/revise_plan [feedback]" or "/verify_plan".
func ParsePlanCommand(input string) PlanCommand {
	input = strings.TrimSpace(input)
	switch {
	case input == "/accept_plan":
		return PlanCommand{Kind: PlanAccept}
	case input == "/verify_plan":
		return PlanCommand{Kind: PlanVerify}
	case input == "/revise_plan":
		return PlanCommand{Kind: PlanRevise}
	case strings.HasPrefix(input, "/revise_plan "):
		feedback := strings.TrimSpace(strings.TrimPrefix(input, "/revise_plan "))
		return PlanCommand{Kind: PlanRevise, Feedback: feedback}
	default:
		return PlanCommand{Kind: PlanInvalid}
	}
}

// Input supplies human decisions. Exactly one read is outstanding at a
// time, so a plain blocking reader is enough.
type Input interface {
	ReadLine(prompt string) (string, error)
}

// StdinInput reads decisions from an io.Reader, normally os.Stdin.
type StdinInput struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewStdinInput creates an Input over r, writing prompts to out. Nil
// arguments default to the process streams.
func NewStdinInput(r io.Reader, out io.Writer) *StdinInput {
	if r == nil {
		r = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &StdinInput{reader: bufio.NewReader(r), out: out}
}

// ReadLine prints the prompt and blocks for one line of input.
func (s *StdinInput) ReadLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
