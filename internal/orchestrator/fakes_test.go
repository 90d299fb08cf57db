package orchestrator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pablasso/codeteam/internal/agent"
	"github.com/pablasso/codeteam/internal/display"
	"github.com/pablasso/codeteam/internal/plan"
	"github.com/pablasso/codeteam/internal/verify"
)

type fakePrompter struct {
	calls int
}

func (f *fakePrompter) GenerateInstructions(ctx context.Context, task *plan.Task) (string, error) {
	f.calls++
	return fmt.Sprintf("instructions for %s", task.ID), nil
}

// fakeCoder records the feedback passed to every attempt.
type fakeCoder struct {
	feedbacks []string
}

func (f *fakeCoder) ApplyChange(ctx context.Context, instructions, feedback string) error {
	f.feedbacks = append(f.feedbacks, feedback)
	return nil
}

type fakeCommitter struct{}

func (f *fakeCommitter) CommitMessage(ctx context.Context, task *plan.Task) (string, error) {
	return "chore: complete " + task.ID, nil
}

// fakePlanner returns its queued docs in order, repeating the last one.
type fakePlanner struct {
	docs  []agent.PlanDocs
	err   error
	calls int
}

func (f *fakePlanner) GeneratePlan(ctx context.Context, conversation []string) (agent.PlanDocs, error) {
	f.calls++
	if f.err != nil {
		return agent.PlanDocs{}, f.err
	}
	if len(f.docs) == 0 {
		return agent.PlanDocs{}, nil
	}
	docs := f.docs[0]
	if len(f.docs) > 1 {
		f.docs = f.docs[1:]
	}
	return docs, nil
}

type fakeReviewer struct {
	feedback string
}

func (f *fakeReviewer) ReviewPlan(ctx context.Context, planYAML, criteria string) (string, error) {
	return f.feedback, nil
}

// scriptInput replays a fixed sequence of lines.
type scriptInput struct {
	lines []string
	next  int
}

func (s *scriptInput) ReadLine(prompt string) (string, error) {
	if s.next >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.next]
	s.next++
	return line, nil
}

// seedPlan persists a plan document and returns the loaded plan.
func seedPlan(t *testing.T, store *plan.Store, tasks []plan.Task) *plan.Plan {
	t.Helper()
	require.NoError(t, store.CreatePlan("plan-0001", "description: seeded\n", "criteria"))
	p := &plan.Plan{PlanID: "plan-0001", Description: "seeded", Tasks: tasks}
	require.NoError(t, store.Save(p))
	loaded, err := store.Load("plan-0001")
	require.NoError(t, err)
	return loaded
}

func newTestStore(t *testing.T) *plan.Store {
	t.Helper()
	return plan.NewStore(filepath.Join(t.TempDir(), ".codeteam"))
}

// newTestRunner wires a TaskRunner with fakes and no-op git seams.
func newTestRunner(store *plan.Store, input Input, coder *fakeCoder, commits *int) *TaskRunner {
	return &TaskRunner{
		Store:       store,
		Prompter:    &fakePrompter{},
		Coder:       coder,
		Committer:   &fakeCommitter{},
		Aggregator:  &verify.Aggregator{},
		Input:       input,
		Console:     display.New(io.Discard),
		Progress:    plan.NewProgressLogger(store.PlanDir("plan-0001")),
		MaxAttempts: 3,
		Diff: func(dir string) (string, error) {
			return "diff --git a/file b/file", nil
		},
		Commit: func(dir, message string) error {
			if commits != nil {
				*commits++
			}
			return nil
		},
	}
}
