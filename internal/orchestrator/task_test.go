package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablasso/codeteam/internal/plan"
)

func TestExecuteAcceptPath(t *testing.T) {
	store := newTestStore(t)
	p := seedPlan(t, store, []plan.Task{{ID: "a", Description: "first", Status: plan.TaskStatusPending}})

	commits := 0
	coder := &fakeCoder{}
	runner := newTestRunner(store, &scriptInput{lines: []string{"/accept_changes"}}, coder, &commits)

	outcome, err := runner.Execute(context.Background(), p, p.Task("a"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
	assert.Equal(t, 1, commits)

	// Status persisted and report gone.
	reloaded, err := store.Load("plan-0001")
	require.NoError(t, err)
	assert.Equal(t, plan.TaskStatusCompleted, reloaded.Task("a").Status)

	_, exists, err := store.ReadReport("plan-0001", "a")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExecuteFeedbackAccumulates(t *testing.T) {
	store := newTestStore(t)
	p := seedPlan(t, store, []plan.Task{{ID: "a", Status: plan.TaskStatusPending}})

	coder := &fakeCoder{}
	input := &scriptInput{lines: []string{
		"/reject_changes A",
		"/reject_changes B",
		"/accept_changes",
	}}
	runner := newTestRunner(store, input, coder, nil)

	outcome, err := runner.Execute(context.Background(), p, p.Task("a"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)

	require.Len(t, coder.feedbacks, 3)
	assert.Empty(t, coder.feedbacks[0])
	assert.Contains(t, coder.feedbacks[1], "A")

	// The third attempt sees both rejections, in order.
	third := coder.feedbacks[2]
	idxA := strings.Index(third, "A")
	idxB := strings.Index(third, "B")
	require.GreaterOrEqual(t, idxA, 0)
	require.GreaterOrEqual(t, idxB, 0)
	assert.Less(t, idxA, idxB)
	assert.Contains(t, third, "attempt 1")
	assert.Contains(t, third, "attempt 2")
}

func TestExecuteAttemptBound(t *testing.T) {
	store := newTestStore(t)
	p := seedPlan(t, store, []plan.Task{{ID: "a", Status: plan.TaskStatusPending}})

	commits := 0
	coder := &fakeCoder{}
	input := &scriptInput{lines: []string{
		"/reject_changes no",
		"/reject_changes still no",
		"/reject_changes give up",
	}}
	runner := newTestRunner(store, input, coder, &commits)

	outcome, err := runner.Execute(context.Background(), p, p.Task("a"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Len(t, coder.feedbacks, 3)
	assert.Zero(t, commits)

	reloaded, err := store.Load("plan-0001")
	require.NoError(t, err)
	assert.Equal(t, plan.TaskStatusFailed, reloaded.Task("a").Status)

	// The report was never accepted, so it is retained for the operator.
	content, exists, err := store.ReadReport("plan-0001", "a")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Contains(t, content, "give up")
}

func TestExecuteInvalidDecisionAborts(t *testing.T) {
	store := newTestStore(t)
	p := seedPlan(t, store, []plan.Task{{ID: "a", Status: plan.TaskStatusPending}})

	runner := newTestRunner(store, &scriptInput{lines: []string{"looks good to me"}}, &fakeCoder{}, nil)

	_, err := runner.Execute(context.Background(), p, p.Task("a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDecision)

	// Status untouched, on disk and in memory.
	assert.Equal(t, plan.TaskStatusPending, p.Task("a").Status)
	reloaded, err := store.Load("plan-0001")
	require.NoError(t, err)
	assert.Equal(t, plan.TaskStatusPending, reloaded.Task("a").Status)
}

func TestExecuteResumeSeedsFeedback(t *testing.T) {
	store := newTestStore(t)
	p := seedPlan(t, store, []plan.Task{{ID: "a", Status: plan.TaskStatusPending}})

	// A report left behind by an interrupted run.
	require.NoError(t, store.WriteReport("plan-0001", "a", "## Reviewer Feedback (attempt 1)\n\nearlier feedback\n"))

	coder := &fakeCoder{}
	runner := newTestRunner(store, &scriptInput{lines: []string{"/accept_changes"}}, coder, nil)

	_, err := runner.Execute(context.Background(), p, p.Task("a"))
	require.NoError(t, err)

	require.NotEmpty(t, coder.feedbacks)
	assert.Contains(t, coder.feedbacks[0], "earlier feedback")
}

func TestExecuteCommitFailureIsFatal(t *testing.T) {
	store := newTestStore(t)
	p := seedPlan(t, store, []plan.Task{{ID: "a", Status: plan.TaskStatusPending}})

	runner := newTestRunner(store, &scriptInput{lines: []string{"/accept_changes"}}, &fakeCoder{}, nil)
	runner.Commit = func(dir, message string) error {
		return errors.New("git commit failed: dirty index")
	}

	_, err := runner.Execute(context.Background(), p, p.Task("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git commit failed")

	// Never marked completed and the report survives for repair.
	reloaded, err := store.Load("plan-0001")
	require.NoError(t, err)
	assert.Equal(t, plan.TaskStatusPending, reloaded.Task("a").Status)
	_, exists, err := store.ReadReport("plan-0001", "a")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExecuteCancelledContext(t *testing.T) {
	store := newTestStore(t)
	p := seedPlan(t, store, []plan.Task{{ID: "a", Status: plan.TaskStatusPending}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newTestRunner(store, &scriptInput{}, &fakeCoder{}, nil)
	_, err := runner.Execute(ctx, p, p.Task("a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	reloaded, err := store.Load("plan-0001")
	require.NoError(t, err)
	assert.Equal(t, plan.TaskStatusPending, reloaded.Task("a").Status)
}
