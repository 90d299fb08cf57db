package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("valid plan", func(t *testing.T) {
		p := &Plan{
			PlanID:      "plan-0001",
			Description: "add feature",
			Tasks: []Task{
				{ID: "a", Status: TaskStatusPending},
				{ID: "b", Dependencies: []string{"a"}, Status: TaskStatusPending},
			},
		}
		require.NoError(t, p.Validate())
	})

	t.Run("duplicate task id", func(t *testing.T) {
		p := &Plan{
			PlanID: "plan-0001",
			Tasks: []Task{
				{ID: "a", Status: TaskStatusPending},
				{ID: "a", Status: TaskStatusPending},
			},
		}
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate task id")
	})

	t.Run("dangling dependency is an error, not dropped", func(t *testing.T) {
		p := &Plan{
			PlanID: "plan-0001",
			Tasks: []Task{
				{ID: "a", Dependencies: []string{"ghost"}, Status: TaskStatusPending},
			},
		}
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "undeclared task")
	})

	t.Run("unknown status", func(t *testing.T) {
		p := &Plan{
			PlanID: "plan-0001",
			Tasks:  []Task{{ID: "a", Status: "paused"}},
		}
		require.Error(t, p.Validate())
	})

	t.Run("missing plan id", func(t *testing.T) {
		p := &Plan{Tasks: []Task{{ID: "a"}}}
		require.Error(t, p.Validate())
	})
}

func TestTaskLookup(t *testing.T) {
	p := &Plan{
		PlanID: "plan-0001",
		Tasks:  []Task{{ID: "a"}, {ID: "b"}},
	}

	require.NotNil(t, p.Task("b"))
	assert.Equal(t, "b", p.Task("b").ID)
	assert.Nil(t, p.Task("missing"))
}

func TestCompleted(t *testing.T) {
	p := &Plan{
		PlanID: "plan-0001",
		Tasks: []Task{
			{ID: "a", Status: TaskStatusCompleted},
			{ID: "b", Status: TaskStatusPending},
			{ID: "c", Status: TaskStatusCompleted},
		},
	}
	assert.Equal(t, 2, p.Completed())
}
