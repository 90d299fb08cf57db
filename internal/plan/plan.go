package plan

import "fmt"

// Plan is the persisted unit of work: an ordered set of dependent tasks
// plus descriptive text. Task order is declaration order and is used as a
// scheduling tie-break.
type Plan struct {
	PlanID      string `yaml:"plan_id"`
	Description string `yaml:"description"`
	Tasks       []Task `yaml:"tasks"`
}

// Task is a single unit of change with an identity, a dependency set and
// a status. The description is opaque to the scheduler.
type Task struct {
	ID           string   `yaml:"id"`
	Description  string   `yaml:"description"`
	Dependencies []string `yaml:"dependencies,omitempty"`
	Status       string   `yaml:"status"`
}

// Task status constants
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// Validate checks the plan invariants: task IDs are unique and every
// dependency references a task declared in the same plan. A dangling
// reference is an error, not something to drop silently.
func (p *Plan) Validate() error {
	if p.PlanID == "" {
		return fmt.Errorf("plan has no plan_id")
	}

	ids := make(map[string]bool, len(p.Tasks))
	for i := range p.Tasks {
		t := &p.Tasks[i]
		if t.ID == "" {
			return fmt.Errorf("task at index %d has no id", i)
		}
		if ids[t.ID] {
			return fmt.Errorf("duplicate task id %q", t.ID)
		}
		ids[t.ID] = true

		switch t.Status {
		case "", TaskStatusPending, TaskStatusCompleted, TaskStatusFailed:
		default:
			return fmt.Errorf("task %q has unknown status %q", t.ID, t.Status)
		}
	}

	for i := range p.Tasks {
		for _, dep := range p.Tasks[i].Dependencies {
			if !ids[dep] {
				return fmt.Errorf("task %q depends on undeclared task %q", p.Tasks[i].ID, dep)
			}
		}
	}

	return nil
}

// Task returns the task with the given ID, or nil if the plan does not
// declare it.
func (p *Plan) Task(id string) *Task {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i]
		}
	}
	return nil
}

// Completed returns the number of completed tasks.
func (p *Plan) Completed() int {
	count := 0
	for i := range p.Tasks {
		if p.Tasks[i].Status == TaskStatusCompleted {
			count++
		}
	}
	return count
}
