package plan

// SelectResult classifies the outcome of SelectNext.
type SelectResult int

const (
	// NextTask means an eligible task was found.
	NextTask SelectResult = iota
	// PlanComplete means every task has status completed.
	PlanComplete
	// PlanBlocked means pending tasks remain but none is eligible, i.e.
	// something is stuck behind a failed dependency. Distinct from
	// PlanComplete so callers never mistake a stuck plan for a finished one.
	PlanBlocked
)

func (r SelectResult) String() string {
	switch r {
	case NextTask:
		return "next_task"
	case PlanComplete:
		return "plan_complete"
	case PlanBlocked:
		return "plan_blocked"
	default:
		return "unknown"
	}
}

// SelectNext picks the next runnable task. Tasks are scanned in declaration
// order; a task is eligible iff its status is pending and every dependency
// has status completed in the same plan snapshot. The declaration-order
// tie-break keeps runs reproducible and matches the order tasks were planned.
func SelectNext(p *Plan) (string, SelectResult) {
	completed := make(map[string]bool)
	for i := range p.Tasks {
		if p.Tasks[i].Status == TaskStatusCompleted {
			completed[p.Tasks[i].ID] = true
		}
	}

	pending := false
	for i := range p.Tasks {
		t := &p.Tasks[i]
		if t.Status != TaskStatusPending {
			continue
		}
		pending = true

		eligible := true
		for _, dep := range t.Dependencies {
			if !completed[dep] {
				eligible = false
				break
			}
		}
		if eligible {
			return t.ID, NextTask
		}
	}

	if pending {
		return "", PlanBlocked
	}
	return "", PlanComplete
}

// Blocked returns the IDs of pending tasks whose dependencies can no longer
// all complete, in declaration order. Used to name stuck work when SelectNext
// reports PlanBlocked.
func Blocked(p *Plan) []string {
	completed := make(map[string]bool)
	for i := range p.Tasks {
		if p.Tasks[i].Status == TaskStatusCompleted {
			completed[p.Tasks[i].ID] = true
		}
	}

	var blocked []string
	for i := range p.Tasks {
		t := &p.Tasks[i]
		if t.Status != TaskStatusPending {
			continue
		}
		for _, dep := range t.Dependencies {
			if !completed[dep] {
				blocked = append(blocked, t.ID)
				break
			}
		}
	}
	return blocked
}
