package plan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const progressLogFileName = "progress.log"

// Event type constants for progress logging.
const (
	EventPlanCreated     = "plan_created"
	EventPlanRevised     = "plan_revised"
	EventPlanAccepted    = "plan_accepted"
	EventTaskStarted     = "task_started"
	EventChangesAccepted = "changes_accepted"
	EventChangesRejected = "changes_rejected"
	EventTaskCompleted   = "task_completed"
	EventTaskFailed      = "task_failed"
	EventPlanComplete    = "plan_complete"
	EventPlanBlocked     = "plan_blocked"
	EventHaltedForError  = "halted_for_error"
)

// ProgressEvent is a single progress log entry.
type ProgressEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Event     string         `json:"event"`
	Data      map[string]any `json:"data,omitempty"`
}

// ProgressLogger appends workflow events to a JSON Lines file in the plan
// directory. Reports are deleted once a task is accepted, so this log is
// the durable record of what every attempt was rejected or accepted for.
type ProgressLogger struct {
	path string
}

// NewProgressLogger creates a progress logger for the given plan directory.
func NewProgressLogger(planDir string) *ProgressLogger {
	return &ProgressLogger{path: filepath.Join(planDir, progressLogFileName)}
}

// Log appends a progress event to the log file.
func (p *ProgressLogger) Log(event string, data map[string]any) error {
	entry := ProgressEvent{
		Timestamp: time.Now(),
		Event:     event,
		Data:      data,
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	jsonBytes = append(jsonBytes, '\n')

	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(jsonBytes)
	return err
}

// TaskStarted logs the beginning of a task attempt.
func (p *ProgressLogger) TaskStarted(taskID string, attempt int) error {
	return p.Log(EventTaskStarted, map[string]any{
		"task_id": taskID,
		"attempt": attempt,
	})
}

// ChangesAccepted logs an accepted verification review.
func (p *ProgressLogger) ChangesAccepted(taskID string, attempt int) error {
	return p.Log(EventChangesAccepted, map[string]any{
		"task_id": taskID,
		"attempt": attempt,
	})
}

// ChangesRejected logs a rejected verification review with its feedback.
func (p *ProgressLogger) ChangesRejected(taskID string, attempt int, feedback string) error {
	return p.Log(EventChangesRejected, map[string]any{
		"task_id":  taskID,
		"attempt":  attempt,
		"feedback": feedback,
	})
}

// TaskCompleted logs a committed, completed task.
func (p *ProgressLogger) TaskCompleted(taskID string) error {
	return p.Log(EventTaskCompleted, map[string]any{
		"task_id": taskID,
	})
}

// TaskFailed logs a task that exhausted its attempts.
func (p *ProgressLogger) TaskFailed(taskID string, attempts int) error {
	return p.Log(EventTaskFailed, map[string]any{
		"task_id":  taskID,
		"attempts": attempts,
	})
}

// PlanComplete logs a finished plan with summary statistics.
func (p *ProgressLogger) PlanComplete(totalTasks, completedTasks int) error {
	return p.Log(EventPlanComplete, map[string]any{
		"total_tasks":     totalTasks,
		"completed_tasks": completedTasks,
	})
}

// PlanBlocked logs a plan stuck behind failed dependencies.
func (p *ProgressLogger) PlanBlocked(blockedTaskIDs []string) error {
	return p.Log(EventPlanBlocked, map[string]any{
		"blocked_tasks": blockedTaskIDs,
	})
}
