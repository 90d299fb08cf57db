package orchestrator

// State captures the orchestrator's macro-phase. It gates which user
// commands are valid and labels observability output; it is not persisted,
// since it is derivable from the plan plus the in-memory phase on resume.
type State int

const (
	StateIdle State = iota
	StatePlanDrafting
	StatePlanAwaitingReview
	StatePlanVerifying
	StateCodingAwaitingTaskSelection
	StateCodingPrompting
	StateCodingInProgress
	StateVerifying
	StateAwaitingVerificationReview
	StateCommitting
	StatePlanComplete
	StateHaltedForError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlanDrafting:
		return "plan_drafting"
	case StatePlanAwaitingReview:
		return "plan_awaiting_review"
	case StatePlanVerifying:
		return "plan_verifying"
	case StateCodingAwaitingTaskSelection:
		return "coding_awaiting_task_selection"
	case StateCodingPrompting:
		return "coding_prompting"
	case StateCodingInProgress:
		return "coding_in_progress"
	case StateVerifying:
		return "verifying"
	case StateAwaitingVerificationReview:
		return "awaiting_verification_review"
	case StateCommitting:
		return "committing"
	case StatePlanComplete:
		return "plan_complete"
	case StateHaltedForError:
		return "halted_for_error"
	default:
		return "unknown"
	}
}
