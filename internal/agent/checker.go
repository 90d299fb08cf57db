package agent

import (
	"context"
	"fmt"

	"github.com/pablasso/codeteam/internal/config"
	"github.com/pablasso/codeteam/internal/plan"
	"github.com/pablasso/codeteam/internal/verify"
)

// CheckerInstance binds one checker kind to the Claude client. Instance
// counts per kind come from configuration; each instance invokes the same
// capability under its own section name.
type CheckerInstance struct {
	kind   string
	label  string
	client *Claude
}

// Name returns the section label for this instance.
func (c *CheckerInstance) Name() string {
	return c.label
}

// Check runs the checker capability against the task and change-set.
func (c *CheckerInstance) Check(ctx context.Context, task *plan.Task, diff string) (string, error) {
	return c.client.check(ctx, c.kind, task, diff)
}

// Checkers builds the configured checker set in configuration order. A
// count above one yields multiple instances of the same kind, numbered so
// every report section stays attributable.
func Checkers(client *Claude, cfg *config.Config) []verify.Checker {
	var checkers []verify.Checker
	for _, entry := range cfg.CheckerCounts() {
		for i := 0; i < entry.Count; i++ {
			label := entry.Kind
			if entry.Count > 1 {
				label = fmt.Sprintf("%s #%d", entry.Kind, i+1)
			}
			checkers = append(checkers, &CheckerInstance{
				kind:   entry.Kind,
				label:  label,
				client: client,
			})
		}
	}
	return checkers
}
