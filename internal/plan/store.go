package plan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors returned by Store operations.
var (
	ErrNotFound  = errors.New("plan not found")
	ErrMalformed = errors.New("plan is malformed")
)

const (
	plansDir     = "plans"
	reportsDir   = "reports"
	planFile     = "plan.yml"
	criteriaFile = "ACCEPTANCE_CRITERIA.md"
	feedbackFile = "FEEDBACK.md"
)

// Store is the sole persistence authority for plans and verification
// reports. It is rooted at a workspace directory (normally .codeteam) and
// never mutates anything outside a plan's own subtree.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given workspace directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// PlanDir returns the directory holding a plan's documents.
func (s *Store) PlanDir(planID string) string {
	return filepath.Join(s.root, plansDir, planID)
}

func (s *Store) reportPath(planID, taskID string) string {
	return filepath.Join(s.root, reportsDir, planID, taskID+".md")
}

// NextPlanID returns a monotonically numbered plan ID (plan-0001,
// plan-0002, ...). Existing directories that do not match the pattern are
// ignored.
func (s *Store) NextPlanID() (string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, plansDir))
	if err != nil {
		if os.IsNotExist(err) {
			return "plan-0001", nil
		}
		return "", fmt.Errorf("failed to read plans directory: %w", err)
	}

	max := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(entry.Name(), "plan-%04d", &n); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("plan-%04d", max+1), nil
}

// CreatePlan writes a fresh plan directory containing the plan document and
// its acceptance criteria.
func (s *Store) CreatePlan(planID, planYAML, criteria string) error {
	dir := s.PlanDir(planID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create plan folder: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, planFile), []byte(planYAML), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", planFile, err)
	}
	if err := os.WriteFile(filepath.Join(dir, criteriaFile), []byte(criteria), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", criteriaFile, err)
	}
	return nil
}

// WritePlanDocs overwrites the plan document and acceptance criteria for an
// existing plan. Used when a drafted plan is revised before acceptance.
func (s *Store) WritePlanDocs(planID, planYAML, criteria string) error {
	return s.CreatePlan(planID, planYAML, criteria)
}

// Load parses and validates the plan document for the given ID.
func (s *Store) Load(planID string) (*Plan, error) {
	data, err := os.ReadFile(filepath.Join(s.PlanDir(planID), planFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, planID)
		}
		return nil, fmt.Errorf("failed to read %s: %w", planFile, err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.PlanID == "" {
		p.PlanID = planID
	}
	for i := range p.Tasks {
		if p.Tasks[i].Status == "" {
			p.Tasks[i].Status = TaskStatusPending
		}
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &p, nil
}

// LoadLatest loads the most recently modified plan. Returns ErrNotFound
// when no plan directories exist.
func (s *Store) LoadLatest() (*Plan, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, plansDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read plans directory: %w", err)
	}

	type candidate struct {
		id    string
		mtime int64
	}
	var candidates []candidate
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{entry.Name(), info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].mtime > candidates[j].mtime
	})
	return s.Load(candidates[0].id)
}

// Save atomically overwrites the plan document. It is safe to call after
// every task-status mutation: identical input produces byte-identical
// output, and a temp file + rename keeps readers from ever seeing a
// half-written document.
func (s *Store) Save(p *Plan) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	path := filepath.Join(s.PlanDir(p.PlanID), planFile)
	tmpPath := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// WriteFeedback overwrites the plan-reviewer feedback document. The latest
// critique replaces any earlier one.
func (s *Store) WriteFeedback(planID, feedback string) error {
	path := filepath.Join(s.PlanDir(planID), feedbackFile)
	if err := os.WriteFile(path, []byte(feedback), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", feedbackFile, err)
	}
	return nil
}

// ReadReport returns the persisted verification report for a task. The
// second result is false when no report exists.
func (s *Store) ReadReport(planID, taskID string) (string, bool, error) {
	data, err := os.ReadFile(s.reportPath(planID, taskID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read report: %w", err)
	}
	return string(data), true, nil
}

// WriteReport replaces the verification report for a task.
func (s *Store) WriteReport(planID, taskID, content string) error {
	dir := filepath.Join(s.root, reportsDir, planID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create reports folder: %w", err)
	}
	if err := os.WriteFile(s.reportPath(planID, taskID), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// AppendReport appends text to an existing report, creating it if needed.
// Used to accumulate reviewer feedback across attempts.
func (s *Store) AppendReport(planID, taskID, content string) error {
	existing, _, err := s.ReadReport(planID, taskID)
	if err != nil {
		return err
	}
	combined := existing
	if combined != "" && !strings.HasSuffix(combined, "\n") {
		combined += "\n"
	}
	combined += content
	return s.WriteReport(planID, taskID, combined)
}

// DeleteReport removes a task's report. Missing reports are not an error;
// the report is transient working state, not an audit log.
func (s *Store) DeleteReport(planID, taskID string) error {
	err := os.Remove(s.reportPath(planID, taskID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}
