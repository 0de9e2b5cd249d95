// Package models defines the shared domain types for the Homa assistant core:
// manual override records, action steps, orchestration results, and the
// assistant response payload exchanged with the model-calling layer.
package models

import "time"

// ── Authority Levels ────────────────────────────────────────

// AuthorityLevel is one ranked tier in the fact-resolution ladder.
// Lower numbers win.
type AuthorityLevel int

const (
	LevelManualOverride   AuthorityLevel = 1 // operator correction, always wins
	LevelPanelSetting     AuthorityLevel = 2 // site-operator configuration
	LevelLiveData         AuthorityLevel = 3 // current transactional state
	LevelGeneralKnowledge AuthorityLevel = 4 // static fallback knowledge
)

func (l AuthorityLevel) String() string {
	switch l {
	case LevelManualOverride:
		return "manual_override"
	case LevelPanelSetting:
		return "panel_setting"
	case LevelLiveData:
		return "live_data"
	case LevelGeneralKnowledge:
		return "general_knowledge"
	}
	return "unknown"
}

// ── Overrides ───────────────────────────────────────────────

// OverrideRecord is a manual fact correction entered by an operator.
// At most one override is active per key; setting a new one replaces the
// previous value but keeps the audit fields current.
type OverrideRecord struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	Reason    string    `json:"reason"`
	ActorID   string    `json:"actor_id,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ── Action Steps ────────────────────────────────────────────

// StepStatus is the lifecycle state of one action step within a run.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepExecuting StepStatus = "executing"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
)

// ActionStep is one unit of work within an orchestrated sequence.
type ActionStep struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
	Status StepStatus     `json:"status,omitempty"`
}

// StepResult records the outcome of executing one step.
type StepResult struct {
	Kind       string         `json:"kind"`
	Status     StepStatus     `json:"status"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// OrchestrationResult is the aggregate outcome of one ExecuteActions call.
// Error, FailedAt, FailedStep, and RollbackPerformed are populated only
// when Success is false.
type OrchestrationResult struct {
	RunID             string       `json:"run_id"`
	Success           bool         `json:"success"`
	Message           string       `json:"message,omitempty"`
	Error             string       `json:"error,omitempty"`
	FailedAt          *int         `json:"failed_at,omitempty"`
	FailedStep        string       `json:"failed_step,omitempty"`
	RollbackPerformed bool         `json:"rollback_performed,omitempty"`
	Steps             []StepResult `json:"steps,omitempty"`
}

// ── Assistant payload ───────────────────────────────────────

// AssistantAction is one action entry in a model response.
type AssistantAction struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// AssistantResponse is the structured payload produced by the external
// model-calling layer: user-facing text plus zero or more actions.
type AssistantResponse struct {
	Response string            `json:"response"`
	Actions  []AssistantAction `json:"actions"`
}

// ── Action log ──────────────────────────────────────────────

// ActionLogEntry is one persisted orchestration run, kept for admin review.
type ActionLogEntry struct {
	ID                string       `json:"id"`
	RunID             string       `json:"run_id"`
	Success           bool         `json:"success"`
	Error             string       `json:"error,omitempty"`
	FailedStep        string       `json:"failed_step,omitempty"`
	RollbackPerformed bool         `json:"rollback_performed"`
	Steps             []StepResult `json:"steps,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}
