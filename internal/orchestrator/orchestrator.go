// Package orchestrator executes ordered action sequences with
// all-or-nothing semantics and best-effort compensation.
//
// The orchestrator is a generic saga runner over a pluggable executor
// registry: it owns sequencing, context threading, failure detection, and
// the rollback policy, while each registered executor owns what its step
// actually does. Adding a step kind is a registration, not a code change
// here.
//
// Execution flow for one run:
//  1. Pre-flight validation of every step (known kind, required params)
//  2. Sequential execution; each success merges its output into the
//     shared execution context used for {placeholder} substitution
//  3. First failure halts the run and compensates already-applied steps
//     in reverse order
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/homatabesh/homa-core/internal/store"
	"github.com/homatabesh/homa-core/pkg/models"
)

// Executor performs one step kind. Params arrive with placeholders already
// resolved; the returned output is merged into the execution context.
type Executor interface {
	Kind() string
	RequiredParams() []string
	Execute(ctx context.Context, params map[string]any, ec *ExecContext) (map[string]any, error)
}

// Compensator is implemented by executors whose effect can be undone.
// Executors without it are skipped during rollback.
type Compensator interface {
	Compensate(ctx context.Context, output map[string]any) error
}

// ── Registry ────────────────────────────────────────────────

// Registry maps step kinds to executors.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

// NewRegistry creates an empty executor registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register adds or replaces the executor for its kind.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[e.Kind()] = e
	log.Debug().Str("kind", e.Kind()).Msg("Step executor registered")
}

// Get returns the executor for a kind.
func (r *Registry) Get(kind string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[kind]
	return e, ok
}

// Known reports whether a kind has a registered executor.
func (r *Registry) Known(kind string) bool {
	_, ok := r.Get(kind)
	return ok
}

// Kinds returns all registered step kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.executors))
	for k := range r.executors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ── Validation ──────────────────────────────────────────────

// ValidationError rejects a step sequence before any side effect: either a
// step kind is unknown or required parameters are missing.
type ValidationError struct {
	Index   int
	Kind    string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("step %d (%s): missing required params: %s", e.Index, e.Kind, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("step %d: unknown action type %q", e.Index, e.Kind)
}

// ── Orchestrator ────────────────────────────────────────────

// Orchestrator runs action sequences against the executor registry.
type Orchestrator struct {
	registry *Registry
	logStore store.ActionLogStore
	tracer   trace.Tracer
}

// New creates an orchestrator. logStore may be nil to disable the
// persisted run log.
func New(registry *Registry, logStore store.ActionLogStore) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		logStore: logStore,
		tracer:   otel.Tracer("homa-core/orchestrator"),
	}
}

// Registry exposes the executor registry, used by the response parser to
// check which action kinds are known.
func (o *Orchestrator) Registry() *Registry { return o.registry }

type completedStep struct {
	executor Executor
	output   map[string]any
}

// ExecuteActions runs the steps strictly in order and returns the
// aggregate result. Failures are reported in the result, never as an
// error: the caller can always render Result.Error and Result.Message
// directly. Steps are not retried within a run.
func (o *Orchestrator) ExecuteActions(ctx context.Context, steps []models.ActionStep) *models.OrchestrationResult {
	runID := uuid.New().String()
	result := &models.OrchestrationResult{RunID: runID}

	ctx, span := o.tracer.Start(ctx, "orchestrator.execute_actions",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("step_count", len(steps)),
		))
	defer span.End()

	// Pre-flight: reject the whole sequence before any side effect.
	if verr := o.validate(steps); verr != nil {
		result.Error = verr.Error()
		idx := verr.Index
		result.FailedAt = &idx
		result.FailedStep = verr.Kind
		span.SetAttributes(attribute.Bool("success", false))
		log.Warn().Str("run_id", runID).Err(verr).Msg("Action sequence rejected in pre-flight")
		o.appendLog(ctx, result)
		return result
	}

	ec := NewExecContext()
	var completed []completedStep
	var messages []string

	for i := range steps {
		step := &steps[i]
		step.Status = models.StepExecuting

		params := ec.ResolvePlaceholders(step.Params)
		executor, _ := o.registry.Get(step.Type)

		start := time.Now()
		stepCtx, stepSpan := o.tracer.Start(ctx, "orchestrator.step",
			trace.WithAttributes(
				attribute.String("kind", step.Type),
				attribute.Int("index", i),
			))
		output, err := executor.Execute(stepCtx, params, ec)
		stepSpan.End()

		sr := models.StepResult{
			Kind:       step.Type,
			DurationMs: time.Since(start).Milliseconds(),
		}

		if err != nil {
			step.Status = models.StepFailed
			sr.Status = models.StepFailed
			sr.Error = err.Error()
			result.Steps = append(result.Steps, sr)

			log.Warn().
				Str("run_id", runID).
				Str("kind", step.Type).
				Int("index", i).
				Err(err).
				Msg("Step failed, halting run")

			idx := i
			result.FailedAt = &idx
			result.FailedStep = step.Type
			result.Error = err.Error()
			result.RollbackPerformed = o.rollback(ctx, runID, completed)
			span.SetAttributes(attribute.Bool("success", false))
			o.appendLog(ctx, result)
			return result
		}

		step.Status = models.StepSucceeded
		sr.Status = models.StepSucceeded
		sr.Output = output
		result.Steps = append(result.Steps, sr)

		ec.Merge(output)
		completed = append(completed, completedStep{executor: executor, output: output})
		if msg, ok := output["message"].(string); ok && msg != "" {
			messages = append(messages, msg)
		}

		log.Info().
			Str("run_id", runID).
			Str("kind", step.Type).
			Int("index", i).
			Int64("duration_ms", sr.DurationMs).
			Msg("Step completed")
	}

	result.Success = true
	result.Message = strings.Join(messages, " ")
	if result.Message == "" {
		result.Message = "All steps completed successfully."
	}
	span.SetAttributes(attribute.Bool("success", true))

	log.Info().
		Str("run_id", runID).
		Int("steps", len(steps)).
		Msg("Action sequence completed")

	o.appendLog(ctx, result)
	return result
}

// validate checks every step kind and its required params. Placeholder
// values count as present; they are resolved at execution time.
func (o *Orchestrator) validate(steps []models.ActionStep) *ValidationError {
	for i, step := range steps {
		executor, ok := o.registry.Get(step.Type)
		if !ok {
			return &ValidationError{Index: i, Kind: step.Type}
		}

		var missing []string
		for _, name := range executor.RequiredParams() {
			if _, ok := step.Params[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return &ValidationError{Index: i, Kind: step.Type, Missing: missing}
		}
	}
	return nil
}

// rollback compensates already-succeeded steps in reverse order. It
// reports whether at least one compensating action ran. Compensation is
// best-effort: a failing compensator is logged and the walk continues.
func (o *Orchestrator) rollback(ctx context.Context, runID string, completed []completedStep) bool {
	performed := false
	for i := len(completed) - 1; i >= 0; i-- {
		cs := completed[i]
		comp, ok := cs.executor.(Compensator)
		if !ok {
			log.Debug().
				Str("run_id", runID).
				Str("kind", cs.executor.Kind()).
				Msg("No compensation registered, skipping")
			continue
		}

		if err := comp.Compensate(ctx, cs.output); err != nil {
			log.Error().
				Str("run_id", runID).
				Str("kind", cs.executor.Kind()).
				Err(err).
				Msg("Compensation failed")
			continue
		}

		performed = true
		log.Info().
			Str("run_id", runID).
			Str("kind", cs.executor.Kind()).
			Msg("Step compensated")
	}
	return performed
}

// appendLog persists the run outcome for admin review. Log failures never
// affect the result.
func (o *Orchestrator) appendLog(ctx context.Context, result *models.OrchestrationResult) {
	if o.logStore == nil {
		return
	}
	entry := &models.ActionLogEntry{
		RunID:             result.RunID,
		Success:           result.Success,
		Error:             result.Error,
		FailedStep:        result.FailedStep,
		RollbackPerformed: result.RollbackPerformed,
		Steps:             result.Steps,
	}
	if err := o.logStore.AppendActionLog(ctx, entry); err != nil {
		log.Warn().Err(err).Str("run_id", result.RunID).Msg("Failed to persist action log entry")
	}
}
