// Package handlers implements the HTTP handlers for the Homa core API:
// fact resolution, override management, and action execution.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/homatabesh/homa-core/internal/actions"
	"github.com/homatabesh/homa-core/internal/authority"
	"github.com/homatabesh/homa-core/internal/orchestrator"
	"github.com/homatabesh/homa-core/internal/store"
	"github.com/homatabesh/homa-core/pkg/models"
)

// Handlers bundles the core services the API exposes.
type Handlers struct {
	Resolver     *authority.Resolver
	Orchestrator *orchestrator.Orchestrator
	Parser       *actions.Parser
	Store        store.Store
}

// New creates the handler set.
func New(resolver *authority.Resolver, orch *orchestrator.Orchestrator, parser *actions.Parser, s store.Store) *Handlers {
	return &Handlers{
		Resolver:     resolver,
		Orchestrator: orch,
		Parser:       parser,
		Store:        s,
	}
}

// ── Facts ───────────────────────────────────────────────────

// GetFact resolves a fact key through the authority ladder. Query
// parameters are forwarded as the opaque fact context.
func (h *Handlers) GetFact(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	fctx := map[string]any{}
	for k, vals := range r.URL.Query() {
		if len(vals) > 0 {
			fctx[k] = vals[0]
		}
	}

	value, err := h.Resolver.GetFinalFact(r.Context(), key, fctx)
	if err != nil {
		var degraded *authority.DegradedError
		switch {
		case errors.Is(err, authority.ErrFactNotFound):
			writeError(w, http.StatusNotFound, "fact not found: "+key)
		case errors.As(err, &degraded):
			writeError(w, http.StatusServiceUnavailable, degraded.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"key":   key,
		"value": value,
	})
}

// ── Overrides ───────────────────────────────────────────────

type setOverrideRequest struct {
	Key     string `json:"key"`
	Value   any    `json:"value"`
	Reason  string `json:"reason"`
	ActorID string `json:"actor_id"`
}

// SetOverride records a manual override for a fact key.
func (h *Handlers) SetOverride(w http.ResponseWriter, r *http.Request) {
	var req setOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required for the audit trail")
		return
	}

	if err := h.Resolver.SetManualOverride(r.Context(), req.Key, req.Value, req.Reason, req.ActorID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "key": req.Key})
}

// RemoveOverride deletes the override for a key. Removal is idempotent.
func (h *Handlers) RemoveOverride(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := h.Resolver.RemoveManualOverride(r.Context(), key); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "key": key})
}

// ListOverrides returns override records, optionally only active ones.
func (h *Handlers) ListOverrides(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	overrides, err := h.Resolver.ListOverrides(r.Context(), activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if overrides == nil {
		overrides = []models.OverrideRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"overrides": overrides})
}

// ── Actions ─────────────────────────────────────────────────

type executeActionsRequest struct {
	// Steps is a raw step list, used by trusted internal callers.
	Steps []models.ActionStep `json:"steps"`

	// Response and Actions form an assistant payload; Actions go through
	// the parser so malformed entries are dropped, not executed.
	Response string                   `json:"response"`
	Actions  []models.AssistantAction `json:"actions"`
}

// ExecuteActions runs a step sequence and returns the orchestration
// result. The result is HTTP 200 even on step failure: failure is a
// structured outcome, not a transport error.
func (h *Handlers) ExecuteActions(w http.ResponseWriter, r *http.Request) {
	var req executeActionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	steps := req.Steps
	if len(steps) == 0 && len(req.Actions) > 0 {
		parsed := h.Parser.ParseResponse(&models.AssistantResponse{
			Response: req.Response,
			Actions:  req.Actions,
		})
		steps = parsed.Steps
	}
	if len(steps) == 0 {
		writeError(w, http.StatusBadRequest, "no executable steps in request")
		return
	}

	result := h.Orchestrator.ExecuteActions(r.Context(), steps)
	writeJSON(w, http.StatusOK, result)
}

// ListActionLog returns recent orchestration runs, newest first.
func (h *Handlers) ListActionLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.Store.ListActionLog(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []models.ActionLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// ── Helpers ─────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
