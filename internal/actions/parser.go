// Package actions turns assistant response payloads into executable action
// steps. Parsing is best-effort: a malformed or unknown entry is dropped
// with a warning and never aborts the rest of the payload.
package actions

import (
	"encoding/json"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/homatabesh/homa-core/internal/orchestrator"
	"github.com/homatabesh/homa-core/pkg/models"
)

// jsonObjectRegex extracts the first {...} block from a raw text reply.
var jsonObjectRegex = regexp.MustCompile(`\{[\s\S]*\}`)

// ParsedResponse is an assistant reply split into its user-facing text and
// the executable steps it carried.
type ParsedResponse struct {
	Response string
	Steps    []models.ActionStep
}

// Parser validates action entries against the orchestrator's registry.
type Parser struct {
	registry *orchestrator.Registry
}

// NewParser creates a parser bound to the registry of known step kinds.
func NewParser(registry *orchestrator.Registry) *Parser {
	return &Parser{registry: registry}
}

// ParseResponse extracts the action steps from a structured assistant
// payload. Entries with an empty or unknown type are discarded; the
// surviving steps keep their original order.
func (p *Parser) ParseResponse(payload *models.AssistantResponse) *ParsedResponse {
	parsed := &ParsedResponse{Response: payload.Response}

	for i, action := range payload.Actions {
		if action.Type == "" {
			log.Warn().Int("index", i).Msg("Dropping action entry with no type")
			continue
		}
		if !p.registry.Known(action.Type) {
			log.Warn().Int("index", i).Str("type", action.Type).Msg("Dropping action entry with unknown type")
			continue
		}

		params := action.Params
		if params == nil {
			params = map[string]any{}
		}
		parsed.Steps = append(parsed.Steps, models.ActionStep{
			Type:   action.Type,
			Params: params,
			Status: models.StepPending,
		})
	}

	return parsed
}

// ParseRaw handles model replies that arrive as plain text. It tries the
// whole text as JSON, then the first embedded {...} block, and finally
// falls back to treating the text as a plain response with no actions.
func (p *Parser) ParseRaw(text string) *ParsedResponse {
	var payload models.AssistantResponse
	if err := json.Unmarshal([]byte(text), &payload); err == nil && payload.Response != "" {
		return p.ParseResponse(&payload)
	}

	if m := jsonObjectRegex.FindString(text); m != "" {
		var embedded models.AssistantResponse
		if err := json.Unmarshal([]byte(m), &embedded); err == nil && embedded.Response != "" {
			return p.ParseResponse(&embedded)
		}
	}

	return &ParsedResponse{Response: text}
}
