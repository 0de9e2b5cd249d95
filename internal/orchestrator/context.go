package orchestrator

import (
	"fmt"
	"regexp"
)

// placeholderRegex matches {name} placeholders in step parameters.
var placeholderRegex = regexp.MustCompile(`\{(\w+)\}`)

// ExecContext carries values produced by completed steps. Later steps
// reference earlier outputs through {name} placeholders in their params,
// e.g. a send_sms step using the {order_id} produced by create_order.
type ExecContext struct {
	values map[string]any
}

// NewExecContext creates an empty execution context.
func NewExecContext() *ExecContext {
	return &ExecContext{values: make(map[string]any)}
}

// Get returns a context value by name.
func (ec *ExecContext) Get(key string) (any, bool) {
	v, ok := ec.values[key]
	return v, ok
}

// Merge copies a step's output into the context. Later steps shadow
// earlier outputs on key collision.
func (ec *ExecContext) Merge(output map[string]any) {
	for k, v := range output {
		ec.values[k] = v
	}
}

// ResolvePlaceholders returns a copy of params with {name} placeholders
// substituted from the context. A string that is exactly one placeholder
// is replaced by the raw context value so numeric outputs keep their type;
// placeholders embedded in longer text are substituted textually.
// Unresolved placeholders are left untouched for the executor to reject.
func (ec *ExecContext) ResolvePlaceholders(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = ec.resolveValue(v)
	}
	return out
}

func (ec *ExecContext) resolveValue(v any) any {
	switch val := v.(type) {
	case string:
		return ec.resolveString(val)
	case map[string]any:
		return ec.ResolvePlaceholders(val)
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = fmt.Sprintf("%v", ec.resolveString(s))
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ec.resolveValue(item)
		}
		return out
	default:
		return v
	}
}

func (ec *ExecContext) resolveString(s string) any {
	// Whole-token placeholder: preserve the context value's type.
	if m := placeholderRegex.FindStringSubmatch(s); m != nil && m[0] == s {
		if v, ok := ec.values[m[1]]; ok {
			return v
		}
		return s
	}

	return placeholderRegex.ReplaceAllStringFunc(s, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if v, ok := ec.values[name]; ok {
			return fmt.Sprintf("%v", v)
		}
		return tok
	})
}
