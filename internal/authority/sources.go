package authority

import "context"

// StaticSource serves facts from a fixed map. The panel-settings level uses
// it with values loaded at startup.
type StaticSource struct {
	name  string
	facts map[string]any
}

// NewStaticSource creates a named map-backed fact source.
func NewStaticSource(name string, facts map[string]any) *StaticSource {
	if facts == nil {
		facts = map[string]any{}
	}
	return &StaticSource{name: name, facts: facts}
}

func (s *StaticSource) Name() string { return s.name }

func (s *StaticSource) Lookup(_ context.Context, key string, _ map[string]any) (any, bool, error) {
	v, ok := s.facts[key]
	return v, ok, nil
}

// SourceFunc adapts a plain lookup function to the FactSource interface.
type SourceFunc struct {
	name string
	fn   func(ctx context.Context, key string, fctx map[string]any) (any, bool, error)
}

// NewSourceFunc wraps fn as a named fact source.
func NewSourceFunc(name string, fn func(ctx context.Context, key string, fctx map[string]any) (any, bool, error)) *SourceFunc {
	return &SourceFunc{name: name, fn: fn}
}

func (s *SourceFunc) Name() string { return s.name }

func (s *SourceFunc) Lookup(ctx context.Context, key string, fctx map[string]any) (any, bool, error) {
	return s.fn(ctx, key, fctx)
}
