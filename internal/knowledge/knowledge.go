// Package knowledge serves facts from a static YAML file. It backs the two
// configuration-shaped authority levels: panel settings and the
// general-knowledge fallback.
package knowledge

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Base is a read-only, file-loaded fact source.
type Base struct {
	name  string
	facts map[string]any
}

// New creates a Base over an in-memory fact map.
func New(name string, facts map[string]any) *Base {
	if facts == nil {
		facts = map[string]any{}
	}
	return &Base{name: name, facts: facts}
}

// Load reads a YAML mapping from path. The file is read once at startup;
// operators correct stale entries through manual overrides, not file edits.
func Load(name, path string) (*Base, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}

	facts := map[string]any{}
	if err := yaml.Unmarshal(raw, &facts); err != nil {
		return nil, fmt.Errorf("parse knowledge file %s: %w", path, err)
	}
	return &Base{name: name, facts: facts}, nil
}

func (b *Base) Name() string { return b.name }

// Len returns the number of top-level entries.
func (b *Base) Len() int { return len(b.facts) }

// Lookup resolves a key against the fact map. A flat key match wins;
// otherwise dotted keys traverse nested mappings ("store.hours" reaches
// facts["store"]["hours"]).
func (b *Base) Lookup(_ context.Context, key string, _ map[string]any) (any, bool, error) {
	if v, ok := b.facts[key]; ok {
		return v, true, nil
	}

	if !strings.Contains(key, ".") {
		return nil, false, nil
	}

	var current any = b.facts
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		current, ok = m[part]
		if !ok {
			return nil, false, nil
		}
	}
	return current, true, nil
}
