// Package keys maps key presses to named actions per UI scope, and loads
// user overrides from a keybindings.toml file.
package keys

import (
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Scopes the renderer reports when asking whether a key matches an action.
const (
	ScopePanel   = "panel"
	ScopeEdit    = "edit"
	ScopeOverlay = "overlay"
)

type Binding struct {
	Keys        []string
	Action      string
	Description string
	Scopes      []string
}

type Registry struct {
	bindings []Binding
}

func NewRegistry(bindings []Binding) *Registry {
	return &Registry{bindings: slices.Clone(bindings)}
}

func (r *Registry) Register(binding Binding) {
	r.bindings = append(r.bindings, binding)
}

// BindingsForScope lists the bindings active in scope, in registration order.
func (r *Registry) BindingsForScope(scope string) []Binding {
	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		if scopeMatch(scope, b.Scopes) {
			out = append(out, b)
		}
	}
	return out
}

func (r *Registry) IsAction(msg tea.KeyMsg, action, scope string) bool {
	return r.Matches(msg.String(), action, scope)
}

// Matches reports whether key triggers action in scope.
func (r *Registry) Matches(key, action, scope string) bool {
	pressed := normalizeKey(key)
	for _, b := range r.bindings {
		if b.Action != action || !scopeMatch(scope, b.Scopes) {
			continue
		}
		for _, k := range b.Keys {
			if normalizeKey(k) == pressed {
				return true
			}
		}
	}
	return false
}

// Action returns the first action bound to key in scope, or "".
func (r *Registry) Action(msg tea.KeyMsg, scope string) string {
	pressed := normalizeKey(msg.String())
	for _, b := range r.bindings {
		if !scopeMatch(scope, b.Scopes) {
			continue
		}
		for _, k := range b.Keys {
			if normalizeKey(k) == pressed {
				return b.Action
			}
		}
	}
	return ""
}

// Help renders "key description" pairs for scope, first key of each binding.
func (r *Registry) Help(scope string) []string {
	var out []string
	seen := map[string]bool{}
	for _, b := range r.BindingsForScope(scope) {
		if len(b.Keys) == 0 || b.Description == "" || seen[b.Action] {
			continue
		}
		seen[b.Action] = true
		out = append(out, b.Keys[0]+" "+b.Description)
	}
	return out
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func scopeMatch(scope string, scopes []string) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		if s == "*" || s == scope {
			return true
		}
	}
	return false
}
