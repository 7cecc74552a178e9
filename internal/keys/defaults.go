package keys

import "slices"

const (
	ActionQuit       = "quit"
	ActionColumnNext = "column-next"
	ActionColumnPrev = "column-prev"
	ActionStackUp    = "stack-up"
	ActionStackDown  = "stack-down"
	ActionBack       = "back"
	ActionFocusNext  = "focus-next"
	ActionFocusPrev  = "focus-prev"
	ActionOptionNext = "option-next"
	ActionOptionPrev = "option-prev"
	ActionSubmit     = "submit"
	ActionDismiss    = "dismiss"
)

var navScopes = []string{ScopePanel, ScopeEdit}

func DefaultBindings() []Binding {
	return []Binding{
		{Keys: []string{"ctrl+c"}, Action: ActionQuit, Description: "quit", Scopes: []string{"*"}},
		{Keys: []string{"q"}, Action: ActionQuit, Description: "quit", Scopes: []string{ScopePanel}},
		{Keys: []string{"ctrl+l"}, Action: ActionColumnNext, Description: "next column", Scopes: navScopes},
		{Keys: []string{"ctrl+h"}, Action: ActionColumnPrev, Description: "prev column", Scopes: navScopes},
		{Keys: []string{"ctrl+k"}, Action: ActionStackUp, Description: "stack up", Scopes: navScopes},
		{Keys: []string{"ctrl+j"}, Action: ActionStackDown, Description: "stack down", Scopes: navScopes},
		{Keys: []string{"backspace", "left"}, Action: ActionBack, Description: "back", Scopes: []string{ScopePanel}},
		{Keys: []string{"tab", "down"}, Action: ActionFocusNext, Description: "next widget", Scopes: navScopes},
		{Keys: []string{"shift+tab", "up"}, Action: ActionFocusPrev, Description: "prev widget", Scopes: navScopes},
		{Keys: []string{"]", "right"}, Action: ActionOptionNext, Description: "next option", Scopes: []string{ScopePanel}},
		{Keys: []string{"["}, Action: ActionOptionPrev, Description: "prev option", Scopes: []string{ScopePanel}},
		{Keys: []string{"enter"}, Action: ActionSubmit, Description: "submit", Scopes: navScopes},
		{Keys: []string{"enter", "esc"}, Action: ActionDismiss, Description: "dismiss", Scopes: []string{ScopeOverlay}},
	}
}

// ByAction collects the keys of the first binding for each action.
func ByAction(bindings []Binding) map[string][]string {
	out := make(map[string][]string, len(bindings))
	for _, b := range bindings {
		if b.Action == "" || len(b.Keys) == 0 {
			continue
		}
		if _, exists := out[b.Action]; exists {
			continue
		}
		out[b.Action] = append([]string(nil), b.Keys...)
	}
	return out
}

// Apply replaces the keys of every binding whose action appears in
// actionKeys with keys that differ from the defaults. Bindings sharing an
// action all get the override.
func Apply(bindings []Binding, actionKeys map[string][]string) []Binding {
	defaults := ByAction(bindings)
	out := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		next := Binding{
			Keys:        append([]string(nil), b.Keys...),
			Action:      b.Action,
			Description: b.Description,
			Scopes:      append([]string(nil), b.Scopes...),
		}
		if keys, ok := actionKeys[b.Action]; ok && len(keys) > 0 && !slices.Equal(keys, defaults[b.Action]) {
			next.Keys = append([]string(nil), keys...)
		}
		out = append(out, next)
	}
	return out
}
