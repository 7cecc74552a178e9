// Package handler defines the contract user business logic implements to take
// part in navigation, and the registry the engine resolves handlers from.
package handler

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jask/panelflow/internal/panel"
)

var (
	ErrUnknownHandler = errors.New("unknown handler")
	ErrHandlerPanic   = errors.New("handler panicked")
)

// Instruction is what a handler asks the engine to do after a submission.
// NavigateDown is the only variant.
type Instruction interface {
	isInstruction()
}

// NavigateDown opens Target as a child of the node that owns the submitted
// widget.
type NavigateDown struct {
	Target panel.Target
}

func (NavigateDown) isInstruction() {}

// To returns an instruction opening a registered panel.
func To(panelID string) Instruction { return NavigateDown{Target: panel.ByID(panelID)} }

// ToPanel returns an instruction opening a template built at runtime.
func ToPanel(t *panel.Template) Instruction { return NavigateDown{Target: panel.Inline(t)} }

// Handler reacts to a widget value being submitted. A nil Instruction means
// no navigation.
type Handler interface {
	OnWidgetUpdate(widgetID string, value any) (Instruction, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(widgetID string, value any) (Instruction, error)

func (f HandlerFunc) OnWidgetUpdate(widgetID string, value any) (Instruction, error) {
	return f(widgetID, value)
}

// Factory builds a handler for one submission. context is a copy of the data
// the node inherited; form is the node's live form data, so writes to it stick.
type Factory func(context, form map[string]any) Handler

// Registry maps handler ids, as named in configuration documents, to factories.
type Registry map[string]Factory

func (r Registry) Has(id string) bool {
	f, ok := r[id]
	return ok && f != nil
}

// IDs returns the registered handler ids, sorted.
func (r Registry) IDs() []string {
	out := make([]string, 0, len(r))
	for id := range r {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Resolve picks the handler id that applies to a submission of widgetID on
// tpl: the widget's own handler, then the panel's, then none.
func Resolve(tpl *panel.Template, widgetID string) string {
	if tpl == nil {
		return ""
	}
	if w, ok := tpl.Widget(widgetID); ok {
		if id := w.Base().HandlerID; id != "" {
			return id
		}
	}
	return tpl.HandlerID
}

// Invoke resolves, builds and runs the handler for a submission. It returns a
// nil Instruction and nil error when no handler applies. A panic inside the
// handler is returned as an error wrapping ErrHandlerPanic.
func (r Registry) Invoke(tpl *panel.Template, widgetID string, value any, context, form map[string]any) (instr Instruction, err error) {
	id := Resolve(tpl, widgetID)
	if id == "" {
		return nil, nil
	}
	factory, ok := r[id]
	if !ok || factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHandler, id)
	}
	defer func() {
		if p := recover(); p != nil {
			instr = nil
			err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, id, p)
		}
	}()
	h := factory(context, form)
	if h == nil {
		return nil, nil
	}
	return h.OnWidgetUpdate(widgetID, value)
}
