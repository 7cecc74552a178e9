// Package events defines the messages exchanged between a renderer and the
// engine. Inbound events are posted by the renderer; outbound events are
// published by the engine on its bus.
package events

import "github.com/jask/panelflow/internal/navtree"

// Inbound is the closed set of events a renderer can post.
type Inbound interface {
	inbound()
}

// WidgetSubmitted carries a confirmed value from a widget: enter in a text
// input, a choice in an option list, a press on a button or link.
type WidgetSubmitted struct {
	WidgetID string
	Value    any
}

// HorizontalNavigation moves focus between columns.
type HorizontalNavigation struct {
	Direction navtree.HDirection
}

// VerticalNavigation moves focus within the stack of the active column.
type VerticalNavigation struct {
	Direction navtree.VDirection
}

// BackNavigation closes the active panel.
type BackNavigation struct{}

func (WidgetSubmitted) inbound()      {}
func (HorizontalNavigation) inbound() {}
func (VerticalNavigation) inbound()   {}
func (BackNavigation) inbound()       {}

// Outbound is the closed set of events the engine publishes.
type Outbound interface {
	outbound()
}

// StateChanged asks renderers to redraw from Root. It may be published for a
// transition that left the tree as it was; renderers treat it idempotently.
type StateChanged struct {
	Root *navtree.Node
}

// ErrorOccurred reports a failed transition. The tree is left usable.
type ErrorOccurred struct {
	Title   string
	Message string
}

func (StateChanged) outbound()  {}
func (ErrorOccurred) outbound() {}

// Name returns a short label for logs and the journal.
func Name(e any) string {
	switch e.(type) {
	case WidgetSubmitted:
		return "widget_submitted"
	case HorizontalNavigation:
		return "horizontal_navigation"
	case VerticalNavigation:
		return "vertical_navigation"
	case BackNavigation:
		return "back_navigation"
	case StateChanged:
		return "state_changed"
	case ErrorOccurred:
		return "error_occurred"
	default:
		return "unknown"
	}
}
