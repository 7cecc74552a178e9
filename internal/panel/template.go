package panel

import "fmt"

// Kind names a widget variant as it appears in configuration documents.
type Kind string

const (
	KindTextInput    Kind = "text_input"
	KindButton       Kind = "button"
	KindOptionSelect Kind = "option_select"
	KindPanelLink    Kind = "panel_link"
)

// ParseKind maps a document "type" value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindTextInput, KindButton, KindOptionSelect, KindPanelLink:
		return k, nil
	default:
		return "", fmt.Errorf("unknown widget type %q", s)
	}
}

// WidgetBase carries the fields shared by every widget variant.
type WidgetBase struct {
	ID        string
	Title     string
	Value     any
	HandlerID string
}

// Widget is the closed set of widget variants: *TextInput, *Button,
// *OptionSelect and *PanelLink.
type Widget interface {
	Base() WidgetBase
	Kind() Kind
	isWidget()
}

type TextInput struct {
	WidgetBase
	Placeholder string
}

type Button struct {
	WidgetBase
}

type OptionSelect struct {
	WidgetBase
	Options []string
}

// PanelLink points at another panel. Renderers submit TargetPanelID as the
// widget value when the link is activated.
type PanelLink struct {
	WidgetBase
	TargetPanelID string
	Description   string
}

func (w *TextInput) Base() WidgetBase    { return w.WidgetBase }
func (w *Button) Base() WidgetBase       { return w.WidgetBase }
func (w *OptionSelect) Base() WidgetBase { return w.WidgetBase }
func (w *PanelLink) Base() WidgetBase    { return w.WidgetBase }

func (*TextInput) Kind() Kind    { return KindTextInput }
func (*Button) Kind() Kind       { return KindButton }
func (*OptionSelect) Kind() Kind { return KindOptionSelect }
func (*PanelLink) Kind() Kind    { return KindPanelLink }

func (*TextInput) isWidget()    {}
func (*Button) isWidget()       {}
func (*OptionSelect) isWidget() {}
func (*PanelLink) isWidget()    {}

// Template describes one panel: a titled, ordered list of widgets with an
// optional panel-level handler.
type Template struct {
	ID          string
	Title       string
	Description string
	Widgets     []Widget
	HandlerID   string
}

// Widget returns the widget with the given id.
func (t *Template) Widget(id string) (Widget, bool) {
	if t == nil {
		return nil, false
	}
	for _, w := range t.Widgets {
		if w.Base().ID == id {
			return w, true
		}
	}
	return nil, false
}

// HasWidget reports whether the template declares a widget with the given id.
func (t *Template) HasWidget(id string) bool {
	_, ok := t.Widget(id)
	return ok
}

// Target identifies the panel a navigation should open: either a registry id
// or an inline template built at runtime by a handler.
type Target struct {
	ID       string
	Template *Template
}

func ByID(id string) Target { return Target{ID: id} }

func Inline(t *Template) Target { return Target{Template: t} }

func (t Target) String() string {
	if t.Template != nil {
		return "inline:" + t.Template.ID
	}
	return t.ID
}
