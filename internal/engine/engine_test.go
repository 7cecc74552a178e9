package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/panelflow/internal/events"
	"github.com/jask/panelflow/internal/handler"
	"github.com/jask/panelflow/internal/navtree"
	"github.com/jask/panelflow/internal/panel"
)

func testRegistry(t *testing.T) *panel.Registry {
	t.Helper()
	reg, err := panel.NewRegistry("main", []*panel.Template{
		{
			ID:        "main",
			Title:     "Main",
			HandlerID: "main_handler",
			Widgets: []panel.Widget{
				&panel.TextInput{WidgetBase: panel.WidgetBase{ID: "text_field", Title: "Text"}},
				&panel.Button{WidgetBase: panel.WidgetBase{ID: "goto_child", Title: "Go"}},
				&panel.Button{WidgetBase: panel.WidgetBase{ID: "broken", Title: "Broken", HandlerID: "failing"}},
				&panel.Button{WidgetBase: panel.WidgetBase{ID: "nowhere", Title: "Nowhere"}},
				&panel.Button{WidgetBase: panel.WidgetBase{ID: "explode", Title: "Explode", HandlerID: "panicking"}},
			},
		},
		{
			ID:      "child",
			Title:   "Child",
			Widgets: []panel.Widget{&panel.TextInput{WidgetBase: panel.WidgetBase{ID: "child_field"}}},
		},
	})
	require.NoError(t, err)
	return reg
}

func testHandlers() handler.Registry {
	return handler.Registry{
		"main_handler": func(_, _ map[string]any) handler.Handler {
			return handler.HandlerFunc(func(widgetID string, _ any) (handler.Instruction, error) {
				switch widgetID {
				case "goto_child":
					return handler.To("child"), nil
				case "nowhere":
					return handler.To("missing"), nil
				}
				return nil, nil
			})
		},
		"failing": func(_, _ map[string]any) handler.Handler {
			return handler.HandlerFunc(func(string, any) (handler.Instruction, error) {
				return nil, errors.New("boom")
			})
		},
		"panicking": func(_, _ map[string]any) handler.Handler {
			return handler.HandlerFunc(func(string, any) (handler.Instruction, error) {
				panic("kaboom")
			})
		},
	}
}

type recorder struct {
	events []events.Outbound
}

func (r *recorder) record(ev events.Outbound) { r.events = append(r.events, ev) }

func (r *recorder) reset() { r.events = nil }

func (r *recorder) stateChanges() int {
	n := 0
	for _, ev := range r.events {
		if _, ok := ev.(events.StateChanged); ok {
			n++
		}
	}
	return n
}

func (r *recorder) errors() []events.ErrorOccurred {
	var out []events.ErrorOccurred
	for _, ev := range r.events {
		if e, ok := ev.(events.ErrorOccurred); ok {
			out = append(out, e)
		}
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *recorder) {
	t.Helper()
	e, err := New(testRegistry(t), testHandlers())
	require.NoError(t, err)
	rec := &recorder{}
	e.Subscribe(rec.record)
	return e, rec
}

func TestSubmitNavigateAndReturn(t *testing.T) {
	t.Parallel()
	e, rec := newTestEngine(t)
	require.Equal(t, "main", e.ActiveNode().Template().ID)

	e.PostEvent(events.WidgetSubmitted{WidgetID: "text_field", Value: "hello"})
	require.Len(t, rec.events, 1)
	require.Equal(t, 1, rec.stateChanges())
	got, ok := e.TreeRoot().FormValue("text_field")
	require.True(t, ok)
	require.Equal(t, "hello", got)

	rec.reset()
	e.PostEvent(events.WidgetSubmitted{WidgetID: "goto_child", Value: true})
	require.Len(t, rec.events, 1)
	require.Equal(t, 1, rec.stateChanges())
	child := e.ActiveNode()
	require.Equal(t, "child", child.Template().ID)
	require.Equal(t, "main", child.Parent().Template().ID)
	require.Equal(t, "hello", child.Context()["text_field"])

	rec.reset()
	e.PostEvent(events.HorizontalNavigation{Direction: navtree.Previous})
	require.Equal(t, 1, rec.stateChanges())
	require.Equal(t, "main", e.ActiveNode().Template().ID)

	e.PostEvent(events.HorizontalNavigation{Direction: navtree.Next})
	require.Equal(t, "child", e.ActiveNode().Template().ID)

	rec.reset()
	e.PostEvent(events.BackNavigation{})
	require.Equal(t, 1, rec.stateChanges())
	require.Equal(t, "main", e.ActiveNode().Template().ID)
	require.Empty(t, e.TreeRoot().StackKeys())
}

func TestStateChangedCarriesRoot(t *testing.T) {
	t.Parallel()
	e, rec := newTestEngine(t)

	e.PostEvent(events.WidgetSubmitted{WidgetID: "text_field", Value: "x"})
	require.Len(t, rec.events, 1)
	sc, ok := rec.events[0].(events.StateChanged)
	require.True(t, ok)
	require.Same(t, e.TreeRoot(), sc.Root)
}

func TestUnknownWidgetDropped(t *testing.T) {
	t.Parallel()
	e, rec := newTestEngine(t)

	e.PostEvent(events.WidgetSubmitted{WidgetID: "no_such_widget", Value: 1})
	require.Empty(t, rec.events)
	require.Empty(t, e.TreeRoot().FormData())
}

func TestHandlerErrorPublishesError(t *testing.T) {
	t.Parallel()
	e, rec := newTestEngine(t)

	e.PostEvent(events.WidgetSubmitted{WidgetID: "broken", Value: true})
	require.Equal(t, 0, rec.stateChanges())
	errs := rec.errors()
	require.Len(t, errs, 1)
	require.Equal(t, titleHandler, errs[0].Title)
	require.Contains(t, errs[0].Message, "boom")
	require.Equal(t, "main", e.ActiveNode().Template().ID)
	require.Empty(t, e.TreeRoot().StackKeys())

	// The submitted value was recorded before the handler ran.
	_, ok := e.TreeRoot().FormValue("broken")
	require.True(t, ok)
}

func TestHandlerPanicPublishesError(t *testing.T) {
	t.Parallel()
	e, rec := newTestEngine(t)

	e.PostEvent(events.WidgetSubmitted{WidgetID: "explode", Value: true})
	errs := rec.errors()
	require.Len(t, errs, 1)
	require.Equal(t, titleHandler, errs[0].Title)
	require.Contains(t, errs[0].Message, "kaboom")

	// Still usable afterwards.
	rec.reset()
	e.PostEvent(events.WidgetSubmitted{WidgetID: "goto_child", Value: true})
	require.Equal(t, "child", e.ActiveNode().Template().ID)
}

func TestUnknownTargetKeepsFormValue(t *testing.T) {
	t.Parallel()
	e, rec := newTestEngine(t)

	e.PostEvent(events.WidgetSubmitted{WidgetID: "nowhere", Value: "v"})
	require.Equal(t, 0, rec.stateChanges())
	errs := rec.errors()
	require.Len(t, errs, 1)
	require.Equal(t, titleNavigation, errs[0].Title)
	require.Equal(t, 1, e.Tree().Len())

	got, ok := e.TreeRoot().FormValue("nowhere")
	require.True(t, ok)
	require.Equal(t, "v", got)
}

func TestUnknownHandlerIDPublishesError(t *testing.T) {
	t.Parallel()
	e, err := New(testRegistry(t), handler.Registry{})
	require.NoError(t, err)
	rec := &recorder{}
	e.Subscribe(rec.record)

	e.PostEvent(events.WidgetSubmitted{WidgetID: "goto_child", Value: true})
	errs := rec.errors()
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "main_handler")
}

func TestNoOpNavigationPublishesNothing(t *testing.T) {
	t.Parallel()
	e, rec := newTestEngine(t)

	e.PostEvent(events.BackNavigation{})
	e.PostEvent(events.HorizontalNavigation{Direction: navtree.Previous})
	e.PostEvent(events.HorizontalNavigation{Direction: navtree.Next})
	e.PostEvent(events.VerticalNavigation{Direction: navtree.Up})
	e.PostEvent(events.VerticalNavigation{Direction: navtree.Down})
	e.PostEvent(nil)
	require.Empty(t, rec.events)
}

func TestPanickingSubscriberDoesNotStopDelivery(t *testing.T) {
	t.Parallel()
	e, err := New(testRegistry(t), testHandlers())
	require.NoError(t, err)

	e.Subscribe(func(events.Outbound) { panic("subscriber") })
	rec := &recorder{}
	e.Subscribe(rec.record)

	e.PostEvent(events.WidgetSubmitted{WidgetID: "text_field", Value: "a"})
	require.Equal(t, 1, rec.stateChanges())
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()
	e, err := New(testRegistry(t), testHandlers())
	require.NoError(t, err)
	rec := &recorder{}
	id := e.Subscribe(rec.record)
	require.True(t, e.Unsubscribe(id))

	e.PostEvent(events.WidgetSubmitted{WidgetID: "text_field", Value: "a"})
	require.Empty(t, rec.events)
}

func TestSingleActiveAfterEveryEvent(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	seq := []events.Inbound{
		events.WidgetSubmitted{WidgetID: "goto_child", Value: true},
		events.HorizontalNavigation{Direction: navtree.Previous},
		events.WidgetSubmitted{WidgetID: "goto_child", Value: true},
		events.WidgetSubmitted{WidgetID: "child_field", Value: "c"},
		events.BackNavigation{},
		events.WidgetSubmitted{WidgetID: "broken", Value: true},
		events.HorizontalNavigation{Direction: navtree.Next},
	}
	for _, ev := range seq {
		e.PostEvent(ev)
		active := 0
		e.Tree().Walk(func(n *navtree.Node, _ int) bool {
			if n.IsActive() {
				active++
				require.Same(t, e.ActiveNode(), n)
			}
			return true
		})
		require.Equal(t, 1, active, "after %s", events.Name(ev))
	}
}

func TestNewFailsWithoutEntry(t *testing.T) {
	t.Parallel()
	reg, err := panel.NewRegistry("absent", nil)
	require.NoError(t, err)
	_, err = New(reg, nil)
	require.ErrorIs(t, err, navtree.ErrNoEntryPanel)
}

func TestTreeAccessIsReadOnly(t *testing.T) {
	t.Parallel()
	engineMethods := []string{"ActiveNode", "PostEvent", "Subscribe", "Tree", "TreeRoot", "Unsubscribe"}
	viewMethods := []string{"Active", "FindNodeByWidgetID", "Len", "Lookup", "PathToActive", "Root", "Walk", "ColumnPath"}
	treeType := reflect.TypeOf(&navtree.Tree{})

	et := reflect.TypeOf(&Engine{})
	for i := 0; i < et.NumMethod(); i++ {
		m := et.Method(i)
		require.Contains(t, engineMethods, m.Name)
		for j := 0; j < m.Type.NumOut(); j++ {
			require.NotEqual(t, treeType, m.Type.Out(j), m.Name)
		}
	}

	vt := reflect.TypeOf(navtree.View{})
	require.Equal(t, reflect.Struct, vt.Kind())
	for i := 0; i < vt.NumMethod(); i++ {
		require.Contains(t, viewMethods, vt.Method(i).Name)
	}

	e, _ := newTestEngine(t)
	e.PostEvent(events.WidgetSubmitted{WidgetID: "goto_child", Value: true})
	view := e.Tree()
	require.Same(t, e.ActiveNode(), view.Active())
	require.Equal(t, "child", view.Active().Template().ID)
	require.Len(t, view.ColumnPath(), 2)
}
