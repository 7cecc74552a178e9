// Package engine is the single entry point through which a renderer drives
// panel navigation. It routes inbound events to the navigation tree and the
// handler registry and publishes the outcome on its bus.
//
// Every PostEvent call runs to completion synchronously. The engine holds no
// locks; renderers running on another goroutine must serialize their calls.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jask/panelflow/internal/bus"
	"github.com/jask/panelflow/internal/events"
	"github.com/jask/panelflow/internal/handler"
	"github.com/jask/panelflow/internal/navtree"
	"github.com/jask/panelflow/internal/panel"
)

const (
	titleInternal   = "Internal error"
	titleHandler    = "Handler error"
	titleNavigation = "Navigation error"
)

// Engine owns the navigation tree, the handler registry and the subscriber
// list.
type Engine struct {
	tree     *navtree.Tree
	handlers handler.Registry
	bus      *bus.Bus[events.Outbound]
	logger   *slog.Logger
}

type Option func(*Engine)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New builds an engine whose tree starts at the registry's entry panel.
func New(registry *panel.Registry, handlers handler.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		handlers: handlers,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.handlers == nil {
		e.handlers = handler.Registry{}
	}
	tree, err := navtree.New(registry)
	if err != nil {
		return nil, fmt.Errorf("build navigation tree: %w", err)
	}
	e.tree = tree
	e.bus = bus.New[events.Outbound](e.logger)
	return e, nil
}

func (e *Engine) Subscribe(fn func(events.Outbound)) bus.Subscription {
	return e.bus.Subscribe(fn)
}

func (e *Engine) Unsubscribe(id bus.Subscription) bool {
	return e.bus.Unsubscribe(id)
}

func (e *Engine) TreeRoot() *navtree.Node { return e.tree.Root() }

func (e *Engine) ActiveNode() *navtree.Node { return e.tree.Active() }

// Tree exposes read access for renderers that need paths or lookups. Changes
// only happen through PostEvent.
func (e *Engine) Tree() navtree.View { return e.tree.ReadOnly() }

// PostEvent applies one inbound event. It never panics: failures are
// published as ErrorOccurred and the engine stays usable.
func (e *Engine) PostEvent(ev events.Inbound) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("dispatch panicked", "event", events.Name(ev), "panic", fmt.Sprint(p))
			e.publish(events.ErrorOccurred{Title: titleInternal, Message: fmt.Sprint(p)})
		}
	}()
	e.logger.Debug("dispatch", "event", events.Name(ev))

	switch ev := ev.(type) {
	case events.WidgetSubmitted:
		e.widgetSubmitted(ev)
	case events.HorizontalNavigation:
		e.changed(e.tree.NavigateHorizontal(ev.Direction))
	case events.VerticalNavigation:
		e.changed(e.tree.NavigateVertical(ev.Direction))
	case events.BackNavigation:
		e.changed(e.tree.NavigateBack())
	case nil:
		e.logger.Warn("nil event posted")
	default:
		e.publish(events.ErrorOccurred{Title: titleInternal, Message: fmt.Sprintf("unsupported event %T", ev)})
	}
}

func (e *Engine) widgetSubmitted(ev events.WidgetSubmitted) {
	node := e.tree.FindNodeByWidgetID(ev.WidgetID)
	if node == nil {
		e.logger.Debug("submission for unknown widget dropped", "widget", ev.WidgetID)
		return
	}
	// The value stays recorded even if the handler or navigation below fails.
	if err := e.tree.SetFormValue(node, ev.WidgetID, ev.Value); err != nil {
		e.fail(titleInternal, err)
		return
	}
	context, form, err := e.tree.HandlerState(node)
	if err != nil {
		e.fail(titleInternal, err)
		return
	}
	instr, err := e.handlers.Invoke(node.Template(), ev.WidgetID, ev.Value, context, form)
	if err != nil {
		e.logger.Warn("handler failed", "widget", ev.WidgetID, "panel", node.Template().ID, "err", err)
		e.fail(titleHandler, err)
		return
	}

	switch instr := instr.(type) {
	case handler.NavigateDown:
		e.navigateDown(node, ev.WidgetID, instr.Target)
	case nil:
		e.publishState()
	default:
		e.fail(titleInternal, fmt.Errorf("unsupported instruction %T", instr))
	}
}

func (e *Engine) navigateDown(source *navtree.Node, widgetID string, target panel.Target) {
	child, err := e.tree.NavigateDown(source, widgetID, target)
	if err != nil {
		e.logger.Warn("navigate down failed", "widget", widgetID, "target", target.String(), "err", err)
		title := titleInternal
		if errors.Is(err, navtree.ErrUnknownPanel) {
			title = titleNavigation
		}
		e.fail(title, err)
		return
	}
	e.logger.Debug("navigated down", "panel", child.Template().ID, "node", child.ID().String())
	e.publishState()
}

func (e *Engine) changed(ok bool) {
	if ok {
		e.publishState()
	}
}

func (e *Engine) publishState() {
	e.publish(events.StateChanged{Root: e.tree.Root()})
}

func (e *Engine) fail(title string, err error) {
	e.publish(events.ErrorOccurred{Title: title, Message: err.Error()})
}

func (e *Engine) publish(ev events.Outbound) {
	e.bus.Publish(ev)
}
