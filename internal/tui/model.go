// Package tui renders a panelflow engine in the terminal as a row of bordered
// columns, one per panel on the focused path.
package tui

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/jask/panelflow/internal/bus"
	"github.com/jask/panelflow/internal/engine"
	"github.com/jask/panelflow/internal/events"
	"github.com/jask/panelflow/internal/keys"
	"github.com/jask/panelflow/internal/navtree"
	"github.com/jask/panelflow/internal/panel"
)

type Options struct {
	Columns int
	Keys    *keys.Registry
	Logger  *slog.Logger
}

type widgetKey struct {
	node   uuid.UUID
	widget string
}

// Model is the bubbletea model. It owns per-node UI state (focused widget,
// text buffers, option cursors) and drops it once the node leaves the tree.
type Model struct {
	eng     *engine.Engine
	keys    *keys.Registry
	logger  *slog.Logger
	columns int
	sub     bus.Subscription

	width  int
	height int

	focus   map[uuid.UUID]int
	inputs  map[widgetKey]*textinput.Model
	options map[widgetKey]int

	overlay *events.ErrorOccurred
	status  string
}

func New(eng *engine.Engine, opts Options) *Model {
	if opts.Columns < 1 {
		opts.Columns = 3
	}
	if opts.Keys == nil {
		opts.Keys = keys.NewRegistry(keys.DefaultBindings())
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Model{
		eng:     eng,
		keys:    opts.Keys,
		logger:  opts.Logger,
		columns: opts.Columns,
		width:   100,
		height:  24,
		focus:   map[uuid.UUID]int{},
		inputs:  map[widgetKey]*textinput.Model{},
		options: map[widgetKey]int{},
	}
	m.sub = eng.Subscribe(m.onEvent)
	m.syncFocus()
	return m
}

// Close stops listening to the engine.
func (m *Model) Close() {
	m.eng.Unsubscribe(m.sub)
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) onEvent(ev events.Outbound) {
	switch ev := ev.(type) {
	case events.StateChanged:
		m.prune()
		m.status = ""
	case events.ErrorOccurred:
		m.overlay = &ev
		m.logger.Info("error shown", "title", ev.Title, "message", ev.Message)
	}
}

// prune forgets UI state for nodes that no longer exist.
func (m *Model) prune() {
	tree := m.eng.Tree()
	for id := range m.focus {
		if _, ok := tree.Lookup(id); !ok {
			delete(m.focus, id)
		}
	}
	for k := range m.inputs {
		if _, ok := tree.Lookup(k.node); !ok {
			delete(m.inputs, k)
		}
	}
	for k := range m.options {
		if _, ok := tree.Lookup(k.node); !ok {
			delete(m.options, k)
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case statusMsg:
		m.status = string(msg)
		return m, nil
	}
	return m, nil
}

type statusMsg string

func (m *Model) scope() string {
	if m.overlay != nil {
		return keys.ScopeOverlay
	}
	if _, ok := m.focusedWidget().(*panel.TextInput); ok {
		return keys.ScopeEdit
	}
	return keys.ScopePanel
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	scope := m.scope()
	if m.keys.IsAction(msg, keys.ActionQuit, scope) {
		return tea.Quit
	}
	if scope == keys.ScopeOverlay {
		if m.keys.IsAction(msg, keys.ActionDismiss, scope) {
			m.overlay = nil
		}
		return nil
	}

	switch m.keys.Action(msg, scope) {
	case keys.ActionColumnNext:
		return m.post(events.HorizontalNavigation{Direction: navtree.Next})
	case keys.ActionColumnPrev:
		return m.post(events.HorizontalNavigation{Direction: navtree.Previous})
	case keys.ActionStackUp:
		return m.post(events.VerticalNavigation{Direction: navtree.Up})
	case keys.ActionStackDown:
		return m.post(events.VerticalNavigation{Direction: navtree.Down})
	case keys.ActionBack:
		return m.post(events.BackNavigation{})
	case keys.ActionFocusNext:
		return m.moveFocus(1)
	case keys.ActionFocusPrev:
		return m.moveFocus(-1)
	case keys.ActionOptionNext:
		m.cycleOption(1)
		return nil
	case keys.ActionOptionPrev:
		m.cycleOption(-1)
		return nil
	case keys.ActionSubmit:
		return m.submit()
	}

	if scope == keys.ScopeEdit {
		if in := m.input(m.eng.ActiveNode(), m.focusedWidget()); in != nil {
			next, cmd := in.Update(msg)
			*in = next
			return cmd
		}
	}
	return nil
}

func (m *Model) post(ev events.Inbound) tea.Cmd {
	m.logger.Debug("post", "event", events.Name(ev))
	m.eng.PostEvent(ev)
	return m.syncFocus()
}

func (m *Model) focusedWidget() panel.Widget {
	active := m.eng.ActiveNode()
	if active == nil {
		return nil
	}
	ws := active.Template().Widgets
	if len(ws) == 0 {
		return nil
	}
	i := min(m.focus[active.ID()], len(ws)-1)
	return ws[i]
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	active := m.eng.ActiveNode()
	n := len(active.Template().Widgets)
	if n == 0 {
		return nil
	}
	m.focus[active.ID()] = ((m.focus[active.ID()]+delta)%n + n) % n
	return m.syncFocus()
}

// syncFocus blurs every text input except the focused one on the active node.
func (m *Model) syncFocus() tea.Cmd {
	active := m.eng.ActiveNode()
	if active == nil {
		return nil
	}
	var cmd tea.Cmd
	for k, in := range m.inputs {
		if k.node != active.ID() {
			in.Blur()
		}
	}
	w := m.focusedWidget()
	for _, other := range active.Template().Widgets {
		in := m.input(active, other)
		if in == nil {
			continue
		}
		if other == w {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

// input returns the text buffer for a text widget, creating it on first use
// from the node's recorded value or the widget default.
func (m *Model) input(n *navtree.Node, w panel.Widget) *textinput.Model {
	ti, ok := w.(*panel.TextInput)
	if !ok || n == nil {
		return nil
	}
	k := widgetKey{node: n.ID(), widget: ti.ID}
	if in, ok := m.inputs[k]; ok {
		return in
	}
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = ti.Placeholder
	in.Width = 24
	if v, ok := n.FormValue(ti.ID); ok {
		in.SetValue(fmt.Sprint(v))
	} else if ti.Value != nil {
		in.SetValue(fmt.Sprint(ti.Value))
	}
	m.inputs[k] = &in
	return &in
}

func (m *Model) optionIndex(n *navtree.Node, w *panel.OptionSelect) int {
	k := widgetKey{node: n.ID(), widget: w.ID}
	if i, ok := m.options[k]; ok {
		return i
	}
	current, ok := n.FormValue(w.ID)
	if !ok {
		current = w.Value
	}
	if s, ok := current.(string); ok {
		if i := slices.Index(w.Options, s); i >= 0 {
			return i
		}
	}
	return 0
}

func (m *Model) cycleOption(delta int) {
	active := m.eng.ActiveNode()
	w, ok := m.focusedWidget().(*panel.OptionSelect)
	if !ok || len(w.Options) == 0 {
		return
	}
	n := len(w.Options)
	i := m.optionIndex(active, w)
	m.options[widgetKey{node: active.ID(), widget: w.ID}] = ((i+delta)%n + n) % n
}

// submit posts the focused widget's value.
func (m *Model) submit() tea.Cmd {
	active := m.eng.ActiveNode()
	w := m.focusedWidget()
	if w == nil {
		return nil
	}
	var value any
	switch w := w.(type) {
	case *panel.TextInput:
		value = m.input(active, w).Value()
	case *panel.Button:
		value = w.Value
		if value == nil {
			value = true
		}
	case *panel.OptionSelect:
		if len(w.Options) == 0 {
			return nil
		}
		value = w.Options[m.optionIndex(active, w)]
	case *panel.PanelLink:
		value = w.TargetPanelID
	}
	cmd := m.post(events.WidgetSubmitted{WidgetID: w.Base().ID, Value: value})
	if m.overlay == nil {
		return tea.Batch(cmd, func() tea.Msg { return statusMsg("submitted " + w.Base().ID) })
	}
	return cmd
}

// visible returns the window of column nodes to draw and how many are hidden
// on each side. The active column is always inside the window.
func (m *Model) visible() (cols []*navtree.Node, hiddenLeft, hiddenRight int) {
	path := m.eng.Tree().ColumnPath()
	ai := slices.Index(path, m.eng.ActiveNode())
	end := len(path)
	start := max(0, end-m.columns)
	if ai >= 0 && ai < start {
		start = ai
		end = min(len(path), start+m.columns)
	}
	return path[start:end], start, len(path) - end
}

func (m *Model) View() string {
	cols, hiddenLeft, hiddenRight := m.visible()

	header := m.renderHeader(cols, hiddenLeft, hiddenRight)
	footer := m.renderFooter()
	bodyHeight := max(3, m.height-lipgloss.Height(header)-lipgloss.Height(footer))

	widths := splitWidths(m.width, m.columns)
	rendered := make([]string, 0, len(cols))
	for i, n := range cols {
		rendered = append(rendered, m.renderColumn(n).render(widths[i], bodyHeight))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	out := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	if m.overlay != nil {
		card := errCardStyle.Render(errTitleStyle.Render(m.overlay.Title) + "\n\n" +
			m.overlay.Message + "\n\n" + mutedStyle.Render("enter/esc to dismiss"))
		out = overlayCenter(out, card, m.width, m.height)
	}
	return out
}

func (m *Model) renderHeader(cols []*navtree.Node, hiddenLeft, hiddenRight int) string {
	var b strings.Builder
	if hiddenLeft > 0 {
		b.WriteString(hiddenStyle.Render(fmt.Sprintf("◀ %d ", hiddenLeft)))
	}
	for i, n := range cols {
		if i > 0 {
			b.WriteString(crumbSepStyle.Render(" › "))
		}
		title := n.Template().Title
		if n.IsActive() {
			b.WriteString(headerStyle.Render(title))
		} else {
			b.WriteString(mutedStyle.Render(title))
		}
	}
	if hiddenRight > 0 {
		b.WriteString(hiddenStyle.Render(fmt.Sprintf(" %d ▶", hiddenRight)))
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	var parts []string
	for _, h := range m.keys.Help(m.scope()) {
		k, desc, _ := strings.Cut(h, " ")
		parts = append(parts, keyStyle.Render(k)+" "+helpDescStyle.Render(desc))
	}
	footer := strings.Join(parts, "  ")
	if m.status != "" {
		footer = statusBarStyle.Render(" "+m.status+" ") + "\n" + footer
	}
	return footer
}

func (m *Model) renderColumn(n *navtree.Node) pane {
	tpl := n.Template()
	title := tpl.Title
	if pos, size := stackPosition(n); size > 1 {
		title = fmt.Sprintf("%s [%d/%d]", title, pos+1, size)
	}

	var lines []string
	if tpl.Description != "" {
		lines = append(lines, mutedStyle.Render(tpl.Description), "")
	}
	focused := -1
	if n.IsActive() {
		focused = min(m.focus[n.ID()], len(tpl.Widgets)-1)
	}
	for i, w := range tpl.Widgets {
		marker := "  "
		if i == focused {
			marker = focusStyle.Render("▸ ")
		}
		lines = append(lines, marker+m.renderWidget(n, w))
	}
	return pane{title: title, content: strings.Join(lines, "\n"), active: n.IsActive(), dimmed: !n.IsActive()}
}

func (m *Model) renderWidget(n *navtree.Node, w panel.Widget) string {
	base := w.Base()
	switch w := w.(type) {
	case *panel.TextInput:
		return base.Title + ": " + m.input(n, w).View()
	case *panel.Button:
		return "[ " + base.Title + " ]"
	case *panel.OptionSelect:
		if len(w.Options) == 0 {
			return base.Title + ": " + mutedStyle.Render("(no options)")
		}
		return base.Title + ": ‹ " + w.Options[m.optionIndex(n, w)] + " ›"
	case *panel.PanelLink:
		line := linkStyle.Render("→ " + base.Title)
		if w.Description != "" {
			line += " " + mutedStyle.Render(w.Description)
		}
		return line
	}
	return base.Title
}

// stackPosition finds n in its parent's stack.
func stackPosition(n *navtree.Node) (pos, size int) {
	parent := n.Parent()
	if parent == nil {
		return 0, 1
	}
	for _, key := range parent.StackKeys() {
		stack := parent.Stack(key)
		if i := slices.Index(stack, n); i >= 0 {
			return i, len(stack)
		}
	}
	return 0, 1
}
