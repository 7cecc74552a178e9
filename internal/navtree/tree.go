package navtree

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/jask/panelflow/internal/panel"
)

var (
	ErrUnknownPanel = errors.New("unknown panel")
	ErrNoEntryPanel = errors.New("entry panel not found")
	ErrForeignNode  = errors.New("node does not belong to this tree")
)

// HDirection moves focus along the root-to-active path.
type HDirection string

const (
	Next     HDirection = "next"
	Previous HDirection = "previous"
)

// VDirection moves focus within the stack holding the active node.
type VDirection string

const (
	Up   VDirection = "up"
	Down VDirection = "down"
)

// Tree is the arena of live nodes rooted at an instance of the entry panel.
type Tree struct {
	registry *panel.Registry
	nodes    map[uuid.UUID]*Node
	root     *Node
	active   *Node
	trail    []uuid.UUID
	newID    func() uuid.UUID
}

// New builds a tree whose active root instantiates the registry's entry panel.
func New(registry *panel.Registry) (*Tree, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: no registry", ErrNoEntryPanel)
	}
	entry := registry.Entry()
	if entry == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoEntryPanel, registry.EntryID())
	}
	t := &Tree{
		registry: registry,
		nodes:    map[uuid.UUID]*Node{},
		newID:    uuid.New,
	}
	t.root = t.adopt(newNode(t, entry, nil, uuid.Nil))
	t.setActive(t.root)
	return t, nil
}

func (t *Tree) Root() *Node { return t.root }

// Active returns the focused node. It is nil only for a zero Tree.
func (t *Tree) Active() *Node { return t.active }

// Len reports how many nodes are currently alive.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Lookup(id uuid.UUID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

func (t *Tree) owns(n *Node) bool {
	if n == nil {
		return false
	}
	got, ok := t.nodes[n.id]
	return ok && got == n
}

func (t *Tree) adopt(n *Node) *Node {
	t.nodes[n.id] = n
	return n
}

// SetActive moves focus to n, clearing the flag on the previous active node
// first.
func (t *Tree) SetActive(n *Node) error {
	if !t.owns(n) {
		return ErrForeignNode
	}
	t.setActive(n)
	return nil
}

// setActive is SetActive for nodes the tree already owns.
func (t *Tree) setActive(n *Node) {
	if t.active != nil {
		t.active.active = false
	}
	n.active = true
	t.active = n
	if !slices.Contains(t.trail, n.id) {
		t.trail = t.trail[:0]
		for _, p := range t.PathToActive() {
			t.trail = append(t.trail, p.id)
		}
	}
}

// FindNodeByWidgetID searches every branch depth-first, pre-order, and returns
// the first node whose template declares the widget. Widget ids are not
// required to be unique across panels; callers get the first hit.
func (t *Tree) FindNodeByWidgetID(widgetID string) *Node {
	if t.root == nil {
		return nil
	}
	return t.find(t.root, widgetID)
}

func (t *Tree) find(n *Node, widgetID string) *Node {
	if n.template.HasWidget(widgetID) {
		return n
	}
	for _, key := range n.order {
		for _, id := range n.stacks[key] {
			child, ok := t.nodes[id]
			if !ok {
				continue
			}
			if hit := t.find(child, widgetID); hit != nil {
				return hit
			}
		}
	}
	return nil
}

// PathToActive returns the nodes from the root down to the active node.
func (t *Tree) PathToActive() []*Node {
	var path []*Node
	for n := t.active; n != nil; n = n.Parent() {
		path = append(path, n)
	}
	slices.Reverse(path)
	return path
}

// destroyStack tears down every member of a stack and its descendants,
// children first, and removes them from the arena.
func (t *Tree) destroyStack(stack []uuid.UUID) {
	for _, id := range stack {
		n, ok := t.nodes[id]
		if !ok {
			continue
		}
		for _, key := range n.order {
			t.destroyStack(n.stacks[key])
		}
		n.stacks = map[string][]uuid.UUID{}
		n.order = nil
		n.parent = uuid.Nil
		n.active = false
		if t.active == n {
			t.active = nil
		}
		delete(t.nodes, id)
	}
}

// DestroyStack removes the stack owned by widgetID under n together with every
// descendant. If the active node was inside the stack, focus moves to n.
func (t *Tree) DestroyStack(n *Node, widgetID string) bool {
	if !t.owns(n) {
		return false
	}
	stack, ok := n.stacks[widgetID]
	if !ok {
		return false
	}
	t.destroyStack(stack)
	n.deleteStack(widgetID)
	if t.active == nil {
		t.setActive(n)
	}
	return true
}

func (t *Tree) resolve(target panel.Target) (*panel.Template, error) {
	if target.Template != nil {
		return target.Template, nil
	}
	tpl, ok := t.registry.Lookup(target.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPanel, target.ID)
	}
	return tpl, nil
}

// NavigateDown opens target as the single child of source under widgetID and
// focuses it. An existing stack for the same widget is destroyed first, so
// re-triggering a link always starts that branch fresh. The child's context is
// a copy of source's form data at this moment.
func (t *Tree) NavigateDown(source *Node, widgetID string, target panel.Target) (*Node, error) {
	if !t.owns(source) {
		return nil, ErrForeignNode
	}
	tpl, err := t.resolve(target)
	if err != nil {
		return nil, err
	}
	if old, exists := source.stacks[widgetID]; exists {
		t.destroyStack(old)
	}
	child := t.adopt(newNode(t, tpl, maps.Clone(source.form), source.id))
	source.setStack(widgetID, []uuid.UUID{child.id})
	t.setActive(child)
	return child, nil
}

// NavigateBack closes the active node. Focus goes to the new top of its stack,
// or to the parent once the stack is empty. It is a no-op at the root.
func (t *Tree) NavigateBack() bool {
	cur := t.active
	if cur == nil || cur == t.root {
		return false
	}
	parent := cur.Parent()
	key, idx, ok := cur.stackOf()
	if parent == nil || !ok {
		return false
	}
	for _, k := range cur.order {
		t.destroyStack(cur.stacks[k])
	}
	cur.stacks = map[string][]uuid.UUID{}
	cur.order = nil

	remaining := slices.Delete(slices.Clone(parent.stacks[key]), idx, idx+1)
	cur.parent = uuid.Nil
	cur.active = false
	t.active = nil
	delete(t.nodes, cur.id)

	if len(remaining) > 0 {
		parent.stacks[key] = remaining
		t.setActive(t.nodes[remaining[len(remaining)-1]])
		return true
	}
	parent.deleteStack(key)
	t.setActive(parent)
	return true
}

// ColumnPath is the root-to-active path extended by the nodes that were
// focused below the active node before it was reached with Previous, as long
// as they are still attached.
func (t *Tree) ColumnPath() []*Node {
	path := t.PathToActive()
	if t.active == nil {
		return path
	}
	at := slices.Index(t.trail, t.active.id)
	if at < 0 {
		return path
	}
	for _, id := range t.trail[at+1:] {
		n, ok := t.nodes[id]
		if !ok || n.Parent() != path[len(path)-1] {
			break
		}
		path = append(path, n)
	}
	return path
}

// NavigateHorizontal shifts focus one step along the column path. Next moves
// deeper, Previous toward the root. There is no wraparound.
func (t *Tree) NavigateHorizontal(dir HDirection) bool {
	path := t.ColumnPath()
	idx := slices.Index(path, t.active)
	if idx < 0 {
		return false
	}
	switch dir {
	case Next:
		idx++
	case Previous:
		idx--
	default:
		return false
	}
	if idx < 0 || idx >= len(path) {
		return false
	}
	t.setActive(path[idx])
	return true
}

// NavigateVertical promotes a neighbour in the active node's stack to the top
// and focuses it. Up selects the entry after the active one, Down the entry
// before it.
func (t *Tree) NavigateVertical(dir VDirection) bool {
	cur := t.active
	if cur == nil {
		return false
	}
	parent := cur.Parent()
	if parent == nil {
		return false
	}
	key, idx, ok := cur.stackOf()
	if !ok {
		return false
	}
	stack := parent.stacks[key]
	if len(stack) <= 1 {
		return false
	}
	switch dir {
	case Up:
		idx++
	case Down:
		idx--
	default:
		return false
	}
	if idx < 0 || idx >= len(stack) {
		return false
	}
	picked := stack[idx]
	reordered := append(slices.Delete(slices.Clone(stack), idx, idx+1), picked)
	parent.stacks[key] = reordered
	t.setActive(t.nodes[picked])
	return true
}

// SetFormValue records a submitted widget value on n.
func (t *Tree) SetFormValue(n *Node, key string, value any) error {
	if !t.owns(n) {
		return ErrForeignNode
	}
	n.form[key] = value
	return nil
}

// HandlerState hands out what a handler is built from: a copy of n's context
// and n's live form data, so that handler writes to the form persist.
func (t *Tree) HandlerState(n *Node) (context, form map[string]any, err error) {
	if !t.owns(n) {
		return nil, nil, ErrForeignNode
	}
	return maps.Clone(n.context), n.form, nil
}

// Walk visits every live node in pre-order, stopping early when fn returns
// false.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	if t.root == nil {
		return
	}
	t.walk(t.root, 0, fn)
}

func (t *Tree) walk(n *Node, depth int, fn func(*Node, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	for _, key := range n.order {
		for _, id := range n.stacks[key] {
			if child, ok := t.nodes[id]; ok {
				if !t.walk(child, depth+1, fn) {
					return false
				}
			}
		}
	}
	return true
}
