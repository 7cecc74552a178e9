package navtree

import (
	"maps"

	"github.com/google/uuid"

	"github.com/jask/panelflow/internal/panel"
)

// Node is one live instance of a panel template. Its state is read through
// accessors and changed only by the owning Tree.
type Node struct {
	id       uuid.UUID
	tree     *Tree
	template *panel.Template
	context  map[string]any
	form     map[string]any
	parent   uuid.UUID
	stacks   map[string][]uuid.UUID
	order    []string
	active   bool
}

func newNode(tree *Tree, tpl *panel.Template, context map[string]any, parent uuid.UUID) *Node {
	if context == nil {
		context = map[string]any{}
	}
	return &Node{
		id:       tree.newID(),
		tree:     tree,
		template: tpl,
		context:  context,
		form:     map[string]any{},
		parent:   parent,
		stacks:   map[string][]uuid.UUID{},
	}
}

func (n *Node) ID() uuid.UUID { return n.id }

func (n *Node) Template() *panel.Template { return n.template }

func (n *Node) IsActive() bool { return n.active }

func (n *Node) IsRoot() bool { return n.tree != nil && n.tree.root == n }

// Context returns a copy of the data inherited from the parent at creation.
func (n *Node) Context() map[string]any { return maps.Clone(n.context) }

// FormData returns a copy of the values submitted to this node so far.
func (n *Node) FormData() map[string]any { return maps.Clone(n.form) }

func (n *Node) FormValue(key string) (any, bool) {
	v, ok := n.form[key]
	return v, ok
}

// Parent returns nil for the root and for destroyed nodes.
func (n *Node) Parent() *Node {
	if n.parent == uuid.Nil || n.tree == nil {
		return nil
	}
	return n.tree.nodes[n.parent]
}

// StackKeys returns the widget ids that own a child stack, in the order the
// stacks were created.
func (n *Node) StackKeys() []string {
	return append([]string(nil), n.order...)
}

// Stack returns the child stack spawned by widgetID, bottom first.
func (n *Node) Stack(widgetID string) []*Node {
	ids := n.stacks[widgetID]
	if len(ids) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if child, ok := n.tree.nodes[id]; ok {
			out = append(out, child)
		}
	}
	return out
}

func (n *Node) HasChildren() bool { return len(n.order) > 0 }

// stackOf returns the widget id of the parent stack holding n and n's index
// in it.
func (n *Node) stackOf() (string, int, bool) {
	parent := n.Parent()
	if parent == nil {
		return "", -1, false
	}
	for _, key := range parent.order {
		for i, id := range parent.stacks[key] {
			if id == n.id {
				return key, i, true
			}
		}
	}
	return "", -1, false
}

func (n *Node) setStack(widgetID string, ids []uuid.UUID) {
	if _, exists := n.stacks[widgetID]; !exists {
		n.order = append(n.order, widgetID)
	}
	n.stacks[widgetID] = ids
}

func (n *Node) deleteStack(widgetID string) {
	if _, exists := n.stacks[widgetID]; !exists {
		return
	}
	delete(n.stacks, widgetID)
	for i, key := range n.order {
		if key == widgetID {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}
