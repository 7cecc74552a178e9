package navtree

import "github.com/google/uuid"

// View is read access to a Tree. Renderers and recorders get a View so that
// every change goes through the owner of the Tree.
type View struct {
	t *Tree
}

// ReadOnly returns a View of t.
func (t *Tree) ReadOnly() View { return View{t: t} }

func (v View) Root() *Node { return v.t.Root() }

func (v View) Active() *Node { return v.t.Active() }

func (v View) Len() int { return v.t.Len() }

func (v View) Lookup(id uuid.UUID) (*Node, bool) { return v.t.Lookup(id) }

func (v View) FindNodeByWidgetID(widgetID string) *Node { return v.t.FindNodeByWidgetID(widgetID) }

func (v View) PathToActive() []*Node { return v.t.PathToActive() }

func (v View) ColumnPath() []*Node { return v.t.ColumnPath() }

func (v View) Walk(fn func(n *Node, depth int) bool) { v.t.Walk(fn) }
