package navtree

import (
	"fmt"
	"maps"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/panelflow/internal/panel"
)

func testRegistry(t *testing.T) *panel.Registry {
	t.Helper()
	reg, err := panel.NewRegistry("main", []*panel.Template{
		{
			ID:    "main",
			Title: "Main",
			Widgets: []panel.Widget{
				&panel.TextInput{WidgetBase: panel.WidgetBase{ID: "text_field", Title: "Text"}},
				&panel.Button{WidgetBase: panel.WidgetBase{ID: "goto_child", Title: "Go"}},
				&panel.PanelLink{WidgetBase: panel.WidgetBase{ID: "other_link", Title: "Other"}, TargetPanelID: "other"},
			},
		},
		{
			ID:    "child",
			Title: "Child",
			Widgets: []panel.Widget{
				&panel.TextInput{WidgetBase: panel.WidgetBase{ID: "child_field"}},
				&panel.Button{WidgetBase: panel.WidgetBase{ID: "deeper"}},
			},
		},
		{
			ID:      "grandchild",
			Title:   "Grandchild",
			Widgets: []panel.Widget{&panel.TextInput{WidgetBase: panel.WidgetBase{ID: "gc_field"}}},
		},
		{
			ID:      "other",
			Title:   "Other",
			Widgets: []panel.Widget{&panel.Button{WidgetBase: panel.WidgetBase{ID: "child_field"}}},
		},
	})
	require.NoError(t, err)
	return reg
}

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := New(testRegistry(t))
	require.NoError(t, err)
	return tree
}

// pushNode appends a node to an existing stack. Navigation only ever creates
// single-element stacks, so tests build deeper stacks by hand.
func pushNode(t *testing.T, tree *Tree, source *Node, widgetID, panelID string) *Node {
	t.Helper()
	tpl, ok := tree.registry.Lookup(panelID)
	require.True(t, ok)
	child := tree.adopt(newNode(tree, tpl, maps.Clone(source.form), source.id))
	source.setStack(widgetID, append(slices.Clone(source.stacks[widgetID]), child.id))
	require.NoError(t, tree.SetActive(child))
	return child
}

func activeCount(tree *Tree) int {
	count := 0
	tree.Walk(func(n *Node, _ int) bool {
		if n.IsActive() {
			count++
		}
		return true
	})
	return count
}

type shapeEntry struct {
	panel  string
	depth  int
	active bool
}

func shape(tree *Tree) []shapeEntry {
	var out []shapeEntry
	tree.Walk(func(n *Node, depth int) bool {
		out = append(out, shapeEntry{panel: n.Template().ID, depth: depth, active: n.IsActive()})
		return true
	})
	return out
}

func TestNewActivatesRoot(t *testing.T) {
	tree := newTestTree(t)
	root := tree.Root()
	require.Equal(t, "main", root.Template().ID)
	require.True(t, root.IsActive())
	require.True(t, root.IsRoot())
	require.Nil(t, root.Parent())
	require.Same(t, root, tree.Active())
	require.Equal(t, []*Node{root}, tree.PathToActive())
	require.Equal(t, 1, tree.Len())
}

func TestNewFailsWithoutEntryPanel(t *testing.T) {
	reg, err := panel.NewRegistry("missing", []*panel.Template{{ID: "main"}})
	require.NoError(t, err)
	_, err = New(reg)
	require.ErrorIs(t, err, ErrNoEntryPanel)

	_, err = New(nil)
	require.ErrorIs(t, err, ErrNoEntryPanel)
}

func TestNavigateDownSnapshotsContext(t *testing.T) {
	tree := newTestTree(t)
	root := tree.Root()
	require.NoError(t, tree.SetFormValue(root, "text_field", "hello"))

	child, err := tree.NavigateDown(root, "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	require.Same(t, child, tree.Active())
	require.False(t, root.IsActive())
	require.Same(t, root, child.Parent())
	require.Equal(t, map[string]any{"text_field": "hello"}, child.Context())
	require.Empty(t, child.FormData())

	require.NoError(t, tree.SetFormValue(root, "text_field", "changed"))
	require.NoError(t, tree.SetFormValue(child, "text_field", "shadow"))
	require.Equal(t, "hello", child.Context()["text_field"])

	ctx := child.Context()
	ctx["text_field"] = "mutated copy"
	require.Equal(t, "hello", child.Context()["text_field"])
}

func TestNavigateDownReplacesStack(t *testing.T) {
	tree := newTestTree(t)
	root := tree.Root()

	first, err := tree.NavigateDown(root, "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	grand, err := tree.NavigateDown(first, "deeper", panel.ByID("grandchild"))
	require.NoError(t, err)
	require.Same(t, grand, tree.FindNodeByWidgetID("gc_field"))

	second, err := tree.NavigateDown(root, "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	require.NotEqual(t, first.ID(), second.ID())
	require.Equal(t, []*Node{second}, root.Stack("goto_child"))
	require.Nil(t, tree.FindNodeByWidgetID("gc_field"))
	require.Equal(t, 2, tree.Len())

	for _, gone := range []*Node{first, grand} {
		_, alive := tree.Lookup(gone.ID())
		require.False(t, alive)
		require.Nil(t, gone.Parent())
		require.False(t, gone.IsActive())
		require.Empty(t, gone.StackKeys())
	}
	require.Equal(t, 1, activeCount(tree))
}

func TestNavigateDownUnknownPanelLeavesTree(t *testing.T) {
	tree := newTestTree(t)
	before := shape(tree)
	_, err := tree.NavigateDown(tree.Root(), "goto_child", panel.ByID("nope"))
	require.ErrorIs(t, err, ErrUnknownPanel)
	require.Equal(t, before, shape(tree))
}

func TestNavigateDownInlineTemplate(t *testing.T) {
	tree := newTestTree(t)
	dyn := &panel.Template{ID: "dynamic", Widgets: []panel.Widget{&panel.Button{WidgetBase: panel.WidgetBase{ID: "dyn_ok"}}}}
	n, err := tree.NavigateDown(tree.Root(), "goto_child", panel.Inline(dyn))
	require.NoError(t, err)
	require.Same(t, dyn, n.Template())
	require.Same(t, n, tree.FindNodeByWidgetID("dyn_ok"))
}

func TestNavigateDownRejectsForeignNode(t *testing.T) {
	tree := newTestTree(t)
	other := newTestTree(t)
	_, err := tree.NavigateDown(other.Root(), "goto_child", panel.ByID("child"))
	require.ErrorIs(t, err, ErrForeignNode)
}

func TestSetActiveRejectsForeignNode(t *testing.T) {
	tree := newTestTree(t)
	other := newTestTree(t)
	require.ErrorIs(t, tree.SetActive(other.Root()), ErrForeignNode)
	require.True(t, tree.Root().IsActive())
	require.True(t, other.Root().IsActive())

	child, err := tree.NavigateDown(tree.Root(), "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	require.NoError(t, tree.SetActive(tree.Root()))
	require.Same(t, tree.Root(), tree.Active())
	require.False(t, child.IsActive())
}

func TestReadOnlyViewTracksTree(t *testing.T) {
	tree := newTestTree(t)
	view := tree.ReadOnly()
	child, err := tree.NavigateDown(tree.Root(), "goto_child", panel.ByID("child"))
	require.NoError(t, err)

	require.Same(t, tree.Root(), view.Root())
	require.Same(t, child, view.Active())
	require.Equal(t, 2, view.Len())
	got, ok := view.Lookup(child.ID())
	require.True(t, ok)
	require.Same(t, child, got)
	require.Equal(t, tree.PathToActive(), view.PathToActive())
	require.Equal(t, tree.ColumnPath(), view.ColumnPath())
	require.Same(t, tree.Root(), view.FindNodeByWidgetID("goto_child"))

	visited := 0
	view.Walk(func(*Node, int) bool { visited++; return true })
	require.Equal(t, 2, visited)
}

func TestDownBackRoundTrip(t *testing.T) {
	tree := newTestTree(t)
	child, err := tree.NavigateDown(tree.Root(), "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	before := shape(tree)
	beforeLen := tree.Len()

	grand, err := tree.NavigateDown(child, "deeper", panel.ByID("grandchild"))
	require.NoError(t, err)
	require.True(t, tree.NavigateBack())

	require.Equal(t, before, shape(tree))
	require.Equal(t, beforeLen, tree.Len())
	require.Same(t, child, tree.Active())
	require.Empty(t, child.StackKeys())
	_, alive := tree.Lookup(grand.ID())
	require.False(t, alive)
}

func TestNavigateBackAtRootIsNoop(t *testing.T) {
	tree := newTestTree(t)
	require.False(t, tree.NavigateBack())
	require.True(t, tree.Root().IsActive())
}

func TestNavigateBackDestroysDescendantsOfActive(t *testing.T) {
	tree := newTestTree(t)
	root := tree.Root()
	child, err := tree.NavigateDown(root, "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	_, err = tree.NavigateDown(child, "deeper", panel.ByID("grandchild"))
	require.NoError(t, err)
	require.True(t, tree.NavigateHorizontal(Previous))
	require.Same(t, child, tree.Active())

	require.True(t, tree.NavigateBack())
	require.Same(t, root, tree.Active())
	require.Empty(t, root.StackKeys())
	require.Equal(t, 1, tree.Len())
}

func TestNavigateBackPromotesRemainingTop(t *testing.T) {
	tree := newTestTree(t)
	root := tree.Root()
	a, err := tree.NavigateDown(root, "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	b := pushNode(t, tree, root, "goto_child", "grandchild")
	require.Equal(t, []*Node{a, b}, root.Stack("goto_child"))

	require.True(t, tree.NavigateBack())
	require.Same(t, a, tree.Active())
	require.Equal(t, []*Node{a}, root.Stack("goto_child"))

	require.True(t, tree.NavigateBack())
	require.Same(t, root, tree.Active())
	require.Empty(t, root.StackKeys())
}

func TestNavigateHorizontalBounds(t *testing.T) {
	tree := newTestTree(t)
	root := tree.Root()
	require.False(t, tree.NavigateHorizontal(Next))
	require.False(t, tree.NavigateHorizontal(Previous))

	child, err := tree.NavigateDown(root, "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	grand, err := tree.NavigateDown(child, "deeper", panel.ByID("grandchild"))
	require.NoError(t, err)
	require.False(t, tree.NavigateHorizontal(Next))

	require.True(t, tree.NavigateHorizontal(Previous))
	require.True(t, tree.NavigateHorizontal(Previous))
	require.Same(t, root, tree.Active())
	require.False(t, tree.NavigateHorizontal(Previous))
	require.Equal(t, []*Node{root}, tree.PathToActive())
	require.Equal(t, []*Node{root, child, grand}, tree.ColumnPath())

	require.True(t, tree.NavigateHorizontal(Next))
	require.Same(t, child, tree.Active())
	require.True(t, tree.NavigateHorizontal(Next))
	require.Same(t, grand, tree.Active())
	require.False(t, tree.NavigateHorizontal(Next))
	require.False(t, tree.NavigateHorizontal("sideways"))
}

func TestColumnPathDropsClosedNodes(t *testing.T) {
	tree := newTestTree(t)
	root := tree.Root()
	child, err := tree.NavigateDown(root, "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	_, err = tree.NavigateDown(child, "deeper", panel.ByID("grandchild"))
	require.NoError(t, err)

	require.True(t, tree.NavigateBack())
	require.Same(t, child, tree.Active())
	require.Equal(t, []*Node{root, child}, tree.ColumnPath())
	require.False(t, tree.NavigateHorizontal(Next))

	require.True(t, tree.NavigateHorizontal(Previous))
	replacement, err := tree.NavigateDown(root, "other_link", panel.ByID("other"))
	require.NoError(t, err)
	require.Equal(t, []*Node{root, replacement}, tree.ColumnPath())
}

func TestNavigateVerticalPromotesToTop(t *testing.T) {
	tree := newTestTree(t)
	root := tree.Root()
	a, err := tree.NavigateDown(root, "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	b := pushNode(t, tree, root, "goto_child", "grandchild")
	c := pushNode(t, tree, root, "goto_child", "other")

	require.False(t, tree.NavigateVertical(Up))
	require.True(t, tree.NavigateVertical(Down))
	require.Same(t, b, tree.Active())
	require.Equal(t, []*Node{a, c, b}, root.Stack("goto_child"))

	require.True(t, tree.NavigateBack())
	require.Same(t, c, tree.Active())
	require.Equal(t, []*Node{a, c}, root.Stack("goto_child"))
	require.Equal(t, 1, activeCount(tree))
}

func TestNavigateVerticalNoops(t *testing.T) {
	tree := newTestTree(t)
	require.False(t, tree.NavigateVertical(Up))
	_, err := tree.NavigateDown(tree.Root(), "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	require.False(t, tree.NavigateVertical(Up))
	require.False(t, tree.NavigateVertical(Down))
}

func TestDestroyStackCompleteness(t *testing.T) {
	tree := newTestTree(t)
	root := tree.Root()
	a, err := tree.NavigateDown(root, "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	g, err := tree.NavigateDown(a, "deeper", panel.ByID("grandchild"))
	require.NoError(t, err)
	b := pushNode(t, tree, root, "goto_child", "other")
	require.NoError(t, tree.SetActive(g))

	require.True(t, tree.DestroyStack(root, "goto_child"))
	for _, n := range []*Node{a, g, b} {
		require.Nil(t, n.Parent())
		require.False(t, n.IsActive())
		require.Empty(t, n.StackKeys())
		require.Nil(t, n.Stack("deeper"))
	}
	require.Same(t, root, tree.Active())
	require.Empty(t, root.StackKeys())
	require.Equal(t, 1, tree.Len())
	require.False(t, tree.DestroyStack(root, "goto_child"))
}

func TestFindNodeByWidgetIDPreOrder(t *testing.T) {
	tree := newTestTree(t)
	root := tree.Root()
	child, err := tree.NavigateDown(root, "goto_child", panel.ByID("child"))
	require.NoError(t, err)
	_, err = tree.NavigateDown(root, "other_link", panel.ByID("other"))
	require.NoError(t, err)

	// "child_field" exists on both panels; the first-created stack wins.
	require.Same(t, child, tree.FindNodeByWidgetID("child_field"))
	require.Same(t, root, tree.FindNodeByWidgetID("text_field"))
	require.Nil(t, tree.FindNodeByWidgetID("nope"))
	require.Equal(t, []string{"goto_child", "other_link"}, root.StackKeys())
}

func TestSingleActiveInvariantUnderRandomWalk(t *testing.T) {
	tree := newTestTree(t)
	rng := rand.New(rand.NewSource(42))
	links := map[string]string{"goto_child": "child", "other_link": "other", "deeper": "grandchild"}

	for step := 0; step < 500; step++ {
		switch rng.Intn(5) {
		case 0, 1:
			cur := tree.Active()
			for _, w := range cur.Template().Widgets {
				if target, ok := links[w.Base().ID]; ok {
					_, err := tree.NavigateDown(cur, w.Base().ID, panel.ByID(target))
					require.NoError(t, err)
					break
				}
			}
		case 2:
			tree.NavigateBack()
		case 3:
			if rng.Intn(2) == 0 {
				tree.NavigateHorizontal(Next)
			} else {
				tree.NavigateHorizontal(Previous)
			}
		case 4:
			if rng.Intn(2) == 0 {
				tree.NavigateVertical(Up)
			} else {
				tree.NavigateVertical(Down)
			}
		}
		require.Equal(t, 1, activeCount(tree), fmt.Sprintf("step %d", step))
		require.True(t, tree.Active().IsActive())
		path := tree.PathToActive()
		require.Same(t, tree.Root(), path[0])
		require.Same(t, tree.Active(), path[len(path)-1])
	}
}
