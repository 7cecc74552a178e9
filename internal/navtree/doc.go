// Package navtree owns the tree of live panel instances and every algorithm
// that changes its shape: descend, ascend, sibling reordering and recursive
// teardown.
//
// Nodes live in an arena keyed by their uuid. Parent links and child stacks
// hold ids, never pointers, so destroying a branch is a matter of deleting
// arena entries. Exactly one node is active at any time.
//
// A Tree is not safe for concurrent use. Callers serialize access, normally
// by routing every change through the engine.
package navtree
