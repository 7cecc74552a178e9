package panel

import (
	"errors"
	"fmt"
)

var ErrDuplicatePanel = errors.New("duplicate panel id")

// Registry is the read-only set of panel templates and the entry panel id.
type Registry struct {
	entry  string
	panels map[string]*Template
	order  []string
}

// NewRegistry indexes templates by id. Panel ids must be unique; the entry id
// is not checked here, the loader reports it with its own error kind.
func NewRegistry(entry string, templates []*Template) (*Registry, error) {
	r := &Registry{
		entry:  entry,
		panels: make(map[string]*Template, len(templates)),
		order:  make([]string, 0, len(templates)),
	}
	for _, t := range templates {
		if t == nil {
			continue
		}
		if _, exists := r.panels[t.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePanel, t.ID)
		}
		r.panels[t.ID] = t
		r.order = append(r.order, t.ID)
	}
	return r, nil
}

func (r *Registry) Lookup(id string) (*Template, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.panels[id]
	return t, ok
}

func (r *Registry) EntryID() string {
	if r == nil {
		return ""
	}
	return r.entry
}

// Entry returns the entry panel template, or nil when the entry id is unknown.
func (r *Registry) Entry() *Template {
	t, _ := r.Lookup(r.EntryID())
	return t
}

// IDs returns panel ids in declaration order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
