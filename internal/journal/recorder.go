package journal

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/jask/panelflow/internal/bus"
	"github.com/jask/panelflow/internal/events"
	"github.com/jask/panelflow/internal/navtree"
)

// Source is anything that publishes outbound engine events.
type Source interface {
	Subscribe(fn func(events.Outbound)) bus.Subscription
	Unsubscribe(id bus.Subscription) bool
}

// Recorder writes every outbound event it sees to a Repo. Write failures are
// logged and never reach the publisher.
type Recorder struct {
	ctx    context.Context
	repo   *Repo
	logger *slog.Logger
	src    Source
	sub    bus.Subscription
}

func NewRecorder(ctx context.Context, repo *Repo, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder{ctx: ctx, repo: repo, logger: logger}
}

// Attach subscribes to src. Attaching again moves the subscription.
func (r *Recorder) Attach(src Source) {
	r.Detach()
	r.src = src
	r.sub = src.Subscribe(r.Handle)
}

func (r *Recorder) Detach() {
	if r.src != nil {
		r.src.Unsubscribe(r.sub)
		r.src = nil
		r.sub = 0
	}
}

// Handle records one event.
func (r *Recorder) Handle(ev events.Outbound) {
	e := Entry{Kind: events.Name(ev)}
	switch ev := ev.(type) {
	case events.StateChanged:
		path, count := describe(ev.Root)
		e.ActivePath = path
		e.NodeCount = count
	case events.ErrorOccurred:
		e.Title = ev.Title
		e.Message = ev.Message
	}
	if _, err := r.repo.Record(r.ctx, e); err != nil {
		r.logger.Warn("journal write failed", "kind", e.Kind, "err", err)
	}
}

// describe walks the tree under root and returns the titles from root to the
// active node joined with " > ", plus the number of live nodes.
func describe(root *navtree.Node) (string, int) {
	if root == nil {
		return "", 0
	}
	var active *navtree.Node
	count := 0
	var walk func(n *navtree.Node)
	walk = func(n *navtree.Node) {
		count++
		if n.IsActive() {
			active = n
		}
		for _, key := range n.StackKeys() {
			for _, child := range n.Stack(key) {
				walk(child)
			}
		}
	}
	walk(root)
	if active == nil {
		return "", count
	}
	var titles []string
	for n := active; n != nil; n = n.Parent() {
		titles = append(titles, n.Template().Title)
	}
	slices.Reverse(titles)
	return strings.Join(titles, " > "), count
}
