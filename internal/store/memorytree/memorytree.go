// Package memorytree is an in-process RemoteTree. It backs tests and
// single-node deployments; redistree covers the shared case.
package memorytree

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ebrun/Askroom/internal/store"
)

type node struct {
	value    any
	children map[string]*node
}

func (n *node) child(name string, create bool) *node {
	if n.children == nil {
		if !create {
			return nil
		}
		n.children = make(map[string]*node)
	}
	c, ok := n.children[name]
	if !ok {
		if !create {
			return nil
		}
		c = &node{}
		n.children[name] = c
	}
	return c
}

func (n *node) empty() bool {
	return n.value == nil && len(n.children) == 0
}

// snapshot deep-copies the subtree into plain maps so callers never see
// tree internals.
func (n *node) snapshot() any {
	if len(n.children) == 0 {
		return n.value
	}
	out := make(map[string]any, len(n.children))
	for name, c := range n.children {
		out[name] = c.snapshot()
	}
	return out
}

type subscriber struct {
	id       uint64
	path     []string
	onChange func(store.Snapshot)
}

type subscription struct {
	tree *Tree
	id   uint64
	once sync.Once
}

func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.tree.mu.Lock()
		delete(s.tree.subs, s.id)
		s.tree.mu.Unlock()
	})
}

// Tree is a mutex-guarded tree of nodes. Mutations and their notifications
// run under one lock, so subscribers observe snapshots in mutation order.
// Change callbacks must not call back into the tree.
type Tree struct {
	mu     sync.Mutex
	root   node
	subs   map[uint64]*subscriber
	nextID uint64
}

func New() *Tree {
	return &Tree{subs: make(map[uint64]*subscriber)}
}

var _ store.RemoteTree = (*Tree)(nil)

func (t *Tree) Subscribe(path string, onChange func(store.Snapshot)) (store.Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	sub := &subscriber{id: t.nextID, path: store.Split(path), onChange: onChange}
	t.subs[sub.id] = sub
	log.Debug().Str("module", "store.memorytree").Str("path", path).Uint64("sub", sub.id).Msg("subscribed")

	onChange(t.subtreeSnapshot(sub.path))
	return &subscription{tree: t, id: sub.id}, nil
}

func (t *Tree) Push(ctx context.Context, path string, value map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := store.NewChildID()

	t.mu.Lock()
	defer t.mu.Unlock()

	target := t.makeNode(append(store.Split(path), id))
	setValue(target, value)
	t.notify(path)
	return id, nil
}

func (t *Tree) Update(ctx context.Context, path string, partial map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	target := t.makeNode(store.Split(path))
	for name, v := range partial {
		setValue(target.child(name, true), v)
	}
	t.notify(path)
	return nil
}

func (t *Tree) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	segments := store.Split(path)
	if len(segments) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parent := t.findNode(segments[:len(segments)-1])
	name := segments[len(segments)-1]
	if parent == nil || parent.child(name, false) == nil {
		return nil // absent path, nothing to notify
	}
	delete(parent.children, name)
	t.notify(path)
	return nil
}

// setValue replaces a node's content: maps become children, scalars become
// the leaf value.
func setValue(n *node, v any) {
	n.value = nil
	n.children = nil
	m, ok := v.(map[string]any)
	if !ok {
		n.value = v
		return
	}
	for name, child := range m {
		setValue(n.child(name, true), child)
	}
}

func (t *Tree) findNode(segments []string) *node {
	n := &t.root
	for _, s := range segments {
		if n = n.child(s, false); n == nil {
			return nil
		}
	}
	return n
}

func (t *Tree) makeNode(segments []string) *node {
	n := &t.root
	for _, s := range segments {
		n = n.child(s, true)
	}
	return n
}

func (t *Tree) subtreeSnapshot(segments []string) store.Snapshot {
	n := t.findNode(segments)
	if n == nil || n.empty() {
		return nil
	}
	snap, ok := n.snapshot().(map[string]any)
	if !ok {
		return nil
	}
	return snap
}

// notify delivers the current subtree to every subscriber whose path is a
// prefix of the changed path, or vice versa.
func (t *Tree) notify(changed string) {
	segments := store.Split(changed)
	for _, sub := range t.subs {
		if !overlaps(sub.path, segments) {
			continue
		}
		sub.onChange(t.subtreeSnapshot(sub.path))
	}
}

func overlaps(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
