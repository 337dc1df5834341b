// Package session owns the subscription lifecycle for one room view: one
// live store subscription at a time, re-projection on every snapshot, and
// an explicit Bind/Close contract instead of an ambient listener nobody
// owns.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ebrun/Askroom/internal/domain"
	"github.com/ebrun/Askroom/internal/projection"
	"github.com/ebrun/Askroom/internal/store"
)

var ErrClosed = errors.New("session closed")

type State int

const (
	Unbound State = iota
	Subscribed
	Closed
)

// Session tracks one room for one viewer. Rebinding to another room (or
// the same room as another viewer) cancels the old subscription first, so
// at most one subscription is ever live and nothing from the old room
// leaks into the new view.
type Session struct {
	tree store.RemoteTree

	mu     sync.Mutex
	state  State
	gen    uint64 // bumped on every Bind/Close; stale callbacks check it
	sub    store.Subscription
	roomID domain.RoomID
	viewer domain.Viewer
	view   projection.RoomView
	onView func(projection.RoomView)

	// projMu serializes snapshot processing: one projection at a time,
	// in delivery order.
	projMu sync.Mutex
}

func New(tree store.RemoteTree) *Session {
	return &Session{tree: tree}
}

// OnView registers the listener notified with each fresh view. Set it
// before Bind; the listener runs on the store's delivery goroutine and
// must not block for long.
func (s *Session) OnView(fn func(projection.RoomView)) {
	s.mu.Lock()
	s.onView = fn
	s.mu.Unlock()
}

// Bind subscribes to rooms/{roomID} for viewer. The initial snapshot is
// projected before Bind returns.
func (s *Session) Bind(roomID domain.RoomID, viewer domain.Viewer) error {
	if roomID == "" {
		return domain.ErrEmptyID
	}
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.sub
	s.sub = nil
	s.state = Unbound
	s.gen++
	gen := s.gen
	s.roomID = roomID
	s.viewer = viewer
	s.view = projection.RoomView{}
	s.mu.Unlock()

	// Cancel outside the lock: the store delivers notifications under its
	// own lock and those callbacks take s.mu.
	if old != nil {
		old.Cancel()
	}

	sub, err := s.tree.Subscribe(store.RoomPath(string(roomID)), func(snap store.Snapshot) {
		s.apply(gen, viewer.ID, snap)
	})
	if err != nil {
		return fmt.Errorf("bind %s: %w", roomID, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		// Lost a race with a newer Bind or Close; this subscription
		// must not outlive it.
		s.mu.Unlock()
		sub.Cancel()
		return nil
	}
	s.sub = sub
	s.state = Subscribed
	s.mu.Unlock()

	log.Debug().Str("module", "session").Str("room", string(roomID)).Str("viewer", viewer.ID).Msg("bound")
	return nil
}

func (s *Session) apply(gen uint64, viewerID string, snap store.Snapshot) {
	s.projMu.Lock()
	defer s.projMu.Unlock()

	view := projection.Project(snap, viewerID)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.view = view // replace, never merge
	fn := s.onView
	s.mu.Unlock()

	if fn != nil {
		fn(view)
	}
}

// View returns the latest projected view; the zero view before the first
// snapshot arrives.
func (s *Session) View() projection.RoomView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Room() domain.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Close cancels the subscription. In-flight mutations issued through the
// command layer are unaffected; nothing is rolled back. Close is
// idempotent and a closed session cannot be rebound.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return
	}
	old := s.sub
	s.sub = nil
	s.state = Closed
	s.gen++
	s.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
	log.Debug().Str("module", "session").Msg("closed")
}
