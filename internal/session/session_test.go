package session

import (
	"context"
	"errors"
	"testing"

	"github.com/ebrun/Askroom/internal/commands"
	"github.com/ebrun/Askroom/internal/domain"
	"github.com/ebrun/Askroom/internal/projection"
	"github.com/ebrun/Askroom/internal/store"
	"github.com/ebrun/Askroom/internal/store/memorytree"
)

var ann = domain.Viewer{ID: "u1", Name: "Ann"}

func mustSubmit(t *testing.T, cmds *commands.Commands, roomID domain.RoomID, content string) {
	t.Helper()
	if err := cmds.SubmitQuestion(context.Background(), roomID, content, ann); err != nil {
		t.Fatalf("SubmitQuestion returned error: %v", err)
	}
}

func TestBind_ProjectsInitialSnapshot(t *testing.T) {
	ctx := context.Background()
	tree := memorytree.New()
	if err := tree.Update(ctx, "rooms/r1", map[string]any{"title": "Q&A"}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	sess := New(tree)
	defer sess.Close()
	if sess.State() != Unbound {
		t.Fatalf("state = %v, want Unbound", sess.State())
	}

	if err := sess.Bind("r1", ann); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if sess.State() != Subscribed {
		t.Fatalf("state = %v, want Subscribed", sess.State())
	}
	if got := sess.View().Title; got != "Q&A" {
		t.Fatalf("title = %q, want Q&A", got)
	}
}

func TestSession_ViewFollowsMutations(t *testing.T) {
	tree := memorytree.New()
	cmds := commands.New(tree)

	sess := New(tree)
	defer sess.Close()
	if err := sess.Bind("r1", ann); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}

	var published []projection.RoomView
	sess.OnView(func(v projection.RoomView) { published = append(published, v) })

	mustSubmit(t, cmds, "r1", "first?")
	mustSubmit(t, cmds, "r1", "second?")

	view := sess.View()
	if len(view.Questions) != 2 {
		t.Fatalf("question count = %d, want 2", len(view.Questions))
	}
	if view.Questions[0].Content != "first?" || view.Questions[1].Content != "second?" {
		t.Fatalf("questions out of order: %+v", view.Questions)
	}
	if len(published) != 2 {
		t.Fatalf("published views = %d, want 2", len(published))
	}
	// Each notification replaces the previous view wholesale.
	if len(published[0].Questions) != 1 || len(published[1].Questions) != 2 {
		t.Fatalf("published question counts = %d/%d, want 1/2",
			len(published[0].Questions), len(published[1].Questions))
	}
}

func TestRebind_LeaksNothingFromOldRoom(t *testing.T) {
	ctx := context.Background()
	tree := memorytree.New()
	cmds := commands.New(tree)

	if err := tree.Update(ctx, "rooms/r1", map[string]any{"title": "first"}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	mustSubmit(t, cmds, "r1", "old question?")
	if err := tree.Update(ctx, "rooms/r2", map[string]any{"title": "second"}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	sess := New(tree)
	defer sess.Close()
	if err := sess.Bind("r1", ann); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if err := sess.Bind("r2", ann); err != nil {
		t.Fatalf("rebind returned error: %v", err)
	}

	view := sess.View()
	if view.Title != "second" {
		t.Fatalf("title = %q, want second", view.Title)
	}
	if len(view.Questions) != 0 {
		t.Fatalf("questions = %v, want none from the old room", view.Questions)
	}

	// A change in the old room must not reach the rebound session.
	mustSubmit(t, cmds, "r1", "another old one?")
	if got := len(sess.View().Questions); got != 0 {
		t.Fatalf("question count = %d, want 0 after old-room change", got)
	}
}

func TestRebind_CancelsPriorSubscription(t *testing.T) {
	tree := &countingTree{inner: memorytree.New()}

	sess := New(tree)
	if err := sess.Bind("r1", ann); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if err := sess.Bind("r2", ann); err != nil {
		t.Fatalf("rebind returned error: %v", err)
	}
	if tree.subscribes != 2 {
		t.Fatalf("subscribes = %d, want 2", tree.subscribes)
	}
	if tree.cancels != 1 {
		t.Fatalf("cancels = %d, want 1 (old subscription must be torn down)", tree.cancels)
	}

	sess.Close()
	if tree.cancels != 2 {
		t.Fatalf("cancels after Close = %d, want 2", tree.cancels)
	}
}

func TestBind_EmptyRoomIDRejected(t *testing.T) {
	sess := New(memorytree.New())

	// An empty room id would subscribe to the rooms collection itself.
	if err := sess.Bind("", ann); !errors.Is(err, domain.ErrEmptyID) {
		t.Fatalf("Bind(\"\") err = %v, want ErrEmptyID", err)
	}
	if sess.State() != Unbound {
		t.Fatalf("state = %v, want Unbound", sess.State())
	}
}

func TestClose_IsTerminal(t *testing.T) {
	sess := New(memorytree.New())
	if err := sess.Bind("r1", ann); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}

	sess.Close()
	sess.Close() // idempotent
	if sess.State() != Closed {
		t.Fatalf("state = %v, want Closed", sess.State())
	}

	if err := sess.Bind("r2", ann); !errors.Is(err, ErrClosed) {
		t.Fatalf("Bind after Close = %v, want ErrClosed", err)
	}
}

func TestViewerIdentityAffectsProjection(t *testing.T) {
	ctx := context.Background()
	tree := memorytree.New()
	cmds := commands.New(tree)

	mustSubmit(t, cmds, "r1", "q?")

	sess := New(tree)
	defer sess.Close()
	if err := sess.Bind("r1", ann); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	questionID := sess.View().Questions[0].ID
	if err := cmds.ToggleLike(ctx, "r1", questionID, ann, ""); err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if got := sess.View().Questions[0].ViewerLikeID; got == "" {
		t.Fatal("ann's session must see her like id")
	}

	// Rebinding as an anonymous viewer drops the viewer-specific field.
	if err := sess.Bind("r1", domain.Viewer{}); err != nil {
		t.Fatalf("rebind returned error: %v", err)
	}
	q := sess.View().Questions[0]
	if q.LikeCount != 1 {
		t.Fatalf("likeCount = %d, want 1", q.LikeCount)
	}
	if q.ViewerLikeID != "" {
		t.Fatalf("viewerLikeId = %q, want empty for anonymous viewer", q.ViewerLikeID)
	}
}

// countingTree wraps a real tree and counts subscription churn.
type countingTree struct {
	inner      *memorytree.Tree
	subscribes int
	cancels    int
}

func (c *countingTree) Subscribe(path string, onChange func(store.Snapshot)) (store.Subscription, error) {
	sub, err := c.inner.Subscribe(path, onChange)
	if err != nil {
		return nil, err
	}
	c.subscribes++
	return &countingSub{tree: c, inner: sub}, nil
}

func (c *countingTree) Push(ctx context.Context, path string, value map[string]any) (string, error) {
	return c.inner.Push(ctx, path, value)
}

func (c *countingTree) Update(ctx context.Context, path string, partial map[string]any) error {
	return c.inner.Update(ctx, path, partial)
}

func (c *countingTree) Remove(ctx context.Context, path string) error {
	return c.inner.Remove(ctx, path)
}

type countingSub struct {
	tree     *countingTree
	inner    store.Subscription
	canceled bool
}

func (s *countingSub) Cancel() {
	if !s.canceled {
		s.canceled = true
		s.tree.cancels++
	}
	s.inner.Cancel()
}
