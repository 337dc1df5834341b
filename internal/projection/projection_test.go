package projection

import (
	"testing"
)

func questionRecord(content, authorName string, likes map[string]any) map[string]any {
	q := map[string]any{
		"content":       content,
		"author":        map[string]any{"name": authorName, "avatarUrl": ""},
		"isAnswered":    false,
		"isHighlighted": false,
	}
	if likes != nil {
		q["likes"] = likes
	}
	return q
}

func TestProject_BasicRoom(t *testing.T) {
	snap := map[string]any{
		"title": "Q&A",
		"questions": map[string]any{
			"q1": questionRecord("Hi", "Ann", map[string]any{}),
		},
	}

	view := Project(snap, "u1")

	if view.Title != "Q&A" {
		t.Fatalf("title = %q, want Q&A", view.Title)
	}
	if len(view.Questions) != 1 {
		t.Fatalf("question count = %d, want 1", len(view.Questions))
	}
	q := view.Questions[0]
	if q.ID != "q1" || q.Content != "Hi" || q.Author.Name != "Ann" {
		t.Fatalf("question = %+v, want q1/Hi/Ann", q)
	}
	if q.LikeCount != 0 {
		t.Fatalf("likeCount = %d, want 0", q.LikeCount)
	}
	if q.ViewerLikeID != "" {
		t.Fatalf("viewerLikeId = %q, want empty", q.ViewerLikeID)
	}
}

func TestProject_ViewerLike(t *testing.T) {
	snap := map[string]any{
		"title": "Q&A",
		"questions": map[string]any{
			"q1": questionRecord("Hi", "Ann", map[string]any{
				"l1": map[string]any{"authorId": "u1"},
			}),
		},
	}

	asU1 := Project(snap, "u1")
	if got := asU1.Questions[0]; got.LikeCount != 1 || got.ViewerLikeID != "l1" {
		t.Fatalf("viewer u1: likeCount = %d, viewerLikeId = %q, want 1/l1", got.LikeCount, got.ViewerLikeID)
	}

	asU2 := Project(snap, "u2")
	if got := asU2.Questions[0]; got.LikeCount != 1 || got.ViewerLikeID != "" {
		t.Fatalf("viewer u2: likeCount = %d, viewerLikeId = %q, want 1/empty", got.LikeCount, got.ViewerLikeID)
	}
}

func TestProject_UnauthenticatedViewerNeverHasLike(t *testing.T) {
	snap := map[string]any{
		"questions": map[string]any{
			"q1": questionRecord("Hi", "Ann", map[string]any{
				"l1": map[string]any{"authorId": ""},
			}),
		},
	}

	view := Project(snap, "")
	if got := view.Questions[0].ViewerLikeID; got != "" {
		t.Fatalf("viewerLikeId = %q, want empty for anonymous viewer", got)
	}
}

func TestProject_PreservesKeyOrder(t *testing.T) {
	questions := map[string]any{}
	wantOrder := []string{"a1", "b2", "c3", "d4", "e5"}
	for _, id := range wantOrder {
		questions[id] = questionRecord("q "+id, "Ann", nil)
	}
	snap := map[string]any{"questions": questions}

	view := Project(snap, "u1")
	if len(view.Questions) != len(wantOrder) {
		t.Fatalf("question count = %d, want %d", len(view.Questions), len(wantOrder))
	}
	for i, id := range wantOrder {
		if string(view.Questions[i].ID) != id {
			t.Fatalf("question %d = %q, want %q", i, view.Questions[i].ID, id)
		}
	}
}

func TestProject_MissingFieldsDefault(t *testing.T) {
	view := Project(map[string]any{}, "u1")
	if view.Title != "" {
		t.Fatalf("title = %q, want empty", view.Title)
	}
	if len(view.Questions) != 0 {
		t.Fatalf("questions = %v, want none", view.Questions)
	}
	if view.EndedAt != 0 {
		t.Fatalf("endedAt = %d, want 0", view.EndedAt)
	}
}

func TestProject_NilSnapshot(t *testing.T) {
	view := Project(nil, "u1")
	if view.Title != "" || len(view.Questions) != 0 {
		t.Fatalf("view = %+v, want zero view", view)
	}
}

func TestProject_MalformedRecordsDoNotPanic(t *testing.T) {
	snap := map[string]any{
		"title": 42, // wrong type
		"questions": map[string]any{
			"q1": "not a map",
			"q2": map[string]any{
				"content": 7,
				"author":  "not a map",
				"likes":   "not a map",
			},
		},
	}

	view := Project(snap, "u1")
	if len(view.Questions) != 2 {
		t.Fatalf("question count = %d, want 2", len(view.Questions))
	}
	for _, q := range view.Questions {
		if q.Content != "" || q.LikeCount != 0 {
			t.Fatalf("malformed question projected as %+v, want zero defaults", q)
		}
	}
}

func TestProject_EndedAtNumericForms(t *testing.T) {
	for _, v := range []any{int64(1700000000000), float64(1700000000000), int(1700000000000)} {
		view := Project(map[string]any{"endedAt": v}, "")
		if view.EndedAt != 1700000000000 {
			t.Fatalf("endedAt from %T = %d, want 1700000000000", v, view.EndedAt)
		}
	}
}
