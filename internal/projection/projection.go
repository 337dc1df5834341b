// Package projection turns raw room snapshots into the view model consumers
// read. Project is pure: no store access, no side effects, and it never
// fails: a live feed sees half-written records and must degrade instead of
// crash.
package projection

import (
	"sort"

	"github.com/ebrun/Askroom/internal/domain"
)

// QuestionView is a question plus the per-viewer derived fields.
type QuestionView struct {
	domain.Question
	LikeCount    int           `json:"likeCount"`
	ViewerLikeID domain.LikeID `json:"viewerLikeId,omitempty"`
}

// RoomView is recomputed whole on every snapshot and never patched
// incrementally, so it cannot drift from the store.
type RoomView struct {
	Title     string         `json:"title"`
	EndedAt   int64          `json:"endedAt,omitempty"`
	Questions []QuestionView `json:"questions"`
}

// Project derives the viewer-specific room view from a raw snapshot.
// Question order is the lexicographic order of the generated keys, which is
// their insertion order; no re-sort by time or votes happens here.
func Project(snap map[string]any, viewerID string) RoomView {
	view := RoomView{
		Title:   asString(snap["title"]),
		EndedAt: asInt64(snap["endedAt"]),
	}

	questions, _ := snap["questions"].(map[string]any)
	if len(questions) == 0 {
		return view
	}

	ids := make([]string, 0, len(questions))
	for id := range questions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	view.Questions = make([]QuestionView, 0, len(ids))
	for _, id := range ids {
		raw, _ := questions[id].(map[string]any)
		view.Questions = append(view.Questions, projectQuestion(id, raw, viewerID))
	}
	return view
}

func projectQuestion(id string, raw map[string]any, viewerID string) QuestionView {
	q := QuestionView{
		Question: domain.Question{
			ID:            domain.QuestionID(id),
			Content:       asString(raw["content"]),
			IsAnswered:    asBool(raw["isAnswered"]),
			IsHighlighted: asBool(raw["isHighlighted"]),
		},
	}
	if author, ok := raw["author"].(map[string]any); ok {
		q.Author = domain.Author{
			Name:      asString(author["name"]),
			AvatarURL: asString(author["avatarUrl"]),
		}
	}

	rawLikes, _ := raw["likes"].(map[string]any)
	if len(rawLikes) > 0 {
		q.Likes = make(map[domain.LikeID]domain.Like, len(rawLikes))
		for likeID, rawLike := range rawLikes {
			m, _ := rawLike.(map[string]any)
			q.Likes[domain.LikeID(likeID)] = domain.Like{
				ID:       domain.LikeID(likeID),
				AuthorID: asString(m["authorId"]),
			}
		}
	}
	q.LikeCount = len(q.Likes)
	if viewerID == "" {
		return q
	}

	likeIDs := make([]string, 0, len(q.Likes))
	for likeID := range q.Likes {
		likeIDs = append(likeIDs, string(likeID))
	}
	sort.Strings(likeIDs)
	for _, likeID := range likeIDs {
		if q.Likes[domain.LikeID(likeID)].AuthorID == viewerID {
			q.ViewerLikeID = domain.LikeID(likeID)
			break
		}
	}
	return q
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asInt64 tolerates the numeric types the backends produce: int64 from
// in-process writes, float64 from JSON decoding.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}
