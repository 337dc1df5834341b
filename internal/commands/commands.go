// Package commands translates user intents into narrow store mutations.
// Every operation returns once the mutation is acknowledged; nothing here
// waits for the resulting snapshot to come back through a subscription.
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ebrun/Askroom/internal/domain"
	"github.com/ebrun/Askroom/internal/store"
)

// Commands are the participant-level operations. Moderation lives on
// Moderator.
type Commands struct {
	tree store.RemoteTree
}

func New(tree store.RemoteTree) *Commands {
	return &Commands{tree: tree}
}

// CreateRoom opens a new room and returns it with the generated id.
func (c *Commands) CreateRoom(ctx context.Context, title string, host domain.Viewer) (domain.Room, error) {
	if !host.Authenticated() {
		return domain.Room{}, domain.ErrUnauthenticated
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Room{}, domain.ErrTitleEmpty
	}
	if len(title) > domain.MaxTitleLen {
		return domain.Room{}, domain.ErrTitleTooLong
	}

	id, err := c.tree.Push(ctx, store.RoomsPath, map[string]any{
		"title":    title,
		"authorId": host.ID,
	})
	if err != nil {
		return domain.Room{}, fmt.Errorf("create room: %w", err)
	}
	log.Info().Str("module", "commands").Str("room", id).Msg("room created")
	return domain.Room{ID: domain.RoomID(id), Title: title}, nil
}

// SubmitQuestion pushes a new question. Blank content is a silent local
// no-op; a missing identity is an error. Re-invocation creates a duplicate
// question; debouncing is the caller's job.
func (c *Commands) SubmitQuestion(ctx context.Context, roomID domain.RoomID, content string, author domain.Viewer) error {
	if !author.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if roomID == "" {
		return domain.ErrEmptyID
	}
	content, ok := domain.NormalizeContent(content)
	if !ok {
		return nil
	}
	if len(content) > domain.MaxContentLen {
		return domain.ErrContentTooLong
	}

	_, err := c.tree.Push(ctx, store.QuestionsPath(string(roomID)), map[string]any{
		"content": content,
		"author": map[string]any{
			"name":      author.Name,
			"avatarUrl": author.AvatarURL,
		},
		"isAnswered":    false,
		"isHighlighted": false,
	})
	if err != nil {
		return fmt.Errorf("submit question: %w", err)
	}
	return nil
}

// ToggleLike adds the viewer's like, or removes it when existingLikeID is
// set. The id comes from the caller's last view; if a concurrent toggle
// already removed it, the remove is a store-level no-op and no error is
// surfaced. The command layer, not the store, keeps likes at one per
// viewer per question, so callers must pass their current like id.
func (c *Commands) ToggleLike(ctx context.Context, roomID domain.RoomID, questionID domain.QuestionID, viewer domain.Viewer, existingLikeID domain.LikeID) error {
	if !viewer.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if roomID == "" || questionID == "" {
		return domain.ErrEmptyID
	}

	if existingLikeID != "" {
		err := c.tree.Remove(ctx, store.LikePath(string(roomID), string(questionID), string(existingLikeID)))
		if err != nil {
			return fmt.Errorf("remove like: %w", err)
		}
		return nil
	}

	_, err := c.tree.Push(ctx, store.LikesPath(string(roomID), string(questionID)), map[string]any{
		"authorId": viewer.ID,
	})
	if err != nil {
		return fmt.Errorf("add like: %w", err)
	}
	return nil
}
