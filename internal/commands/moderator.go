package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ebrun/Askroom/internal/domain"
	"github.com/ebrun/Askroom/internal/store"
)

// Moderator is a capability value: holding one is the privilege. Callers
// construct it only after their own authorization check (store security
// rules remain the hard boundary); nothing here infers privilege from
// session or UI state.
type Moderator struct {
	tree store.RemoteTree
}

func NewModerator(tree store.RemoteTree) Moderator {
	return Moderator{tree: tree}
}

// MarkAnswered flips isAnswered. Repeated calls rewrite the same value.
func (m Moderator) MarkAnswered(ctx context.Context, roomID domain.RoomID, questionID domain.QuestionID) error {
	if roomID == "" || questionID == "" {
		return domain.ErrEmptyID
	}
	err := m.tree.Update(ctx, store.QuestionPath(string(roomID), string(questionID)), map[string]any{
		"isAnswered": true,
	})
	if err != nil {
		return fmt.Errorf("mark answered: %w", err)
	}
	return nil
}

func (m Moderator) Highlight(ctx context.Context, roomID domain.RoomID, questionID domain.QuestionID) error {
	if roomID == "" || questionID == "" {
		return domain.ErrEmptyID
	}
	err := m.tree.Update(ctx, store.QuestionPath(string(roomID), string(questionID)), map[string]any{
		"isHighlighted": true,
	})
	if err != nil {
		return fmt.Errorf("highlight: %w", err)
	}
	return nil
}

// DeleteQuestion removes the question subtree, likes included. Deleting an
// already-deleted question is a no-op. An empty id is refused outright:
// the path would resolve to the questions collection and the remove would
// take every question with it.
func (m Moderator) DeleteQuestion(ctx context.Context, roomID domain.RoomID, questionID domain.QuestionID) error {
	if roomID == "" || questionID == "" {
		return domain.ErrEmptyID
	}
	err := m.tree.Remove(ctx, store.QuestionPath(string(roomID), string(questionID)))
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	log.Info().Str("module", "commands").Str("room", string(roomID)).Str("question", string(questionID)).Msg("question deleted")
	return nil
}

// EndRoom stamps endedAt. The room and its questions stay in the store.
func (m Moderator) EndRoom(ctx context.Context, roomID domain.RoomID) error {
	if roomID == "" {
		return domain.ErrEmptyID
	}
	err := m.tree.Update(ctx, store.RoomPath(string(roomID)), map[string]any{
		"endedAt": time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("end room: %w", err)
	}
	log.Info().Str("module", "commands").Str("room", string(roomID)).Msg("room ended")
	return nil
}
