package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/ebrun/Askroom/internal/domain"
	"github.com/ebrun/Askroom/internal/session"
)

func (ctl *Controller) dispatch(ctx context.Context, c *roomConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case "bind":
		ctl.handleBind(c, data)
	case "submit_question", "toggle_like", "mark_answered", "highlight", "delete_question", "end_room":
		// Commands address the bound room; without a bind there is no
		// room to address.
		if c.sess.State() != session.Subscribed {
			ctl.sendError(c, "not_bound")
			return
		}
		switch env.Type {
		case "submit_question":
			ctl.handleSubmit(ctx, c, data)
		case "toggle_like":
			ctl.handleToggleLike(ctx, c, data)
		default:
			ctl.handleModeration(ctx, c, env.Type, data)
		}
	default:
		log.Warn().Str("module", "adapters.ws").Str("type", env.Type).Msg("unknown envelope")
		ctl.sendError(c, "unknown_type")
	}
}

func (ctl *Controller) handleBind(c *roomConn, data []byte) {
	var p struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := c.sess.Bind(domain.RoomID(p.Room), c.viewer); err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Str("room", p.Room).Msg("bind")
		ctl.sendError(c, "bind_failed")
		return
	}
	// Bind projected the current snapshot synchronously; echo it so the
	// client renders without waiting for the next store change.
	ctl.pushView(c, c.sess.View())
}

func (ctl *Controller) handleSubmit(ctx context.Context, c *roomConn, data []byte) {
	var p struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	if c.viewer.Authenticated() && !ctl.limiter.Allow(c.viewer.ID) {
		ctl.sendError(c, "rate_limited")
		return
	}

	err := ctl.cmds.SubmitQuestion(ctx, c.sess.Room(), p.Content, c.viewer)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		ctl.sendError(c, "login_required")
	case errors.Is(err, domain.ErrContentTooLong):
		ctl.sendError(c, "content_too_long")
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.ws").Msg("submit question")
		ctl.sendError(c, "store_error")
	}
}

func (ctl *Controller) handleToggleLike(ctx context.Context, c *roomConn, data []byte) {
	var p struct {
		Question string `json:"question"`
		LikeID   string `json:"likeId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Question == "" {
		ctl.sendError(c, "bad_payload")
		return
	}

	err := ctl.cmds.ToggleLike(ctx, c.sess.Room(), domain.QuestionID(p.Question), c.viewer, domain.LikeID(p.LikeID))
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		ctl.sendError(c, "login_required")
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.ws").Msg("toggle like")
		ctl.sendError(c, "store_error")
	}
}

func (ctl *Controller) handleModeration(ctx context.Context, c *roomConn, kind string, data []byte) {
	if !c.isAdmin {
		ctl.sendError(c, "forbidden")
		return
	}
	var p struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	if kind != "end_room" && p.Question == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	roomID := c.sess.Room()

	var err error
	switch kind {
	case "mark_answered":
		err = ctl.mod.MarkAnswered(ctx, roomID, domain.QuestionID(p.Question))
	case "highlight":
		err = ctl.mod.Highlight(ctx, roomID, domain.QuestionID(p.Question))
	case "delete_question":
		err = ctl.mod.DeleteQuestion(ctx, roomID, domain.QuestionID(p.Question))
	case "end_room":
		err = ctl.mod.EndRoom(ctx, roomID)
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Str("kind", kind).Msg("moderation")
		ctl.sendError(c, "store_error")
	}
}
