package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ebrun/Askroom/internal/projection"
)

func (ctl *Controller) writePump(ctx context.Context, c *roomConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Debug().Err(err).Str("module", "adapters.ws").Msg("ping failed")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("set write deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("write")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, c *roomConn) {
	defer func() {
		cancel()
		c.close()
		log.Info().Str("module", "adapters.ws").Str("viewer", c.viewer.ID).Msg("connection closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.dispatch(ctx, c, data)
		}
	}
}

func (ctl *Controller) pushView(c *roomConn, view projection.RoomView) {
	ctl.sendJSON(c, struct {
		Type string              `json:"type"`
		Room projection.RoomView `json:"room"`
	}{Type: "room_view", Room: view})
}

func (ctl *Controller) sendError(c *roomConn, msg string) {
	ctl.sendJSON(c, map[string]any{"type": "error", "error": msg})
}

func (ctl *Controller) sendJSON(c *roomConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("marshal")
		return
	}
	if err := c.trySend(b); err != nil {
		// A client that cannot keep up with its own room loses frames;
		// the next snapshot carries the full state anyway.
		log.Warn().Err(err).Str("module", "adapters.ws").Str("viewer", c.viewer.ID).Msg("send dropped")
	}
}
