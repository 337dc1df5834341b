// Package ws streams live room views over WebSocket and accepts command
// envelopes from the same connection. Each connection owns one
// session.Session; the store subscription is the only fanout mechanism.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ebrun/Askroom/internal/commands"
	"github.com/ebrun/Askroom/internal/config"
	"github.com/ebrun/Askroom/internal/domain"
	"github.com/ebrun/Askroom/internal/projection"
	"github.com/ebrun/Askroom/internal/session"
	"github.com/ebrun/Askroom/internal/store"
)

var ErrBackpressure = errors.New("backpressure")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	cfg  *config.Config
	tree store.RemoteTree
	cmds *commands.Commands
	mod  commands.Moderator

	// submit rate limit, per viewer across all connections
	limiter *RateLimiter
}

func NewController(cfg *config.Config, tree store.RemoteTree, cmds *commands.Commands, mod commands.Moderator) *Controller {
	return &Controller{
		cfg:     cfg,
		tree:    tree,
		cmds:    cmds,
		mod:     mod,
		limiter: NewRateLimiter(5, 10*time.Second),
	}
}

// roomConn is one live WebSocket client: connection, outbound queue, and
// the session projecting its room.
type roomConn struct {
	conn    *websocket.Conn
	send    chan []byte
	sess    *session.Session
	viewer  domain.Viewer
	isAdmin bool

	mu     sync.Mutex
	closed bool
}

func (c *roomConn) trySend(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *roomConn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
	c.sess.Close()
}

// HandleRoom upgrades the request and runs the connection until the client
// goes away. Moderator features switch on via the admin key header or
// query parameter, checked once at upgrade time.
func (ctl *Controller) HandleRoom(c *gin.Context) {
	viewer, _ := c.MustGet("viewer").(domain.Viewer)

	key := c.GetHeader("X-Admin-Key")
	if key == "" {
		key = c.Query("admin_key")
	}
	isAdmin := ctl.cfg.AdminKey != "" && key == ctl.cfg.AdminKey

	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("upgrade")
		return
	}
	wsConn.SetReadLimit(ctl.cfg.ReadLimit)

	conn := &roomConn{
		conn:    wsConn,
		send:    make(chan []byte, 32),
		sess:    session.New(ctl.tree),
		viewer:  viewer,
		isAdmin: isAdmin,
	}
	conn.sess.OnView(func(view projection.RoomView) {
		ctl.pushView(conn, view)
	})

	log.Info().Str("module", "adapters.ws").Str("viewer", viewer.ID).Bool("admin", isAdmin).Msg("connection open")

	ctx, cancel := context.WithCancel(c.Request.Context())
	go ctl.writePump(ctx, conn)
	ctl.readPump(ctx, cancel, conn)
}
