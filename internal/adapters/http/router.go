package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ebrun/Askroom/internal/adapters/ws"
	"github.com/ebrun/Askroom/internal/commands"
	"github.com/ebrun/Askroom/internal/config"
	"github.com/ebrun/Askroom/internal/domain"
	"github.com/ebrun/Askroom/internal/store"
)

// ViewerMiddleware loads the viewer's identity from the cookie session. A
// viewer without a stored profile is unauthenticated: the room stays
// readable, submit and like are refused downstream.
func ViewerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		viewer := domain.Viewer{}
		if id, ok := sess.Get("viewer_id").(string); ok {
			viewer.ID = id
		}
		if name, ok := sess.Get("viewer_name").(string); ok {
			viewer.Name = name
		}
		if avatar, ok := sess.Get("viewer_avatar").(string); ok {
			viewer.AvatarURL = avatar
		}
		c.Set("viewer", viewer)
		c.Next()
	}
}

func currentViewer(c *gin.Context) domain.Viewer {
	v, _ := c.MustGet("viewer").(domain.Viewer)
	return v
}

// adminKeyMiddleware gates moderation routes. The check lives at the edge;
// the command layer only ever sees the resulting capability.
func adminKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.GetHeader("X-Admin-Key") != key {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin key required"})
			return
		}
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, tree store.RemoteTree, cmds *commands.Commands, mod commands.Moderator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookieStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("AskroomSessions", cookieStore))
	r.Use(ViewerMiddleware())

	log.Info().Str("module", "adapters.http").Str("store", cfg.Store).Msg("router setup")

	api := r.Group("/api")

	api.POST("/identity", handleIdentity)
	api.POST("/rooms", func(c *gin.Context) { handleCreateRoom(c, cmds) })

	ctl := ws.NewController(cfg, tree, cmds, mod)
	api.GET("/ws/room", ctl.HandleRoom)

	admin := api.Group("/admin", adminKeyMiddleware(cfg.AdminKey))
	admin.POST("/rooms/:room/questions/:question/answered", func(c *gin.Context) {
		moderate(c, mod.MarkAnswered)
	})
	admin.POST("/rooms/:room/questions/:question/highlight", func(c *gin.Context) {
		moderate(c, mod.Highlight)
	})
	admin.DELETE("/rooms/:room/questions/:question", func(c *gin.Context) {
		moderate(c, mod.DeleteQuestion)
	})
	admin.POST("/rooms/:room/end", func(c *gin.Context) {
		if err := mod.EndRoom(c.Request.Context(), domain.RoomID(c.Param("room"))); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	return r
}

// handleIdentity stores the viewer profile in the cookie session, minting
// an id on first use.
func handleIdentity(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		AvatarURL string `json:"avatarUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid name"})
		return
	}

	sess := sessions.Default(c)
	id, ok := sess.Get("viewer_id").(string)
	if !ok || id == "" {
		id = uuid.NewString()
	}
	sess.Set("viewer_id", id)
	sess.Set("viewer_name", req.Name)
	sess.Set("viewer_avatar", req.AvatarURL)
	if err := sess.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session save failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "name": req.Name, "avatarUrl": req.AvatarURL})
}

func handleCreateRoom(c *gin.Context, cmds *commands.Commands) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	room, err := cmds.CreateRoom(c.Request.Context(), req.Title, currentViewer(c))
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
	case errors.Is(err, domain.ErrTitleEmpty), errors.Is(err, domain.ErrTitleTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("create room")
		c.JSON(http.StatusBadGateway, gin.H{"error": "store unavailable"})
	default:
		c.JSON(http.StatusCreated, gin.H{"roomId": room.ID, "title": room.Title})
	}
}

func moderate(c *gin.Context, op func(ctx context.Context, roomID domain.RoomID, questionID domain.QuestionID) error) {
	err := op(c.Request.Context(), domain.RoomID(c.Param("room")), domain.QuestionID(c.Param("question")))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
