package realtime

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"

	"tokenbook/internal/auth"
	"tokenbook/internal/logger"
)

// RoomSource resolves which rooms an actor may join. requested carries
// booking ids a staff member asked to watch.
type RoomSource interface {
	RoomsFor(ctx context.Context, actor auth.Actor, requested []int) ([]string, error)
}

type Handler struct {
	hub                  *Hub
	rooms                RoomSource
	jwtSecret            string
	wsInsecureSkipVerify bool
}

func NewHandler(hub *Hub, rooms RoomSource, jwtSecret string, insecureSkipVerify bool) *Handler {
	return &Handler{hub: hub, rooms: rooms, jwtSecret: jwtSecret, wsInsecureSkipVerify: insecureSkipVerify}
}

// Handle godoc
// @Summary      Real-time event stream
// @Description  Upgrades to a WebSocket. Browsers cannot set headers on WebSocket requests, so the access token travels in the query string.
// @Tags         realtime
// @Param        token      query  string  true   "Access token"
// @Param        bookingId  query  string  false  "Comma-separated booking ids to watch (staff only)"
// @Success      101
// @Failure      401  {object}  api.ErrorResponse
// @Router       /ws [get]
func (h *Handler) Handle(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "code": "UNAUTHORIZED", "message": "missing token"})
		return
	}

	claims, err := auth.ParseAccessToken(tokenStr, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "code": "UNAUTHORIZED", "message": "invalid token"})
		return
	}
	actor := auth.Actor{UserID: claims.UserID, Role: claims.Role}

	rooms, err := h.rooms.RoomsFor(c.Request.Context(), actor, parseIDs(c.Query("bookingId")))
	if err != nil {
		logger.WithError(err).Error("resolve websocket rooms", "user_id", actor.UserID)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "code": "SERVER_ERROR", "message": "Internal server error"})
		return
	}

	opts := &websocket.AcceptOptions{InsecureSkipVerify: h.wsInsecureSkipVerify}
	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		return
	}

	// Push-only: reading is still required so control frames are handled.
	ctx := conn.CloseRead(c.Request.Context())

	client := h.hub.AddClient(actor.UserID, conn)
	defer h.hub.RemoveClient(client)
	for _, room := range rooms {
		h.hub.Join(client, room)
	}

	<-ctx.Done()
}

func parseIDs(raw string) []int {
	if raw == "" {
		return nil
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
