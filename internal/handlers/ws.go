package handlers

import (
	"log"
	"net/http"

	"github.com/hildolfr/dazza-sub007/internal/services"
	"github.com/hildolfr/dazza-sub007/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub         *ws.Hub
	roomService *services.RoomService
}

func NewWSHandler(hub *ws.Hub, roomService *services.RoomService) *WSHandler {
	return &WSHandler{hub: hub, roomService: roomService}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleRoomWebSocket godoc
// @Summary      WebSocket stream of a room's heist events
// @Description  Connect via WebSocket to receive heist announcements, vote windows, and results as they happen
// @Tags         websocket
// @Param        code path string true "Room code"
// @Router       /ws/room/{code} [get]
func (h *WSHandler) HandleRoomWebSocket(c *gin.Context) {
	room, err := h.roomService.GetRoomByCode(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.hub.AddConnection(room.ID, conn)
	defer h.hub.RemoveConnection(room.ID, conn)

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}
