package handlers

import (
	"net/http"
	"strconv"

	"github.com/hildolfr/dazza-sub007/internal/heist"
	"github.com/hildolfr/dazza-sub007/internal/services"
	"github.com/hildolfr/dazza-sub007/internal/ws"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService  *services.RoomService
	heistService *services.HeistService
	registry     *heist.Registry
	hub          *ws.Hub
	// refresh pokes the chat manager so room changes show up without
	// waiting for its ticker. May be nil in tests.
	refresh func()
}

func NewRoomHandler(
	roomService *services.RoomService,
	heistService *services.HeistService,
	registry *heist.Registry,
	hub *ws.Hub,
	refresh func(),
) *RoomHandler {
	return &RoomHandler{
		roomService:  roomService,
		heistService: heistService,
		registry:     registry,
		hub:          hub,
		refresh:      refresh,
	}
}

type CreateRoomRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100" example:"dazzas-lounge"`
}

type SetHeistsRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type JoinRoomRequest struct {
	Code     string `json:"code" binding:"required,len=6" example:"483920"`
	Username string `json:"username" binding:"required,min=1,max=100" example:"shazza"`
	WebToken string `json:"web_token"`
}

type ReconnectRequest struct {
	Code     string `json:"code" binding:"required,len=6"`
	WebToken string `json:"web_token" binding:"required"`
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	hostID := c.GetUint("host_id")
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	room, err := h.roomService.CreateRoom(hostID, req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if h.refresh != nil {
		h.refresh()
	}
	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}
	room, err := h.roomService.GetRoom(uint(roomID))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	var heistStatus *heist.Status
	if st, err := h.registry.Status(room.ID); err == nil {
		heistStatus = &st
	}

	recent, _ := h.heistService.ListRoomHeists(room.ID, 10)

	c.JSON(http.StatusOK, gin.H{
		"room":          room,
		"heist":         heistStatus,
		"recent_heists": recent,
		"viewers":       h.hub.ViewerCount(room.ID),
	})
}

func (h *RoomHandler) ListActiveRooms(c *gin.Context) {
	hostID := c.GetUint("host_id")
	rooms, err := h.roomService.GetActiveRooms(hostID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *RoomHandler) CloseRoom(c *gin.Context) {
	hostID := c.GetUint("host_id")
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}
	if err := h.roomService.CloseRoom(uint(roomID), hostID); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	h.registry.Disable(uint(roomID))
	h.hub.CloseRoom(uint(roomID))
	if h.refresh != nil {
		h.refresh()
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "room closed"})
}

// SetHeists godoc
// @Summary      Enable or disable heists in a room
// @Description  Turning heists on schedules the room's first heist (or recovers an interrupted one); turning them off cancels the current cycle
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Param        request body SetHeistsRequest true "Switch"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/rooms/{id}/heists [put]
func (h *RoomHandler) SetHeists(c *gin.Context) {
	hostID := c.GetUint("host_id")
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	var req SetHeistsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	room, err := h.roomService.SetHeistsEnabled(uint(roomID), hostID, *req.Enabled)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if *req.Enabled {
		if err := h.registry.Enable(room.ID); err != nil {
			heistError(c, err)
			return
		}
		c.JSON(http.StatusOK, MessageResponse{Message: "heists enabled"})
		return
	}

	h.registry.Disable(room.ID)
	c.JSON(http.StatusOK, MessageResponse{Message: "heists disabled"})
}

func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.roomService.JoinRoom(req.Code, req.Username, req.WebToken)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *RoomHandler) Reconnect(c *gin.Context) {
	var req ReconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.roomService.Reconnect(req.WebToken, req.Code)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
