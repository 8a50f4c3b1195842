package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/hildolfr/dazza-sub007/internal/heist"
	"github.com/hildolfr/dazza-sub007/internal/services"

	"github.com/gin-gonic/gin"
)

type HeistHandler struct {
	registry     *heist.Registry
	heistService *services.HeistService
}

func NewHeistHandler(registry *heist.Registry, heistService *services.HeistService) *HeistHandler {
	return &HeistHandler{registry: registry, heistService: heistService}
}

type VoteRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100" example:"shazza"`
	CrimeID  uint   `json:"crime_id" binding:"required" example:"3"`
}

// GetStatus godoc
// @Summary      Current heist status for a room
// @Description  Phase, next event time, and vote count for the room's cycle
// @Tags         heists
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      200 {object} HeistStatus
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/rooms/{id}/heist [get]
func (h *HeistHandler) GetStatus(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	status, err := h.registry.Status(uint(roomID))
	if err != nil {
		heistError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ForceAdvance godoc
// @Summary      Skip the current phase's remaining wait
// @Description  Runs the room's pending transition immediately. Rejected during payout and cooldown.
// @Tags         heists
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      200 {object} HeistStatus
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/rooms/{id}/heist/advance [post]
func (h *HeistHandler) ForceAdvance(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	requestedBy := "api"
	if hostID := c.GetUint("host_id"); hostID > 0 {
		requestedBy = fmt.Sprintf("host:%d", hostID)
	}

	if err := h.registry.ForceAdvance(uint(roomID), requestedBy); err != nil {
		heistError(c, err)
		return
	}

	status, err := h.registry.Status(uint(roomID))
	if err != nil {
		heistError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// CastVote godoc
// @Summary      Cast or change a crime vote
// @Description  Records a vote in the room's open vote window. A user's later vote replaces their earlier one.
// @Tags         heists
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Param        request body VoteRequest true "Vote"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/rooms/{id}/heist/vote [post]
func (h *HeistHandler) CastVote(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.registry.CastVote(uint(roomID), req.Username, req.CrimeID); err != nil {
		heistError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "vote recorded"})
}

func (h *HeistHandler) ListRoomHeists(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	heists, err := h.heistService.ListRoomHeists(uint(roomID), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, heists)
}

func (h *HeistHandler) GetHeist(c *gin.Context) {
	heistID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid heist id"})
		return
	}

	session, err := h.heistService.GetHeist(uint(heistID))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, session)
}
