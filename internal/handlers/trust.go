package handlers

import (
	"net/http"
	"strconv"

	"github.com/hildolfr/dazza-sub007/internal/services"

	"github.com/gin-gonic/gin"
)

type TrustHandler struct {
	trustService *services.TrustService
}

func NewTrustHandler(trustService *services.TrustService) *TrustHandler {
	return &TrustHandler{trustService: trustService}
}

// Leaderboard godoc
// @Summary      Most trusted users
// @Tags         trust
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Max entries (default 10)"
// @Success      200 {array} TrustRecord
// @Router       /api/v1/trust/top [get]
func (h *TrustHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	records, err := h.trustService.Leaderboard(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetRecord godoc
// @Summary      One user's trust standing
// @Tags         trust
// @Produce      json
// @Security     BearerAuth
// @Param        username path string true "Username"
// @Success      200 {object} TrustRecord
// @Router       /api/v1/trust/{username} [get]
func (h *TrustHandler) GetRecord(c *gin.Context) {
	username := c.Param("username")

	record, err := h.trustService.GetRecord(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetHistory godoc
// @Summary      One user's completed heists
// @Tags         trust
// @Produce      json
// @Security     BearerAuth
// @Param        username path string true "Username"
// @Param        limit query int false "Max entries (default 20)"
// @Success      200 {array} services.HeistHistoryEntry
// @Router       /api/v1/trust/{username}/history [get]
func (h *TrustHandler) GetHistory(c *gin.Context) {
	username := c.Param("username")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	entries, err := h.trustService.GetHistory(username, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}
