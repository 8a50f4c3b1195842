package handlers

import (
	"net/http"
	"strconv"

	"github.com/hildolfr/dazza-sub007/internal/services"

	"github.com/gin-gonic/gin"
)

type EconomyHandler struct {
	economyService *services.EconomyService
}

func NewEconomyHandler(economyService *services.EconomyService) *EconomyHandler {
	return &EconomyHandler{economyService: economyService}
}

// TopBalances godoc
// @Summary      Richest users
// @Tags         economy
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Max entries (default 10)"
// @Success      200 {array} EconomyAccount
// @Router       /api/v1/economy/top [get]
func (h *EconomyHandler) TopBalances(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	accounts, err := h.economyService.TopBalances(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// GetBalance godoc
// @Summary      One user's balance and recent credits
// @Tags         economy
// @Produce      json
// @Security     BearerAuth
// @Param        username path string true "Username"
// @Success      200 {object} map[string]interface{}
// @Router       /api/v1/economy/{username} [get]
func (h *EconomyHandler) GetBalance(c *gin.Context) {
	username := c.Param("username")

	balance, err := h.economyService.GetBalance(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	credits, _ := h.economyService.GetCredits(username, 10)

	c.JSON(http.StatusOK, gin.H{
		"username":       username,
		"balance":        balance,
		"recent_credits": credits,
	})
}
