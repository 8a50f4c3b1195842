package handlers

import (
	"net/http"
	"strconv"

	"github.com/hildolfr/dazza-sub007/internal/services"

	"github.com/gin-gonic/gin"
)

type CrimeHandler struct {
	crimeService *services.CrimeService
}

func NewCrimeHandler(crimeService *services.CrimeService) *CrimeHandler {
	return &CrimeHandler{crimeService: crimeService}
}

type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ListCrimes godoc
// @Summary      List the crime catalog
// @Description  All crimes, enabled or not, ordered by difficulty
// @Tags         crimes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Crime
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/crimes [get]
func (h *CrimeHandler) ListCrimes(c *gin.Context) {
	crimes, err := h.crimeService.ListCrimes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, crimes)
}

// CreateCrime godoc
// @Summary      Add a crime
// @Description  Add a votable crime to the catalog
// @Tags         crimes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.CrimeInput true "Crime data"
// @Success      201 {object} Crime
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/crimes [post]
func (h *CrimeHandler) CreateCrime(c *gin.Context) {
	var req services.CrimeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	crime, err := h.crimeService.CreateCrime(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, crime)
}

// GetCrime godoc
// @Summary      Get a crime
// @Tags         crimes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Crime ID"
// @Success      200 {object} Crime
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/crimes/{id} [get]
func (h *CrimeHandler) GetCrime(c *gin.Context) {
	crimeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid crime id"})
		return
	}

	crime, err := h.crimeService.GetCrime(uint(crimeID))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, crime)
}

// UpdateCrime godoc
// @Summary      Update a crime
// @Tags         crimes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Crime ID"
// @Param        request body services.CrimeInput true "Crime data"
// @Success      200 {object} Crime
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/crimes/{id} [put]
func (h *CrimeHandler) UpdateCrime(c *gin.Context) {
	crimeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid crime id"})
		return
	}

	var req services.CrimeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	crime, err := h.crimeService.UpdateCrime(uint(crimeID), req)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, crime)
}

// DeleteCrime godoc
// @Summary      Delete a crime
// @Description  Remove a crime from the catalog. Completed heists keep the crime name they recorded.
// @Tags         crimes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Crime ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/crimes/{id} [delete]
func (h *CrimeHandler) DeleteCrime(c *gin.Context) {
	crimeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid crime id"})
		return
	}

	if err := h.crimeService.DeleteCrime(uint(crimeID)); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "crime deleted"})
}

// SetEnabled godoc
// @Summary      Enable or disable a crime
// @Description  Disabled crimes stay in the catalog but never show up on a ballot
// @Tags         crimes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Crime ID"
// @Param        request body SetEnabledRequest true "Switch"
// @Success      200 {object} Crime
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/crimes/{id}/enabled [put]
func (h *CrimeHandler) SetEnabled(c *gin.Context) {
	crimeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid crime id"})
		return
	}

	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	crime, err := h.crimeService.SetEnabled(uint(crimeID), *req.Enabled)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, crime)
}
