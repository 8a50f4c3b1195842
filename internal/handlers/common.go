package handlers

import (
	"errors"
	"net/http"

	"github.com/hildolfr/dazza-sub007/internal/heist"
	"github.com/hildolfr/dazza-sub007/internal/models"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// Type aliases so swag can resolve models in annotations.
type Crime = models.Crime
type HeistSession = models.HeistSession
type TrustRecord = models.TrustRecord
type EconomyAccount = models.EconomyAccount
type HeistStatus = heist.Status

// heistError maps engine errors onto HTTP statuses: operations rejected by
// the current phase are conflicts, unknown rooms and crimes are 404s, store
// failures are 500s.
func heistError(c *gin.Context, err error) {
	var wrongPhase *heist.WrongPhaseError
	var notFound *heist.NotFoundError
	switch {
	case errors.As(err, &wrongPhase), errors.Is(err, heist.ErrAlreadyDistributed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
