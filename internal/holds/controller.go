package holds

import (
	"errors"
	"net/http"

	"tourbase/internal/availability"
	"tourbase/internal/shared/clock"
	"tourbase/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
	clk     clock.Clock
}

func NewController(service Service, clk clock.Clock) *Controller {
	return &Controller{service: service, clk: clk}
}

// CreateHold handles POST /api/v1/holds
func (c *Controller) CreateHold(ctx *gin.Context) {
	var req CreateHoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	hold, err := c.service.CreateHold(ctx.Request.Context(), req)
	if err != nil {
		status, message := holdErrorStatus(err)
		response.RespondJSON(ctx, "error", status, message, nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Hold created",
		ToHoldResponse(hold, c.clk.Now()), nil)
}

// GetHold handles GET /api/v1/holds/:id
func (c *Controller) GetHold(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid hold ID", nil, nil)
		return
	}

	hold, err := c.service.GetHold(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrHoldNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Hold not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get hold", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold retrieved",
		ToHoldResponse(hold, c.clk.Now()), nil)
}

// ReleaseHold handles DELETE /api/v1/holds/:id
func (c *Controller) ReleaseHold(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid hold ID", nil, nil)
		return
	}

	if err := c.service.ReleaseHold(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, ErrHoldNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Hold not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to release hold", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hold released", nil, nil)
}

// ReleaseSessionHolds handles DELETE /api/v1/holds/session/:sessionId
func (c *Controller) ReleaseSessionHolds(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")
	if sessionID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Session ID is required", nil, nil)
		return
	}

	released, err := c.service.ReleaseSessionHolds(ctx.Request.Context(), sessionID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to release session holds", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Session holds released", gin.H{
		"released": released,
	}, nil)
}

func holdErrorStatus(err error) (int, string) {
	var capErr *CapacityError
	switch {
	case errors.As(err, &capErr):
		return http.StatusConflict, "Not enough capacity"
	case errors.Is(err, ErrHoldsDisabled):
		return http.StatusServiceUnavailable, "Holds are currently disabled"
	case errors.Is(err, ErrSlotNotFound):
		return http.StatusNotFound, "Slot not found"
	case errors.Is(err, availability.ErrInvalidDate):
		return http.StatusBadRequest, "Invalid date"
	case errors.Is(err, ErrInvalidParticipants):
		return http.StatusBadRequest, "Invalid participant count"
	default:
		return http.StatusInternalServerError, "Failed to create hold"
	}
}
