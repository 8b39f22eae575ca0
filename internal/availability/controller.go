package availability

import (
	"errors"
	"net/http"
	"strconv"

	"tourbase/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	resolver *Resolver
}

func NewController(resolver *Resolver) *Controller {
	return &Controller{resolver: resolver}
}

// GetDayAvailability handles GET /api/v1/availability/:productId?date=YYYY-MM-DD
func (c *Controller) GetDayAvailability(ctx *gin.Context) {
	productID, err := strconv.ParseInt(ctx.Param("productId"), 10, 64)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid product ID", nil, nil)
		return
	}

	date := ctx.Query("date")
	slots, err := c.resolver.ResolveDay(ctx.Request.Context(), productID, date)
	if err != nil {
		if errors.Is(err, ErrInvalidDate) {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid date", nil, err.Error())
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to resolve availability", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved", gin.H{
		"product_id": productID,
		"date":       date,
		"slots":      slots,
	}, nil)
}
