package schedules

import (
	"net/http"
	"strconv"

	"tourbase/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateRule handles POST /api/v1/admin/schedules
func (c *Controller) CreateRule(ctx *gin.Context) {
	var req CreateScheduleRuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	rule, err := c.service.CreateRule(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create schedule rule", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Schedule rule created", rule, nil)
}

// GetProductRules handles GET /api/v1/admin/schedules/product/:productId
func (c *Controller) GetProductRules(ctx *gin.Context) {
	productID, err := strconv.ParseInt(ctx.Param("productId"), 10, 64)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid product ID", nil, nil)
		return
	}

	rules, err := c.service.GetRulesForProduct(ctx.Request.Context(), productID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get schedule rules", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Schedule rules retrieved", rules, nil)
}

// UpdateRule handles PUT /api/v1/admin/schedules/:id
func (c *Controller) UpdateRule(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid schedule rule ID", nil, nil)
		return
	}

	var req UpdateScheduleRuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	rule, err := c.service.UpdateRule(ctx.Request.Context(), id, req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to update schedule rule", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Schedule rule updated", rule, nil)
}

// DeleteRule handles DELETE /api/v1/admin/schedules/:id
func (c *Controller) DeleteRule(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid schedule rule ID", nil, nil)
		return
	}

	if err := c.service.DeleteRule(ctx.Request.Context(), id); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to delete schedule rule", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Schedule rule deleted", nil, nil)
}

// UpsertOverride handles PUT /api/v1/admin/overrides
func (c *Controller) UpsertOverride(ctx *gin.Context) {
	var req UpsertOverrideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	override, err := c.service.UpsertOverride(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to save override", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Override saved", override, nil)
}

// GetOverrides handles GET /api/v1/admin/overrides?product_id=&date=
func (c *Controller) GetOverrides(ctx *gin.Context) {
	productID, err := strconv.ParseInt(ctx.Query("product_id"), 10, 64)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid product_id", nil, nil)
		return
	}

	date := ctx.Query("date")
	overrides, err := c.service.GetOverridesForDate(ctx.Request.Context(), productID, date)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to get overrides", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Overrides retrieved", overrides, nil)
}

// DeleteOverride handles DELETE /api/v1/admin/overrides/:id
func (c *Controller) DeleteOverride(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid override ID", nil, nil)
		return
	}

	if err := c.service.DeleteOverride(ctx.Request.Context(), id); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to delete override", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Override deleted", nil, nil)
}
