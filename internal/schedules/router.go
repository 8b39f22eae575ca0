package schedules

import (
	"tourbase/internal/shared/config"
	"tourbase/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupScheduleRoutes configures the admin schedule and override routes
func SetupScheduleRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	admin := rg.Group("/admin")
	admin.Use(middleware.StaffAuth(cfg), middleware.RequireRole("MANAGER", "ADMIN"))
	{
		admin.POST("/schedules", controller.CreateRule)                        // POST   /api/v1/admin/schedules
		admin.GET("/schedules/product/:productId", controller.GetProductRules) // GET    /api/v1/admin/schedules/product/:productId
		admin.PUT("/schedules/:id", controller.UpdateRule)                     // PUT    /api/v1/admin/schedules/:id
		admin.DELETE("/schedules/:id", controller.DeleteRule)                  // DELETE /api/v1/admin/schedules/:id

		admin.PUT("/overrides", controller.UpsertOverride)        // PUT    /api/v1/admin/overrides
		admin.GET("/overrides", controller.GetOverrides)          // GET    /api/v1/admin/overrides
		admin.DELETE("/overrides/:id", controller.DeleteOverride) // DELETE /api/v1/admin/overrides/:id
	}
}
