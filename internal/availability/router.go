package availability

import "github.com/gin-gonic/gin"

func SetupAvailabilityRoutes(rg *gin.RouterGroup, controller *Controller) {
	availability := rg.Group("/availability")
	{
		availability.GET("/:productId", controller.GetDayAvailability)
	}
}
