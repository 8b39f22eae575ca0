package holds

import "github.com/gin-gonic/gin"

func SetupHoldRoutes(rg *gin.RouterGroup, controller *Controller) {
	holdGroup := rg.Group("/holds")
	{
		holdGroup.POST("", controller.CreateHold)
		holdGroup.GET("/:id", controller.GetHold)
		holdGroup.DELETE("/:id", controller.ReleaseHold)
	}

	// Session-wide release lives on its own resource; gin cannot mix the
	// static "session" segment with the :id wildcard above.
	sessionGroup := rg.Group("/hold-sessions")
	{
		sessionGroup.DELETE("/:sessionId", controller.ReleaseSessionHolds)
	}
}
