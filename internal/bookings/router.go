package bookings

import (
	"github.com/gin-gonic/gin"

	"tourbase/internal/shared/config"
	"tourbase/internal/shared/middleware"
)

// SetupBookingRoutes mounts the booking surface. Creation and order
// ingestion are open to the checkout integration; management endpoints
// require staff credentials.
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	bookingGroup := rg.Group("/bookings")
	{
		bookingGroup.POST("", controller.CreateBooking)
	}

	orderGroup := rg.Group("/orders")
	{
		orderGroup.POST("/:orderId/bookings", controller.IngestOrder)
	}

	staff := rg.Group("/bookings")
	staff.Use(middleware.StaffAuth(cfg))
	{
		staff.GET("", controller.ListBookings)
		staff.GET("/:id", controller.GetBooking)
		staff.GET("/:id/cancellation-quote", controller.CancellationQuote)
		staff.PATCH("/:id/status", middleware.RequireRole("MANAGER", "ADMIN"), controller.UpdateStatus)
		staff.POST("/:id/reschedule", middleware.RequireRole("MANAGER", "ADMIN"), controller.Reschedule)
		staff.POST("/:id/checkin", controller.CheckIn)
	}

	// Lookup by booking number sits on its own resource; gin cannot mix a
	// static segment with the :id wildcard above.
	numberGroup := rg.Group("/booking-numbers")
	numberGroup.Use(middleware.StaffAuth(cfg))
	{
		numberGroup.GET("/:number", controller.GetByBookingNumber)
	}
}
