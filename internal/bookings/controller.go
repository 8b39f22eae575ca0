package bookings

import (
	"errors"
	"net/http"
	"strconv"

	"tourbase/internal/availability"
	"tourbase/internal/holds"
	"tourbase/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateBooking handles POST /api/v1/bookings. When a session ID is present
// the session's hold is converted; if the hold expired mid-checkout the
// request falls back to direct creation with a fresh capacity check.
func (c *Controller) CreateBooking(ctx *gin.Context) {
	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	var booking *Booking
	var err error
	if req.SessionID != "" {
		booking, err = c.service.ConvertHold(ctx.Request.Context(), req.CustomerID, req)
		var convErr *ConversionError
		if errors.As(err, &convErr) {
			booking, err = c.service.CreateDirect(ctx.Request.Context(), req.CustomerID, req)
		}
	} else {
		booking, err = c.service.CreateDirect(ctx.Request.Context(), req.CustomerID, req)
	}
	if err != nil {
		status, message := bookingErrorStatus(err)
		response.RespondJSON(ctx, "error", status, message, nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking created", booking, nil)
}

// IngestOrder handles POST /api/v1/orders/:orderId/bookings. Called by the
// checkout pipeline on order confirmation; safe to re-deliver.
func (c *Controller) IngestOrder(ctx *gin.Context) {
	orderID, err := strconv.ParseInt(ctx.Param("orderId"), 10, 64)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid order ID", nil, nil)
		return
	}

	bookings, err := c.service.CreateFromOrder(ctx.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Order not found", nil, nil)
			return
		}
		status, message := bookingErrorStatus(err)
		response.RespondJSON(ctx, "error", status, message, gin.H{"bookings": bookings}, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Order ingested", gin.H{
		"bookings": bookings,
	}, nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	id, ok := c.bookingID(ctx)
	if !ok {
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), id)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved", booking, nil)
}

// GetByBookingNumber handles GET /api/v1/bookings/number/:number
func (c *Controller) GetByBookingNumber(ctx *gin.Context) {
	booking, err := c.service.GetByBookingNumber(ctx.Request.Context(), ctx.Param("number"))
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved", booking, nil)
}

// ListBookings handles GET /api/v1/bookings
func (c *Controller) ListBookings(ctx *gin.Context) {
	var req ListBookingsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.ListBookings(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list bookings", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved", result, nil)
}

// UpdateStatus handles PATCH /api/v1/bookings/:id/status
func (c *Controller) UpdateStatus(ctx *gin.Context) {
	id, ok := c.bookingID(ctx)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := c.service.UpdateStatus(ctx.Request.Context(), id, BookingStatus(req.Status))
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking status updated", booking, nil)
}

// Reschedule handles POST /api/v1/bookings/:id/reschedule
func (c *Controller) Reschedule(ctx *gin.Context) {
	id, ok := c.bookingID(ctx)
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := c.service.Reschedule(ctx.Request.Context(), id, req)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking rescheduled", booking, nil)
}

// CancellationQuote handles GET /api/v1/bookings/:id/cancellation-quote
func (c *Controller) CancellationQuote(ctx *gin.Context) {
	id, ok := c.bookingID(ctx)
	if !ok {
		return
	}

	quote, err := c.service.CancellationQuote(ctx.Request.Context(), id)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Cancellation quote computed", quote, nil)
}

// CheckIn handles POST /api/v1/bookings/:id/checkin
func (c *Controller) CheckIn(ctx *gin.Context) {
	id, ok := c.bookingID(ctx)
	if !ok {
		return
	}

	staffID, ok := staffIDFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Staff identity required", nil, nil)
		return
	}

	booking, err := c.service.CheckIn(ctx.Request.Context(), id, staffID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking checked in", booking, nil)
}

func (c *Controller) bookingID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return 0, false
	}
	return id, true
}

func (c *Controller) respondError(ctx *gin.Context, err error) {
	status, message := bookingErrorStatus(err)
	response.RespondJSON(ctx, "error", status, message, nil, err.Error())
}

func staffIDFromContext(ctx *gin.Context) (int64, bool) {
	raw, exists := ctx.Get("staff_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	}
	return 0, false
}

func bookingErrorStatus(err error) (int, string) {
	var capErr *holds.CapacityError
	var cutErr *CutoffError
	var convErr *ConversionError
	var transErr *TransitionError

	switch {
	case errors.As(err, &capErr):
		return http.StatusConflict, "Not enough capacity"
	case errors.As(err, &cutErr):
		return http.StatusUnprocessableEntity, "Booking cutoff has passed"
	case errors.As(err, &convErr):
		return http.StatusConflict, "Hold conversion failed"
	case errors.As(err, &transErr):
		return http.StatusConflict, "Invalid status transition"
	case errors.Is(err, ErrBookingNotFound):
		return http.StatusNotFound, "Booking not found"
	case errors.Is(err, ErrAlreadyCheckedIn):
		return http.StatusConflict, "Booking is already checked in"
	case errors.Is(err, ErrSlotUnavailable):
		return http.StatusConflict, "Slot is not available"
	case errors.Is(err, availability.ErrInvalidDate),
		errors.Is(err, ErrInvalidCustomer),
		errors.Is(err, ErrInvalidProduct),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidTime),
		errors.Is(err, ErrInvalidParticipants),
		errors.Is(err, ErrInvalidMeetingPoint):
		return http.StatusBadRequest, "Invalid booking request"
	default:
		return http.StatusInternalServerError, "Booking operation failed"
	}
}
