package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"tourbase/internal/availability"
	"tourbase/internal/holds"
	"tourbase/internal/schedules"
	"tourbase/internal/shared/clock"
	"tourbase/internal/shared/config"
	"tourbase/pkg/logger"
)

// SlotFinder resolves a single slot, with live counts, for validation.
type SlotFinder interface {
	FindSlot(ctx context.Context, productID int64, date, startTime string) (*availability.Slot, error)
}

// Invalidator drops cached availability after a booking changes counts.
type Invalidator interface {
	Invalidate(ctx context.Context, productID int64, date string)
}

// HoldStore locates the hold a checkout session placed on a slot.
type HoldStore interface {
	GetActiveForSlotSession(ctx context.Context, productID int64, date, startTime, sessionID string, now time.Time) (*holds.Hold, error)
}

// OrderLine is a typed view of one bookable line item on an external order.
// The orders adapter produces it; this package never inspects raw order
// metadata.
type OrderLine struct {
	OrderItemID    int64
	ProductID      int64
	Date           string
	StartTime      string
	Adults         int
	Children       int
	MeetingPointID int64
	Language       string
	CustomerID     int64
	CustomerName   string
	CustomerEmail  string
	SessionID      string
	LineTotal      float64
	Currency       string
}

// OrderSource reads confirmed external orders and maps their bookable line
// items into typed OrderLines.
type OrderSource interface {
	GetOrderLines(ctx context.Context, orderID int64) ([]OrderLine, error)
}

type Service interface {
	CreateDirect(ctx context.Context, customerID int64, req CreateBookingRequest) (*Booking, error)
	ConvertHold(ctx context.Context, customerID int64, req CreateBookingRequest) (*Booking, error)
	CreateFromOrder(ctx context.Context, orderID int64) ([]Booking, error)
	UpdateStatus(ctx context.Context, id int64, newStatus BookingStatus) (*Booking, error)
	Reschedule(ctx context.Context, id int64, req RescheduleRequest) (*Booking, error)
	CancellationQuote(ctx context.Context, id int64) (*CancellationQuote, error)
	CheckIn(ctx context.Context, id int64, staffID int64) (*Booking, error)
	GetBooking(ctx context.Context, id int64) (*Booking, error)
	GetByBookingNumber(ctx context.Context, number string) (*Booking, error)
	ListBookings(ctx context.Context, req ListBookingsRequest) (*ListBookingsResponse, error)
}

type service struct {
	repo        Repository
	finder      SlotFinder
	holdStore   HoldStore
	orders      OrderSource
	invalidator Invalidator
	events      EventPublisher
	clk         clock.Clock
	cfg         config.BookingConfig
	log         *logger.Logger
}

func NewService(repo Repository, finder SlotFinder, holdStore HoldStore, orders OrderSource, invalidator Invalidator, events EventPublisher, clk clock.Clock, cfg config.BookingConfig, log *logger.Logger) Service {
	return &service{
		repo:        repo,
		finder:      finder,
		holdStore:   holdStore,
		orders:      orders,
		invalidator: invalidator,
		events:      events,
		clk:         clk,
		cfg:         cfg,
		log:         log,
	}
}

// CreateDirect books a slot without a prior hold. The capacity check happens
// at creation time inside the repository transaction.
func (s *service) CreateDirect(ctx context.Context, customerID int64, req CreateBookingRequest) (*Booking, error) {
	booking, slot, err := s.validateAndBuild(ctx, customerID, req, true)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, booking, slot, nil)
}

// ConvertHold turns the checkout session's active hold into a durable
// booking. The hold is flipped to CONVERTED in the same transaction that
// inserts the booking, so its seats are never double-counted and never
// briefly free. Callers receiving a ConversionError fall back to
// CreateDirect.
func (s *service) ConvertHold(ctx context.Context, customerID int64, req CreateBookingRequest) (*Booking, error) {
	if req.SessionID == "" {
		return nil, &ConversionError{Reason: "session ID is required"}
	}

	booking, slot, err := s.validateAndBuild(ctx, customerID, req, false)
	if err != nil {
		return nil, err
	}

	hold, err := s.holdStore.GetActiveForSlotSession(ctx, booking.ProductID, booking.BookingDate, booking.BookingTime, req.SessionID, s.clk.Now())
	if err != nil {
		if errors.Is(err, holds.ErrHoldNotFound) {
			return nil, &ConversionError{Reason: "no active hold for this session and slot"}
		}
		return nil, fmt.Errorf("failed to look up hold: %w", err)
	}

	return s.persist(ctx, booking, slot, &hold.ID)
}

// CreateFromOrder ingests a confirmed external order. Idempotent per
// (order_id, order_item_id); re-delivered webhooks return the bookings
// already created. Lines whose hold expired mid-checkout fall back to direct
// creation with a fresh capacity check.
func (s *service) CreateFromOrder(ctx context.Context, orderID int64) ([]Booking, error) {
	if s.orders == nil {
		return nil, ErrOrderNotFound
	}
	lines, err := s.orders.GetOrderLines(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := make([]Booking, 0, len(lines))
	for _, line := range lines {
		existing, err := s.repo.GetByOrderItem(ctx, orderID, line.OrderItemID)
		if err == nil {
			result = append(result, *existing)
			continue
		}
		if !errors.Is(err, ErrBookingNotFound) {
			return result, fmt.Errorf("failed to check order item %d: %w", line.OrderItemID, err)
		}

		req := CreateBookingRequest{
			CustomerID:     line.CustomerID,
			ProductID:      line.ProductID,
			Date:           line.Date,
			StartTime:      line.StartTime,
			Adults:         line.Adults,
			Children:       line.Children,
			MeetingPointID: line.MeetingPointID,
			Language:       line.Language,
			CustomerName:   line.CustomerName,
			CustomerEmail:  line.CustomerEmail,
			SessionID:      line.SessionID,
		}

		var booking *Booking
		if s.cfg.HoldsEnabled && line.SessionID != "" {
			booking, err = s.convertOrderLine(ctx, orderID, line, req)
		} else {
			booking, err = s.createOrderLineDirect(ctx, orderID, line, req)
		}
		if err != nil {
			return result, fmt.Errorf("order %d item %d: %w", orderID, line.OrderItemID, err)
		}

		result = append(result, *booking)
	}

	return result, nil
}

func (s *service) convertOrderLine(ctx context.Context, orderID int64, line OrderLine, req CreateBookingRequest) (*Booking, error) {
	booking, err := s.convertWithOrderRefs(ctx, orderID, line, req)
	if err == nil {
		return booking, nil
	}

	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		return nil, err
	}

	// Degraded path: the hold expired mid-checkout, so the order still
	// gets a booking if a fresh capacity check passes.
	s.log.WithError(err).Warn("Hold conversion failed, falling back to direct creation",
		"order_id", orderID, "order_item_id", line.OrderItemID)
	return s.createOrderLineDirect(ctx, orderID, line, req)
}

func (s *service) convertWithOrderRefs(ctx context.Context, orderID int64, line OrderLine, req CreateBookingRequest) (*Booking, error) {
	booking, slot, err := s.validateAndBuild(ctx, line.CustomerID, req, false)
	if err != nil {
		return nil, err
	}
	s.applyOrderRefs(booking, orderID, line)

	hold, err := s.holdStore.GetActiveForSlotSession(ctx, booking.ProductID, booking.BookingDate, booking.BookingTime, line.SessionID, s.clk.Now())
	if err != nil {
		if errors.Is(err, holds.ErrHoldNotFound) {
			return nil, &ConversionError{Reason: "no active hold for this session and slot"}
		}
		return nil, fmt.Errorf("failed to look up hold: %w", err)
	}

	return s.persist(ctx, booking, slot, &hold.ID)
}

func (s *service) createOrderLineDirect(ctx context.Context, orderID int64, line OrderLine, req CreateBookingRequest) (*Booking, error) {
	booking, slot, err := s.validateAndBuild(ctx, line.CustomerID, req, true)
	if err != nil {
		return nil, err
	}
	s.applyOrderRefs(booking, orderID, line)
	return s.persist(ctx, booking, slot, nil)
}

func (s *service) applyOrderRefs(booking *Booking, orderID int64, line OrderLine) {
	booking.OrderID = orderID
	booking.OrderItemID = line.OrderItemID
	if line.LineTotal > 0 {
		booking.TotalAmount = line.LineTotal
	}
	if line.Currency != "" {
		booking.Currency = line.Currency
	}
}

// validateAndBuild runs the full validation chain and assembles an unsaved
// booking. Cutoff is skipped on the hold-conversion path since the buyer
// already reserved the seat inside the booking window.
func (s *service) validateAndBuild(ctx context.Context, customerID int64, req CreateBookingRequest, enforceCutoff bool) (*Booking, *availability.Slot, error) {
	if customerID < 1 {
		return nil, nil, ErrInvalidCustomer
	}
	if req.ProductID < 1 {
		return nil, nil, ErrInvalidProduct
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidDate, req.Date)
	}
	startTime, err := schedules.NormalizeTimeOfDay(req.StartTime)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidTime, req.StartTime)
	}
	participants := req.Adults + req.Children
	if req.Adults < 0 || req.Children < 0 || participants < 1 || participants > s.cfg.MaxParticipantsPerReq {
		return nil, nil, ErrInvalidParticipants
	}

	// A full slot still proceeds here. The capacity check under the row
	// lock is authoritative and reports the remaining count; rejecting on
	// the resolved availability would also break converting a hold that
	// itself consumed the last seats.
	slot, err := s.finder.FindSlot(ctx, req.ProductID, req.Date, startTime)
	if err != nil {
		return nil, nil, err
	}
	if slot == nil {
		return nil, nil, ErrSlotUnavailable
	}

	if enforceCutoff {
		if err := s.checkCutoff(req.Date, startTime); err != nil {
			return nil, nil, err
		}
	}

	if req.MeetingPointID != 0 && slot.MeetingPointID != 0 && req.MeetingPointID != slot.MeetingPointID {
		return nil, nil, ErrInvalidMeetingPoint
	}

	number, err := s.generateBookingNumber(ctx)
	if err != nil {
		return nil, nil, err
	}

	meetingPoint := slot.MeetingPointID
	if req.MeetingPointID != 0 {
		meetingPoint = req.MeetingPointID
	}
	language := slot.Language
	if req.Language != "" {
		language = req.Language
	}

	total := slot.PriceAdult*float64(req.Adults) + slot.PriceChild*float64(req.Children) + req.ExtrasAmount

	booking := &Booking{
		ProductID:      req.ProductID,
		ScheduleRuleID: slot.ScheduleRuleID,
		BookingDate:    req.Date,
		BookingTime:    startTime,
		Adults:         req.Adults,
		Children:       req.Children,
		Participants:   participants,
		MeetingPointID: meetingPoint,
		Language:       language,
		Status:         StatusConfirmed.String(),
		CustomerID:     customerID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		BookingNumber:  number,
		TotalAmount:    total,
		Currency:       s.cfg.DefaultCurrency,
		AdminNotes:     req.Notes,
	}

	return booking, slot, nil
}

func (s *service) persist(ctx context.Context, booking *Booking, slot *availability.Slot, convertHoldID *uuid.UUID) (*Booking, error) {
	err := s.repo.CreateWithCapacityCheck(ctx, booking, slot.Capacity, s.clk.Now(), convertHoldID)
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, booking.ProductID, booking.BookingDate)
	}
	s.log.LogBookingCreated(ctx, booking.ID, booking.BookingNumber, booking.ProductID)
	s.publish(ctx, EventBookingConfirmed, booking)

	return booking, nil
}

// UpdateStatus applies the state machine and emits the matching lifecycle
// event. Cancellations and refunds free the slot's seats, so the availability
// cache for that day is invalidated.
func (s *service) UpdateStatus(ctx context.Context, id int64, newStatus BookingStatus) (*Booking, error) {
	if !newStatus.IsValid() {
		return nil, fmt.Errorf("invalid booking status: %s", newStatus)
	}

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	current := BookingStatus(booking.Status)
	if !current.CanTransitionTo(newStatus) {
		return nil, &TransitionError{From: current.String(), To: newStatus.String()}
	}

	if err := s.repo.UpdateStatus(ctx, id, current, newStatus); err != nil {
		return nil, err
	}
	booking.Status = newStatus.String()

	if newStatus.ReleasesCapacity() && s.invalidator != nil {
		s.invalidator.Invalidate(ctx, booking.ProductID, booking.BookingDate)
	}

	s.log.LogBookingStatusChanged(ctx, booking.ID, current.String(), newStatus.String())
	switch newStatus {
	case StatusCancelled:
		s.publish(ctx, EventBookingCancelled, booking)
	case StatusRefunded:
		s.publish(ctx, EventBookingRefunded, booking)
	case StatusCompleted:
		s.publish(ctx, EventBookingCompleted, booking)
	}

	return booking, nil
}

// Reschedule moves a confirmed booking to a new slot. The old seat is freed
// by the row update itself; on failure the booking is left untouched.
func (s *service) Reschedule(ctx context.Context, id int64, req RescheduleRequest) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != StatusConfirmed.String() {
		return nil, &TransitionError{From: booking.Status, To: StatusConfirmed.String()}
	}

	if _, err := time.Parse("2006-01-02", req.NewDate); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, req.NewDate)
	}
	newTime, err := schedules.NormalizeTimeOfDay(req.NewTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTime, req.NewTime)
	}

	if req.NewDate == booking.BookingDate && newTime == booking.BookingTime {
		return booking, nil
	}

	slot, err := s.finder.FindSlot(ctx, booking.ProductID, req.NewDate, newTime)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotUnavailable
	}
	if err := s.checkCutoff(req.NewDate, newTime); err != nil {
		return nil, err
	}

	oldDate := booking.BookingDate
	err = s.repo.RescheduleWithCapacityCheck(ctx, booking.ID, slot.ScheduleRuleID, req.NewDate, newTime, slot.Capacity, req.Notes, s.clk.Now())
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, booking.ProductID, oldDate)
		s.invalidator.Invalidate(ctx, booking.ProductID, req.NewDate)
	}

	updated, err := s.repo.GetByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventBookingRescheduled, updated)

	return updated, nil
}

// CancellationQuote computes the advisory cancellation fee. Free until the
// configured deadline before departure, a flat percentage after.
func (s *service) CancellationQuote(ctx context.Context, id int64) (*CancellationQuote, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	slotDT, err := booking.SlotDateTime(time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: %q %q", ErrInvalidDate, booking.BookingDate, booking.BookingTime)
	}

	deadline := slotDT.Add(-time.Duration(s.cfg.FreeCancelUntilMin) * time.Minute)
	quote := &CancellationQuote{
		BookingID: booking.ID,
		Deadline:  deadline,
	}

	if s.clk.Now().After(deadline) {
		quote.FeePercent = s.cfg.CancelFeePercent
		quote.FeeAmount = booking.TotalAmount * s.cfg.CancelFeePercent / 100
	} else {
		quote.Free = true
	}
	quote.RefundAmount = booking.TotalAmount - quote.FeeAmount

	return quote, nil
}

func (s *service) CheckIn(ctx context.Context, id int64, staffID int64) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != StatusConfirmed.String() {
		return nil, &TransitionError{From: booking.Status, To: StatusConfirmed.String()}
	}
	if booking.CheckedInAt != nil {
		return nil, ErrAlreadyCheckedIn
	}

	now := s.clk.Now()
	if err := s.repo.SetCheckedIn(ctx, id, staffID, now); err != nil {
		return nil, err
	}

	booking.CheckedInAt = &now
	booking.CheckedInBy = &staffID
	return booking, nil
}

func (s *service) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByBookingNumber(ctx context.Context, number string) (*Booking, error) {
	return s.repo.GetByBookingNumber(ctx, number)
}

func (s *service) ListBookings(ctx context.Context, req ListBookingsRequest) (*ListBookingsResponse, error) {
	bookings, total, err := s.repo.List(ctx, ListQuery{
		ProductID:  req.ProductID,
		CustomerID: req.CustomerID,
		Status:     req.Status,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Page:       req.Page,
		Limit:      req.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &ListBookingsResponse{
		Bookings:   bookings,
		TotalCount: total,
		Page:       req.Page,
		Limit:      req.Limit,
	}, nil
}

func (s *service) checkCutoff(date, startTime string) error {
	slotDT, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+startTime, time.Local)
	if err != nil {
		return fmt.Errorf("%w: %q %q", ErrInvalidDate, date, startTime)
	}
	cutoff := time.Duration(s.cfg.CutoffMinutes) * time.Minute
	if !s.clk.Now().Add(cutoff).Before(slotDT) {
		return &CutoffError{CutoffMinutes: s.cfg.CutoffMinutes}
	}
	return nil
}

// generateBookingNumber produces {PREFIX}-{YYYYMMDD}-{4 digits}, retrying on
// collision before widening with a random letter suffix. The unique index on
// booking_number is the final backstop.
func (s *service) generateBookingNumber(ctx context.Context) (string, error) {
	datePart := s.clk.Now().Format("20060102")

	for attempt := 0; attempt < 5; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		number := fmt.Sprintf("%s-%s-%04d", s.cfg.BookingNumberPrefix, datePart, n.Int64())

		exists, err := s.repo.BookingNumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("failed to check booking number: %w", err)
		}
		if !exists {
			return number, nil
		}
	}

	suffix, err := randomLetters(6)
	if err != nil {
		return "", fmt.Errorf("failed to generate booking number: %w", err)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate booking number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d-%s", s.cfg.BookingNumberPrefix, datePart, n.Int64(), suffix), nil
}

func randomLetters(length int) (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		out[i] = letters[n.Int64()]
	}
	return string(out), nil
}

func (s *service) publish(ctx context.Context, eventType string, booking *Booking) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBookingEvent(ctx, eventType, booking); err != nil {
		s.log.WithError(err).Warn("Failed to publish booking event",
			"event_type", eventType, "booking_id", booking.ID)
	}
}
