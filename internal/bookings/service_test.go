package bookings

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"tourbase/internal/availability"
	"tourbase/internal/holds"
	"tourbase/internal/shared/clock"
	"tourbase/internal/shared/config"
	"tourbase/pkg/logger"
)

// 2026-09-07 is a Monday.
const (
	testDate    = "2026-09-07"
	testTime    = "10:00:00"
	testAltTime = "15:00:00"
	testProduct = int64(1)
	testRuleID  = int64(11)
)

// fakeStore backs both the booking repository and the hold lookup so hold
// conversion can flip state the way the real transaction does.
type fakeStore struct {
	mu       sync.Mutex
	bookings []Booking
	holds    []holds.Hold
	numbers  map[string]bool
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{numbers: map[string]bool{}, nextID: 1}
}

func (f *fakeStore) addHold(sessionID string, participants int, expiresAt time.Time) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := holds.Hold{
		ID:           uuid.New(),
		ProductID:    testProduct,
		SlotDate:     testDate,
		SlotTime:     testTime,
		Participants: participants,
		SessionID:    sessionID,
		Status:       holds.StatusActive.String(),
		ExpiresAt:    expiresAt,
	}
	f.holds = append(f.holds, h)
	return h.ID
}

func (f *fakeStore) sumActiveHoldsLocked(productID int64, date, startTime string, now time.Time) int {
	total := 0
	for _, h := range f.holds {
		if h.ProductID == productID && h.SlotDate == date && h.SlotTime == startTime &&
			h.Status == holds.StatusActive.String() && h.ExpiresAt.After(now) {
			total += h.Participants
		}
	}
	return total
}

func (f *fakeStore) sumConfirmedLocked(productID int64, date, startTime string, excludeID int64) int {
	total := 0
	for _, b := range f.bookings {
		if b.ProductID == productID && b.BookingDate == date && b.BookingTime == startTime &&
			b.Status == StatusConfirmed.String() && b.ID != excludeID {
			total += b.Participants
		}
	}
	return total
}

func (f *fakeStore) CreateWithCapacityCheck(ctx context.Context, booking *Booking, slotCapacity int, now time.Time, convertHoldID *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if convertHoldID != nil {
		converted := false
		for i := range f.holds {
			h := &f.holds[i]
			if h.ID == *convertHoldID && h.Status == holds.StatusActive.String() && h.ExpiresAt.After(now) {
				h.Status = holds.StatusConverted.String()
				converted = true
				break
			}
		}
		if !converted {
			return &ConversionError{Reason: "hold expired or is no longer active"}
		}
	}

	held := f.sumActiveHoldsLocked(booking.ProductID, booking.BookingDate, booking.BookingTime, now)
	confirmed := f.sumConfirmedLocked(booking.ProductID, booking.BookingDate, booking.BookingTime, 0)

	available := slotCapacity - held - confirmed
	if booking.Participants > available {
		return &holds.CapacityError{Requested: booking.Participants, Available: available}
	}

	booking.ID = f.nextID
	f.nextID++
	f.numbers[booking.BookingNumber] = true
	f.bookings = append(f.bookings, *booking)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			b := f.bookings[i]
			return &b, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (f *fakeStore) GetByBookingNumber(ctx context.Context, number string) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		if f.bookings[i].BookingNumber == number {
			b := f.bookings[i]
			return &b, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (f *fakeStore) GetByOrderItem(ctx context.Context, orderID, orderItemID int64) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		if f.bookings[i].OrderID == orderID && f.bookings[i].OrderItemID == orderItemID {
			b := f.bookings[i]
			return &b, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (f *fakeStore) List(ctx context.Context, query ListQuery) ([]Booking, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.bookings {
		if query.ProductID > 0 && b.ProductID != query.ProductID {
			continue
		}
		if query.Status != "" && b.Status != query.Status {
			continue
		}
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id int64, from, to BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		if f.bookings[i].ID == id && f.bookings[i].Status == from.String() {
			f.bookings[i].Status = to.String()
			return nil
		}
	}
	return &TransitionError{From: from.String(), To: to.String()}
}

func (f *fakeStore) RescheduleWithCapacityCheck(ctx context.Context, bookingID int64, newRuleID int64, newDate, newTime string, slotCapacity int, notes string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var booking *Booking
	for i := range f.bookings {
		if f.bookings[i].ID == bookingID {
			booking = &f.bookings[i]
			break
		}
	}
	if booking == nil {
		return ErrBookingNotFound
	}
	if booking.Status != StatusConfirmed.String() {
		return &TransitionError{From: booking.Status, To: StatusConfirmed.String()}
	}

	held := f.sumActiveHoldsLocked(booking.ProductID, newDate, newTime, now)
	confirmed := f.sumConfirmedLocked(booking.ProductID, newDate, newTime, booking.ID)

	available := slotCapacity - held - confirmed
	if booking.Participants > available {
		return &holds.CapacityError{Requested: booking.Participants, Available: available}
	}

	booking.ScheduleRuleID = newRuleID
	booking.BookingDate = newDate
	booking.BookingTime = newTime
	if notes != "" {
		booking.AdminNotes = notes
	}
	return nil
}

func (f *fakeStore) CountConfirmedParticipants(ctx context.Context, productID int64, date, startTime string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sumConfirmedLocked(productID, date, startTime, 0), nil
}

func (f *fakeStore) BookingNumberExists(ctx context.Context, number string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.numbers[number], nil
}

func (f *fakeStore) SetCheckedIn(ctx context.Context, id int64, staffID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		b := &f.bookings[i]
		if b.ID == id && b.Status == StatusConfirmed.String() && b.CheckedInAt == nil {
			t := at
			b.CheckedInAt = &t
			b.CheckedInBy = &staffID
			return nil
		}
	}
	return ErrAlreadyCheckedIn
}

// GetActiveForSlotSession implements the hold lookup side.
func (f *fakeStore) GetActiveForSlotSession(ctx context.Context, productID int64, date, startTime, sessionID string, now time.Time) (*holds.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.holds {
		h := f.holds[i]
		if h.ProductID == productID && h.SlotDate == date && h.SlotTime == startTime &&
			h.SessionID == sessionID && h.Status == holds.StatusActive.String() && h.ExpiresAt.After(now) {
			return &h, nil
		}
	}
	return nil, holds.ErrHoldNotFound
}

type fakeFinder struct {
	slots map[string]availability.Slot
}

func (f *fakeFinder) FindSlot(ctx context.Context, productID int64, date, startTime string) (*availability.Slot, error) {
	slot, ok := f.slots[date+" "+startTime]
	if !ok {
		return nil, nil
	}
	slot.ProductID = productID
	slot.Date = date
	slot.StartTime = startTime
	return &slot, nil
}

// markFull makes the resolved slot look fully consumed, the way the real
// resolver renders a slot whose seats are all held or booked.
func (f *fakeFinder) markFull(date, startTime string) {
	slot := f.slots[date+" "+startTime]
	slot.Available = 0
	slot.IsAvailable = false
	f.slots[date+" "+startTime] = slot
}

type fakeOrders struct {
	lines map[int64][]OrderLine
}

func (f *fakeOrders) GetOrderLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	lines, ok := f.lines[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return lines, nil
}

type fakeInvalidator struct {
	mu    sync.Mutex
	dates []string
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, productID int64, date string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dates = append(f.dates, date)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) PublishBookingEvent(ctx context.Context, eventType string, booking *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

type fixture struct {
	svc    Service
	store  *fakeStore
	finder *fakeFinder
	orders *fakeOrders
	inv    *fakeInvalidator
	pub    *fakePublisher
	clk    *clock.Fixed
}

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		HoldsEnabled:          true,
		HoldTTL:               15 * time.Minute,
		CutoffMinutes:         120,
		FreeCancelUntilMin:    1440,
		CancelFeePercent:      20,
		BookingNumberPrefix:   "TB",
		DefaultCurrency:       "EUR",
		MaxParticipantsPerReq: 50,
	}
}

// newFixture starts six days before the test slot so default cutoff checks
// pass. Slot datetimes parse in time.Local, so the clock uses it too.
func newFixture() *fixture {
	store := newFakeStore()
	finder := &fakeFinder{slots: map[string]availability.Slot{
		testDate + " " + testTime: {
			ScheduleRuleID: testRuleID,
			Capacity:       10,
			IsAvailable:    true,
			PriceAdult:     35,
			PriceChild:     18,
			MeetingPointID: 7,
			Language:       "en",
		},
		testDate + " " + testAltTime: {
			ScheduleRuleID: testRuleID + 1,
			Capacity:       4,
			IsAvailable:    true,
			PriceAdult:     35,
			PriceChild:     18,
			MeetingPointID: 7,
			Language:       "en",
		},
	}}
	orderSrc := &fakeOrders{lines: map[int64][]OrderLine{}}
	inv := &fakeInvalidator{}
	pub := &fakePublisher{}
	clk := clock.NewFixed(time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local))

	svc := NewService(store, finder, store, orderSrc, inv, pub, clk, testBookingConfig(), logger.GetDefault())
	return &fixture{svc: svc, store: store, finder: finder, orders: orderSrc, inv: inv, pub: pub, clk: clk}
}

func directRequest() CreateBookingRequest {
	return CreateBookingRequest{
		CustomerID:    501,
		ProductID:     testProduct,
		Date:          testDate,
		StartTime:     testTime,
		Adults:        2,
		Children:      1,
		CustomerName:  "Ada Rossi",
		CustomerEmail: "ada@example.com",
	}
}

func TestCreateDirect(t *testing.T) {
	ctx := context.Background()

	t.Run("creates confirmed booking with computed total", func(t *testing.T) {
		f := newFixture()

		booking, err := f.svc.CreateDirect(ctx, 501, directRequest())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if booking.Status != StatusConfirmed.String() {
			t.Fatalf("expected CONFIRMED, got %s", booking.Status)
		}
		if booking.Participants != 3 {
			t.Fatalf("expected 3 participants, got %d", booking.Participants)
		}
		// 2 adults x 35 + 1 child x 18
		if booking.TotalAmount != 88 {
			t.Fatalf("expected total 88, got %v", booking.TotalAmount)
		}
		if booking.Currency != "EUR" {
			t.Fatalf("expected EUR, got %s", booking.Currency)
		}
		if matched, _ := regexp.MatchString(`^TB-\d{8}-\d{4}$`, booking.BookingNumber); !matched {
			t.Fatalf("booking number format wrong: %s", booking.BookingNumber)
		}
		if len(f.inv.dates) != 1 || f.inv.dates[0] != testDate {
			t.Fatalf("expected cache invalidation for %s, got %v", testDate, f.inv.dates)
		}
		if len(f.pub.events) != 1 || f.pub.events[0] != EventBookingConfirmed {
			t.Fatalf("expected confirmed event, got %v", f.pub.events)
		}
	})

	t.Run("validation chain rejects bad input", func(t *testing.T) {
		f := newFixture()

		cases := []struct {
			name    string
			mutate  func(*CreateBookingRequest)
			wantErr error
		}{
			{"bad customer", func(r *CreateBookingRequest) { r.CustomerID = 0 }, ErrInvalidCustomer},
			{"bad product", func(r *CreateBookingRequest) { r.ProductID = 0 }, ErrInvalidProduct},
			{"bad date", func(r *CreateBookingRequest) { r.Date = "07/09/2026" }, ErrInvalidDate},
			{"bad time", func(r *CreateBookingRequest) { r.StartTime = "ten" }, ErrInvalidTime},
			{"zero participants", func(r *CreateBookingRequest) { r.Adults = 0; r.Children = 0 }, ErrInvalidParticipants},
			{"too many participants", func(r *CreateBookingRequest) { r.Adults = 51 }, ErrInvalidParticipants},
			{"unknown slot", func(r *CreateBookingRequest) { r.StartTime = "11:30:00" }, ErrSlotUnavailable},
			{"meeting point mismatch", func(r *CreateBookingRequest) { r.MeetingPointID = 99 }, ErrInvalidMeetingPoint},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				req := directRequest()
				req.CustomerID = 501
				tc.mutate(&req)
				_, err := f.svc.CreateDirect(ctx, req.CustomerID, req)
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			})
		}
	})

	t.Run("cutoff rejection regardless of capacity", func(t *testing.T) {
		f := newFixture()
		// 90 minutes before the slot, cutoff is 120
		f.clk.Advance(testSlotStart(t).Sub(f.clk.Now()) - 90*time.Minute)

		_, err := f.svc.CreateDirect(ctx, 501, directRequest())
		var cutErr *CutoffError
		if !errors.As(err, &cutErr) {
			t.Fatalf("expected CutoffError, got %v", err)
		}
		if cutErr.CutoffMinutes != 120 {
			t.Fatalf("expected cutoff 120, got %d", cutErr.CutoffMinutes)
		}
	})

	t.Run("capacity exhaustion surfaces remaining count", func(t *testing.T) {
		f := newFixture()

		req := directRequest()
		req.Adults = 8
		req.Children = 0
		if _, err := f.svc.CreateDirect(ctx, 501, req); err != nil {
			t.Fatalf("first booking failed: %v", err)
		}

		_, err := f.svc.CreateDirect(ctx, 502, directRequest())
		var capErr *holds.CapacityError
		if !errors.As(err, &capErr) {
			t.Fatalf("expected CapacityError, got %v", err)
		}
		if capErr.Available != 2 {
			t.Fatalf("expected available=2, got %d", capErr.Available)
		}
	})

	t.Run("full slot reports zero remaining, not unavailability", func(t *testing.T) {
		f := newFixture()

		req := directRequest()
		req.Adults = 10
		req.Children = 0
		if _, err := f.svc.CreateDirect(ctx, 501, req); err != nil {
			t.Fatalf("filling booking failed: %v", err)
		}
		f.finder.markFull(testDate, testTime)

		_, err := f.svc.CreateDirect(ctx, 502, directRequest())
		var capErr *holds.CapacityError
		if !errors.As(err, &capErr) {
			t.Fatalf("expected CapacityError, got %v", err)
		}
		if capErr.Available != 0 {
			t.Fatalf("expected available=0, got %d", capErr.Available)
		}
	})
}

func testSlotStart(t *testing.T) time.Time {
	t.Helper()
	start, err := time.ParseInLocation("2006-01-02 15:04:05", testDate+" "+testTime, time.Local)
	if err != nil {
		t.Fatalf("bad test slot: %v", err)
	}
	return start
}

func TestConvertHold(t *testing.T) {
	ctx := context.Background()

	t.Run("converts active hold atomically", func(t *testing.T) {
		f := newFixture()
		f.store.addHold("sess-1", 3, f.clk.Now().Add(10*time.Minute))

		req := directRequest()
		req.SessionID = "sess-1"
		booking, err := f.svc.ConvertHold(ctx, 501, req)
		if err != nil {
			t.Fatalf("conversion failed: %v", err)
		}
		if booking.Status != StatusConfirmed.String() {
			t.Fatalf("expected CONFIRMED, got %s", booking.Status)
		}
		if f.store.holds[0].Status != holds.StatusConverted.String() {
			t.Fatalf("hold not converted: %s", f.store.holds[0].Status)
		}
	})

	t.Run("held seats do not block their own conversion", func(t *testing.T) {
		f := newFixture()
		// hold consumes the whole slot, conversion must still fit
		f.store.addHold("sess-1", 10, f.clk.Now().Add(10*time.Minute))
		f.finder.markFull(testDate, testTime)

		req := directRequest()
		req.SessionID = "sess-1"
		req.Adults = 10
		req.Children = 0
		if _, err := f.svc.ConvertHold(ctx, 501, req); err != nil {
			t.Fatalf("conversion should not race its own hold: %v", err)
		}
	})

	t.Run("expired hold yields ConversionError", func(t *testing.T) {
		f := newFixture()
		f.store.addHold("sess-1", 3, f.clk.Now().Add(-time.Minute))

		req := directRequest()
		req.SessionID = "sess-1"
		_, err := f.svc.ConvertHold(ctx, 501, req)
		var convErr *ConversionError
		if !errors.As(err, &convErr) {
			t.Fatalf("expected ConversionError, got %v", err)
		}
	})

	t.Run("conversion skips the cutoff check", func(t *testing.T) {
		f := newFixture()
		f.clk.Advance(testSlotStart(t).Sub(f.clk.Now()) - 90*time.Minute)
		f.store.addHold("sess-1", 3, f.clk.Now().Add(10*time.Minute))

		req := directRequest()
		req.SessionID = "sess-1"
		if _, err := f.svc.ConvertHold(ctx, 501, req); err != nil {
			t.Fatalf("held seat should convert inside the cutoff window: %v", err)
		}
	})
}

func TestCreateFromOrder(t *testing.T) {
	ctx := context.Background()

	orderLine := func(itemID int64, session string) OrderLine {
		return OrderLine{
			OrderItemID:   itemID,
			ProductID:     testProduct,
			Date:          testDate,
			StartTime:     testTime,
			Adults:        2,
			Children:      0,
			CustomerID:    501,
			CustomerName:  "Ada Rossi",
			CustomerEmail: "ada@example.com",
			SessionID:     session,
			LineTotal:     70,
			Currency:      "EUR",
		}
	}

	t.Run("idempotent per order item", func(t *testing.T) {
		f := newFixture()
		f.orders.lines[1001] = []OrderLine{orderLine(1, "")}

		first, err := f.svc.CreateFromOrder(ctx, 1001)
		if err != nil {
			t.Fatalf("first ingestion failed: %v", err)
		}
		if len(first) != 1 {
			t.Fatalf("expected 1 booking, got %d", len(first))
		}

		second, err := f.svc.CreateFromOrder(ctx, 1001)
		if err != nil {
			t.Fatalf("replayed ingestion failed: %v", err)
		}
		if len(second) != 1 || second[0].ID != first[0].ID {
			t.Fatalf("replay must return the original booking, got %+v", second)
		}
		if len(f.store.bookings) != 1 {
			t.Fatalf("duplicate booking created: %d rows", len(f.store.bookings))
		}
	})

	t.Run("order refs and line total applied", func(t *testing.T) {
		f := newFixture()
		f.orders.lines[1001] = []OrderLine{orderLine(1, "")}

		created, err := f.svc.CreateFromOrder(ctx, 1001)
		if err != nil {
			t.Fatalf("ingestion failed: %v", err)
		}
		b := created[0]
		if b.OrderID != 1001 || b.OrderItemID != 1 {
			t.Fatalf("order refs missing: %+v", b)
		}
		if b.TotalAmount != 70 {
			t.Fatalf("line total not applied: %v", b.TotalAmount)
		}
	})

	t.Run("converts the session hold when present", func(t *testing.T) {
		f := newFixture()
		f.store.addHold("sess-1", 2, f.clk.Now().Add(10*time.Minute))
		f.orders.lines[1001] = []OrderLine{orderLine(1, "sess-1")}

		if _, err := f.svc.CreateFromOrder(ctx, 1001); err != nil {
			t.Fatalf("ingestion failed: %v", err)
		}
		if f.store.holds[0].Status != holds.StatusConverted.String() {
			t.Fatalf("hold not converted: %s", f.store.holds[0].Status)
		}
	})

	t.Run("expired hold falls back to direct creation", func(t *testing.T) {
		f := newFixture()
		f.store.addHold("sess-1", 2, f.clk.Now().Add(-time.Minute))
		f.orders.lines[1001] = []OrderLine{orderLine(1, "sess-1")}

		created, err := f.svc.CreateFromOrder(ctx, 1001)
		if err != nil {
			t.Fatalf("degraded path failed: %v", err)
		}
		if len(created) != 1 {
			t.Fatalf("expected 1 booking, got %d", len(created))
		}
		if f.store.holds[0].Status != holds.StatusActive.String() {
			t.Fatalf("expired hold must not be consumed: %s", f.store.holds[0].Status)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture()
		if _, err := f.svc.CreateFromOrder(ctx, 9999); !errors.Is(err, ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("cancellation frees capacity and emits event", func(t *testing.T) {
		f := newFixture()
		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())

		updated, err := f.svc.UpdateStatus(ctx, booking.ID, StatusCancelled)
		if err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		if updated.Status != StatusCancelled.String() {
			t.Fatalf("expected CANCELLED, got %s", updated.Status)
		}

		confirmed, _ := f.store.CountConfirmedParticipants(ctx, testProduct, testDate, testTime)
		if confirmed != 0 {
			t.Fatalf("cancelled booking still counts: %d", confirmed)
		}
		// create + cancel both invalidate
		if len(f.inv.dates) != 2 {
			t.Fatalf("expected 2 invalidations, got %v", f.inv.dates)
		}
		if f.pub.events[len(f.pub.events)-1] != EventBookingCancelled {
			t.Fatalf("expected cancelled event, got %v", f.pub.events)
		}
	})

	t.Run("terminal states never move again", func(t *testing.T) {
		f := newFixture()
		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())
		if _, err := f.svc.UpdateStatus(ctx, booking.ID, StatusCompleted); err != nil {
			t.Fatalf("complete failed: %v", err)
		}

		_, err := f.svc.UpdateStatus(ctx, booking.ID, StatusCancelled)
		var transErr *TransitionError
		if !errors.As(err, &transErr) {
			t.Fatalf("expected TransitionError, got %v", err)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		f := newFixture()
		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())
		if _, err := f.svc.UpdateStatus(ctx, booking.ID, BookingStatus("LOST")); err == nil {
			t.Fatal("expected error for unknown status")
		}
	})
}

func TestReschedule(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the seat between slots", func(t *testing.T) {
		f := newFixture()
		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())

		updated, err := f.svc.Reschedule(ctx, booking.ID, RescheduleRequest{
			NewDate: testDate,
			NewTime: testAltTime,
			Notes:   "customer asked for the afternoon",
		})
		if err != nil {
			t.Fatalf("reschedule failed: %v", err)
		}
		if updated.BookingTime != testAltTime {
			t.Fatalf("slot not moved: %s", updated.BookingTime)
		}

		oldCount, _ := f.store.CountConfirmedParticipants(ctx, testProduct, testDate, testTime)
		newCount, _ := f.store.CountConfirmedParticipants(ctx, testProduct, testDate, testAltTime)
		if oldCount != 0 || newCount != 3 {
			t.Fatalf("seat double-counted: old=%d new=%d", oldCount, newCount)
		}
		// create + both affected days
		if len(f.inv.dates) != 3 {
			t.Fatalf("expected old and new day invalidated, got %v", f.inv.dates)
		}
		if f.pub.events[len(f.pub.events)-1] != EventBookingRescheduled {
			t.Fatalf("expected rescheduled event, got %v", f.pub.events)
		}
	})

	t.Run("capacity failure leaves booking untouched", func(t *testing.T) {
		f := newFixture()
		// fill the 4-seat afternoon slot
		blocker := directRequest()
		blocker.StartTime = testAltTime
		blocker.Adults = 4
		blocker.Children = 0
		if _, err := f.svc.CreateDirect(ctx, 502, blocker); err != nil {
			t.Fatalf("blocker failed: %v", err)
		}
		f.finder.markFull(testDate, testAltTime)

		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())
		_, err := f.svc.Reschedule(ctx, booking.ID, RescheduleRequest{NewDate: testDate, NewTime: testAltTime})
		var capErr *holds.CapacityError
		if !errors.As(err, &capErr) {
			t.Fatalf("expected CapacityError, got %v", err)
		}

		unchanged, _ := f.svc.GetBooking(ctx, booking.ID)
		if unchanged.BookingTime != testTime {
			t.Fatalf("failed reschedule mutated booking: %s", unchanged.BookingTime)
		}
	})

	t.Run("same slot is a no-op", func(t *testing.T) {
		f := newFixture()
		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())

		updated, err := f.svc.Reschedule(ctx, booking.ID, RescheduleRequest{NewDate: testDate, NewTime: testTime})
		if err != nil {
			t.Fatalf("no-op reschedule failed: %v", err)
		}
		if updated.BookingTime != testTime {
			t.Fatalf("unexpected move: %s", updated.BookingTime)
		}
	})

	t.Run("only confirmed bookings move", func(t *testing.T) {
		f := newFixture()
		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())
		if _, err := f.svc.UpdateStatus(ctx, booking.ID, StatusCancelled); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}

		_, err := f.svc.Reschedule(ctx, booking.ID, RescheduleRequest{NewDate: testDate, NewTime: testAltTime})
		var transErr *TransitionError
		if !errors.As(err, &transErr) {
			t.Fatalf("expected TransitionError, got %v", err)
		}
	})
}

func TestCancellationQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("free before the deadline", func(t *testing.T) {
		f := newFixture()
		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())

		quote, err := f.svc.CancellationQuote(ctx, booking.ID)
		if err != nil {
			t.Fatalf("quote failed: %v", err)
		}
		if !quote.Free || quote.FeeAmount != 0 {
			t.Fatalf("expected free cancellation, got %+v", quote)
		}
		if quote.RefundAmount != booking.TotalAmount {
			t.Fatalf("expected full refund, got %v", quote.RefundAmount)
		}
	})

	t.Run("fee applies past the deadline", func(t *testing.T) {
		f := newFixture()
		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())

		// 12 hours before departure, free-cancel window is 24h
		f.clk.Advance(testSlotStart(t).Sub(f.clk.Now()) - 12*time.Hour)

		quote, err := f.svc.CancellationQuote(ctx, booking.ID)
		if err != nil {
			t.Fatalf("quote failed: %v", err)
		}
		if quote.Free {
			t.Fatal("expected fee, got free cancellation")
		}
		if quote.FeePercent != 20 {
			t.Fatalf("expected 20 percent, got %v", quote.FeePercent)
		}
		// 20% of 88
		if quote.FeeAmount != 17.6 {
			t.Fatalf("expected fee 17.6, got %v", quote.FeeAmount)
		}
	})
}

func TestCheckIn(t *testing.T) {
	ctx := context.Background()

	t.Run("records staff and instant", func(t *testing.T) {
		f := newFixture()
		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())

		checked, err := f.svc.CheckIn(ctx, booking.ID, 42)
		if err != nil {
			t.Fatalf("check-in failed: %v", err)
		}
		if checked.CheckedInAt == nil || *checked.CheckedInBy != 42 {
			t.Fatalf("check-in fields missing: %+v", checked)
		}
	})

	t.Run("double check-in rejected", func(t *testing.T) {
		f := newFixture()
		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())
		if _, err := f.svc.CheckIn(ctx, booking.ID, 42); err != nil {
			t.Fatalf("first check-in failed: %v", err)
		}
		if _, err := f.svc.CheckIn(ctx, booking.ID, 43); !errors.Is(err, ErrAlreadyCheckedIn) {
			t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
		}
	})

	t.Run("cancelled bookings cannot check in", func(t *testing.T) {
		f := newFixture()
		booking, _ := f.svc.CreateDirect(ctx, 501, directRequest())
		if _, err := f.svc.UpdateStatus(ctx, booking.ID, StatusCancelled); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}

		_, err := f.svc.CheckIn(ctx, booking.ID, 42)
		var transErr *TransitionError
		if !errors.As(err, &transErr) {
			t.Fatalf("expected TransitionError, got %v", err)
		}
	})
}

func TestBookingNumberGeneration(t *testing.T) {
	f := newFixture()
	svc := f.svc.(*service)
	ctx := context.Background()

	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		number, err := svc.generateBookingNumber(ctx)
		if err != nil {
			t.Fatalf("generation failed at %d: %v", i, err)
		}
		if seen[number] {
			t.Fatalf("duplicate booking number at %d: %s", i, number)
		}
		seen[number] = true
		// persist so the uniqueness check sees prior numbers
		f.store.mu.Lock()
		f.store.numbers[number] = true
		f.store.mu.Unlock()
	}
}
