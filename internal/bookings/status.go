package bookings

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusRefunded  BookingStatus = "REFUNDED"
	StatusCompleted BookingStatus = "COMPLETED"
)

func (s BookingStatus) String() string {
	return string(s)
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusRefunded, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo enforces the booking state machine. Transitions only leave
// CONFIRMED; terminal states never move again.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	if s != StatusConfirmed {
		return false
	}
	switch target {
	case StatusCancelled, StatusRefunded, StatusCompleted:
		return true
	}
	return false
}

// ReleasesCapacity reports whether entering this status frees the slot's
// seats for other buyers.
func (s BookingStatus) ReleasesCapacity() bool {
	return s == StatusCancelled || s == StatusRefunded
}
