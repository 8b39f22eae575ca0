package holds

import (
	"errors"
	"fmt"
)

var (
	ErrHoldsDisabled = errors.New("capacity holds are disabled")
	ErrHoldNotFound  = errors.New("hold not found")
	ErrHoldNotActive = errors.New("hold is no longer active")
	ErrHoldExpired   = errors.New("hold has expired")
	ErrSlotNotFound  = errors.New("no slot exists at the requested time")

	ErrInvalidParticipants = errors.New("invalid participant count")
)

// CapacityError reports a rejected reservation along with how many spots
// remained at decision time.
type CapacityError struct {
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	if e.Available <= 0 {
		return "slot is fully booked"
	}
	return fmt.Sprintf("insufficient capacity: only %d spots available, requested %d", e.Available, e.Requested)
}
