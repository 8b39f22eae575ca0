package holds

import "time"

type HoldResponse struct {
	ID           string    `json:"id"`
	ProductID    int64     `json:"product_id"`
	SlotDate     string    `json:"slot_date"`
	SlotTime     string    `json:"slot_time"`
	Participants int       `json:"participants"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expires_at"`
	ExpiresInSec int       `json:"expires_in_seconds"`
}

func ToHoldResponse(hold *Hold, now time.Time) HoldResponse {
	remaining := int(hold.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return HoldResponse{
		ID:           hold.ID.String(),
		ProductID:    hold.ProductID,
		SlotDate:     hold.SlotDate,
		SlotTime:     hold.SlotTime,
		Participants: hold.Participants,
		Status:       hold.Status,
		ExpiresAt:    hold.ExpiresAt,
		ExpiresInSec: remaining,
	}
}
