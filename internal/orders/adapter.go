package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tourbase/internal/bookings"
)

// Adapter maps order rows into typed booking lines at the pipeline boundary,
// so the booking engine never reads raw order metadata. Implements
// bookings.OrderSource.
type Adapter struct {
	db *gorm.DB
}

func NewAdapter(db *gorm.DB) *Adapter {
	return &Adapter{db: db}
}

func (a *Adapter) GetOrderLines(ctx context.Context, orderID int64) ([]bookings.OrderLine, error) {
	var order Order
	err := a.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookings.ErrOrderNotFound
		}
		return nil, err
	}

	if order.Status != OrderStatusPaid && order.Status != OrderStatusConfirmed {
		return nil, bookings.ErrOrderNotFound
	}

	lines := make([]bookings.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		if !item.Qualifies() {
			continue
		}
		lines = append(lines, bookings.OrderLine{
			OrderItemID:    item.ID,
			ProductID:      item.ProductID,
			Date:           item.SlotDate,
			StartTime:      item.SlotTime,
			Adults:         item.Adults,
			Children:       item.Children,
			MeetingPointID: item.MeetingPointID,
			Language:       item.Language,
			CustomerID:     order.CustomerID,
			CustomerName:   order.CustomerName,
			CustomerEmail:  order.CustomerEmail,
			SessionID:      order.SessionID,
			LineTotal:      item.LineTotal,
			Currency:       order.Currency,
		})
	}

	return lines, nil
}
