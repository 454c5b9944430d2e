package domain

import (
	"context"
	"time"

	"github.com/draftea/order-system/shared/models"
)

// OrderStatus represents the terminal outcome of an order
type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
)

// OrderRecord is the queryable audit row for a finished order. It has a
// lifecycle independent of the saga instance: completed sagas are deleted
// and survive only as records.
type OrderRecord struct {
	OrderID     models.ID
	Status      OrderStatus
	Reason      string // present only when failed
	CreatedAt   time.Time
	CompletedAt time.Time
}

// NewCompletedRecord creates an audit record for a successful order
func NewCompletedRecord(orderID models.ID) *OrderRecord {
	now := time.Now()
	return &OrderRecord{
		OrderID:     orderID,
		Status:      OrderStatusCompleted,
		CreatedAt:   now,
		CompletedAt: now,
	}
}

// NewFailedRecord creates an audit record for a failed order
func NewFailedRecord(orderID models.ID, reason string) *OrderRecord {
	now := time.Now()
	return &OrderRecord{
		OrderID:     orderID,
		Status:      OrderStatusFailed,
		Reason:      reason,
		CreatedAt:   now,
		CompletedAt: now,
	}
}

// OrderRecordRepository stores terminal outcomes keyed by order id.
// Upsert is idempotent: re-delivery of a terminal event overwrites the
// record in place, last write wins.
type OrderRecordRepository interface {
	Upsert(ctx context.Context, record *OrderRecord) error
	// FindByOrderID returns (nil, nil) when no record exists
	FindByOrderID(ctx context.Context, orderID models.ID) (*OrderRecord, error)
}
