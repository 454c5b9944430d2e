package application

import (
	"context"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// RecordOrderOutcomeCommand represents a consumed terminal order event
type RecordOrderOutcomeCommand struct {
	OrderID models.ID          `json:"order_id"`
	Status  domain.OrderStatus `json:"status"`
	Reason  string             `json:"reason,omitempty"`
}

// RecordOrderOutcome use case persists the queryable audit record for a
// finished order. Terminal events are delivered at least once, so the write
// is an idempotent upsert.
type RecordOrderOutcome struct {
	recordRepository domain.OrderRecordRepository
}

// NewRecordOrderOutcome creates a new RecordOrderOutcome use case
func NewRecordOrderOutcome(recordRepository domain.OrderRecordRepository) *RecordOrderOutcome {
	return &RecordOrderOutcome{
		recordRepository: recordRepository,
	}
}

// Execute upserts the audit record for a terminal order event
func (uc *RecordOrderOutcome) Execute(ctx context.Context, cmd *RecordOrderOutcomeCommand) error {
	if cmd.OrderID.String() == "" {
		return errors.New("order ID is required")
	}

	var record *domain.OrderRecord
	switch cmd.Status {
	case domain.OrderStatusCompleted:
		record = domain.NewCompletedRecord(cmd.OrderID)
	case domain.OrderStatusFailed:
		record = domain.NewFailedRecord(cmd.OrderID, cmd.Reason)
	default:
		return errors.Errorf("unknown order status: %s", cmd.Status)
	}

	if err := uc.recordRepository.Upsert(ctx, record); err != nil {
		return errors.Wrap(err, "failed to upsert order record")
	}

	telemetry.RecordCounter(ctx, "order_records_written_total", "Order outcome records written", 1,
		attribute.String("status", string(cmd.Status)))

	return nil
}
