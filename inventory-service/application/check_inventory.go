package application

import (
	"context"
	"strings"
	"time"

	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// stockShortageReason is the reason carried on shortage events
const stockShortageReason = "Item out of stock"

// checkDelay simulates warehouse lookup latency
const checkDelay = 500 * time.Millisecond

// CheckInventoryCommand represents a consumed inventory check request
type CheckInventoryCommand struct {
	OrderID models.ID `json:"order_id"`
}

// CheckInventory use case decides whether stock can be reserved for an
// order. The decision is a deterministic demo rule keyed on the order id,
// standing in for a real warehouse lookup: ids ending in "0" are short.
type CheckInventory struct {
	eventPublisher events.Publisher
}

// NewCheckInventory creates a new CheckInventory use case
func NewCheckInventory(eventPublisher events.Publisher) *CheckInventory {
	return &CheckInventory{
		eventPublisher: eventPublisher,
	}
}

// Execute checks stock for the order and publishes the outcome
func (uc *CheckInventory) Execute(ctx context.Context, cmd *CheckInventoryCommand) error {
	if cmd.OrderID.String() == "" {
		return errors.New("order ID is required")
	}

	select {
	case <-time.After(checkDelay):
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "inventory check cancelled")
	}

	var event *events.Event
	outcome := "reserved"

	if strings.HasSuffix(cmd.OrderID.String(), "0") {
		outcome = "shortage"
		event = events.NewEvent(cmd.OrderID, events.StockShortageEvent, events.StockShortageData{
			OrderID: cmd.OrderID,
			Reason:  stockShortageReason,
		})
	} else {
		event = events.NewEvent(cmd.OrderID, events.StockReservedEvent, events.StockReservedData{
			OrderID: cmd.OrderID,
		})
	}

	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		return errors.Wrap(err, "failed to publish inventory outcome")
	}

	telemetry.RecordCounter(ctx, "inventory_checks_total", "Inventory checks processed", 1,
		attribute.String("outcome", outcome))

	return nil
}
