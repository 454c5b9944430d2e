package application

import (
	"context"
	"time"

	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
)

// SubmitOrderCommand represents the command to submit a new order
type SubmitOrderCommand struct {
	CustomerNumber string       `json:"customer_number"`
	TotalAmount    models.Money `json:"total_amount"`
}

// SubmitOrderResponse carries the generated order id back to the caller
type SubmitOrderResponse struct {
	OrderID string `json:"order_id"`
}

// SubmitOrder use case publishes the order submission that starts the saga.
// The order id is generated here and returned immediately; the orchestrator
// picks the submission up from the bus.
type SubmitOrder struct {
	eventPublisher events.Publisher
}

// NewSubmitOrder creates a new SubmitOrder use case
func NewSubmitOrder(eventPublisher events.Publisher) *SubmitOrder {
	return &SubmitOrder{
		eventPublisher: eventPublisher,
	}
}

// Execute validates the submission and publishes the order submitted event
func (uc *SubmitOrder) Execute(ctx context.Context, cmd *SubmitOrderCommand) (*SubmitOrderResponse, error) {
	if cmd.CustomerNumber == "" {
		return nil, errors.New("customer number is required")
	}

	if !cmd.TotalAmount.IsPositive() {
		return nil, errors.New("total amount must be positive")
	}

	orderID := models.GenerateUUID()

	event := events.NewEvent(orderID, events.OrderSubmittedEvent, events.OrderSubmittedData{
		OrderID:        orderID,
		Timestamp:      time.Now(),
		CustomerNumber: cmd.CustomerNumber,
		TotalAmount:    cmd.TotalAmount,
	})

	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		return nil, errors.Wrap(err, "failed to publish order submitted event")
	}

	return &SubmitOrderResponse{OrderID: orderID.String()}, nil
}
