package application

import (
	"context"
	"strings"

	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// paymentDeclinedReason is the reason carried on payment failed events
const paymentDeclinedReason = "Credit card limit exceeded"

// ErrGatewayUnavailable simulates a transient payment gateway fault. The
// handler propagates it so the transport redelivers the command.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// ProcessPaymentCommand represents a consumed payment request
type ProcessPaymentCommand struct {
	OrderID   models.ID    `json:"order_id"`
	Amount    models.Money `json:"amount"`
	CardToken string       `json:"card_token"`
}

// ProcessPayment use case charges the customer for an order. The outcome is
// a deterministic demo rule keyed on the order id, standing in for a real
// gateway call: ids ending in "1" are declined and ids ending in "2" hit a
// transient gateway fault.
type ProcessPayment struct {
	eventPublisher events.Publisher
}

// NewProcessPayment creates a new ProcessPayment use case
func NewProcessPayment(eventPublisher events.Publisher) *ProcessPayment {
	return &ProcessPayment{
		eventPublisher: eventPublisher,
	}
}

// Execute charges for the order and publishes the outcome
func (uc *ProcessPayment) Execute(ctx context.Context, cmd *ProcessPaymentCommand) error {
	if cmd.OrderID.String() == "" {
		return errors.New("order ID is required")
	}

	if !cmd.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}

	if cmd.CardToken == "" {
		return errors.New("card token is required")
	}

	orderID := cmd.OrderID.String()

	if strings.HasSuffix(orderID, "2") {
		telemetry.RecordCounter(ctx, "payments_processed_total", "Payments processed", 1,
			attribute.String("outcome", "gateway_fault"))
		return errors.Wrap(ErrGatewayUnavailable, orderID)
	}

	var event *events.Event
	outcome := "accepted"

	if strings.HasSuffix(orderID, "1") {
		outcome = "declined"
		event = events.NewEvent(cmd.OrderID, events.PaymentFailedEvent, events.PaymentFailedData{
			OrderID: cmd.OrderID,
			Reason:  paymentDeclinedReason,
		})
	} else {
		event = events.NewEvent(cmd.OrderID, events.PaymentAcceptedEvent, events.PaymentAcceptedData{
			OrderID: cmd.OrderID,
		})
	}

	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		return errors.Wrap(err, "failed to publish payment outcome")
	}

	telemetry.RecordCounter(ctx, "payments_processed_total", "Payments processed", 1,
		attribute.String("outcome", outcome))

	return nil
}
