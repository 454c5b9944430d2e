package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/draftea/order-system/payment-service/application"
	"github.com/draftea/order-system/shared/events"
	"github.com/pkg/errors"
)

// PaymentEventHandlers routes consumed bus messages into the payment
// use cases
type PaymentEventHandlers struct {
	processPayment *application.ProcessPayment
}

// NewPaymentEventHandlers creates new payment event handlers
func NewPaymentEventHandlers(processPayment *application.ProcessPayment) *PaymentEventHandlers {
	return &PaymentEventHandlers{
		processPayment: processPayment,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *PaymentEventHandlers) HandlerID() string {
	return "payment-service-event-handler"
}

// Handle implements the events.EventHandler interface
func (h *PaymentEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.ProcessPaymentCommand:
		return h.HandleProcessPayment(ctx, event)
	default:
		// Unknown event type, ignore
		return nil
	}
}

// HandleProcessPayment handles payment processing requests
func (h *PaymentEventHandlers) HandleProcessPayment(ctx context.Context, event *events.Event) error {
	var data events.ProcessPaymentData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse process payment data")
	}

	cmd := &application.ProcessPaymentCommand{
		OrderID:   data.OrderID,
		Amount:    data.Amount,
		CardToken: data.CardToken,
	}

	if err := h.processPayment.Execute(ctx, cmd); err != nil {
		fmt.Printf("Failed to process payment for order %s: %v\n", data.OrderID, err)
		return err // Retry: transient gateway faults resolve on redelivery
	}

	return nil
}

// parseEventData parses event data into the specified struct
func (h *PaymentEventHandlers) parseEventData(event *events.Event, target interface{}) error {
	jsonData, err := json.Marshal(event.Data)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event data")
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return errors.Wrap(err, "failed to unmarshal event data")
	}

	return nil
}
