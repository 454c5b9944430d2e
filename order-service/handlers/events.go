package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/draftea/order-system/order-service/application"
	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/pkg/errors"
)

// OrderEventHandlers routes consumed bus messages into the orchestrator's
// use cases. Handler errors for business reasons return nil so the transport
// does not retry; the use cases already treat duplicates as no-ops.
type OrderEventHandlers struct {
	startOrderSaga     *application.StartOrderSaga
	advanceOrderSaga   *application.AdvanceOrderSaga
	recordOrderOutcome *application.RecordOrderOutcome
}

// NewOrderEventHandlers creates new order event handlers
func NewOrderEventHandlers(
	startOrderSaga *application.StartOrderSaga,
	advanceOrderSaga *application.AdvanceOrderSaga,
	recordOrderOutcome *application.RecordOrderOutcome,
) *OrderEventHandlers {
	return &OrderEventHandlers{
		startOrderSaga:     startOrderSaga,
		advanceOrderSaga:   advanceOrderSaga,
		recordOrderOutcome: recordOrderOutcome,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *OrderEventHandlers) HandlerID() string {
	return "order-service-event-handler"
}

// Handle implements the events.EventHandler interface
func (h *OrderEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.OrderSubmittedEvent:
		return h.HandleOrderSubmitted(ctx, event)
	case events.StockReservedEvent:
		return h.HandleStockReserved(ctx, event)
	case events.StockShortageEvent:
		return h.HandleStockShortage(ctx, event)
	case events.PaymentAcceptedEvent:
		return h.HandlePaymentAccepted(ctx, event)
	case events.PaymentFailedEvent:
		return h.HandlePaymentFailed(ctx, event)
	case events.OrderTimeoutExpiredEvent:
		return h.HandleOrderTimeoutExpired(ctx, event)
	case events.OrderCompletedEvent:
		return h.HandleOrderCompleted(ctx, event)
	case events.OrderFailedEvent:
		return h.HandleOrderFailed(ctx, event)
	default:
		// Unknown event type, ignore
		return nil
	}
}

// HandleOrderSubmitted starts the saga for a freshly submitted order
func (h *OrderEventHandlers) HandleOrderSubmitted(ctx context.Context, event *events.Event) error {
	var data events.OrderSubmittedData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse order submitted data")
	}

	cmd := &application.StartOrderSagaCommand{
		OrderID:        data.OrderID,
		CustomerNumber: data.CustomerNumber,
		TotalAmount:    data.TotalAmount,
	}

	if err := h.startOrderSaga.Execute(ctx, cmd); err != nil {
		fmt.Printf("Failed to start saga for order %s: %v\n", data.OrderID, err)
		return err // Retry: the submission must not be lost
	}

	return nil
}

// HandleStockReserved advances the saga after inventory reserved stock
func (h *OrderEventHandlers) HandleStockReserved(ctx context.Context, event *events.Event) error {
	var data events.StockReservedData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse stock reserved data")
	}

	return h.advance(ctx, &application.AdvanceOrderSagaCommand{
		OrderID: data.OrderID,
		Trigger: domain.Trigger{Kind: domain.TriggerStockReserved},
	})
}

// HandleStockShortage fails the saga on an inventory shortage
func (h *OrderEventHandlers) HandleStockShortage(ctx context.Context, event *events.Event) error {
	var data events.StockShortageData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse stock shortage data")
	}

	return h.advance(ctx, &application.AdvanceOrderSagaCommand{
		OrderID: data.OrderID,
		Trigger: domain.Trigger{Kind: domain.TriggerStockShortage, Reason: data.Reason},
	})
}

// HandlePaymentAccepted completes the saga after a successful charge
func (h *OrderEventHandlers) HandlePaymentAccepted(ctx context.Context, event *events.Event) error {
	var data events.PaymentAcceptedData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse payment accepted data")
	}

	return h.advance(ctx, &application.AdvanceOrderSagaCommand{
		OrderID: data.OrderID,
		Trigger: domain.Trigger{Kind: domain.TriggerPaymentAccepted},
	})
}

// HandlePaymentFailed fails the saga on a rejected charge
func (h *OrderEventHandlers) HandlePaymentFailed(ctx context.Context, event *events.Event) error {
	var data events.PaymentFailedData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse payment failed data")
	}

	return h.advance(ctx, &application.AdvanceOrderSagaCommand{
		OrderID: data.OrderID,
		Trigger: domain.Trigger{Kind: domain.TriggerPaymentFailed, Reason: data.Reason},
	})
}

// HandleOrderTimeoutExpired fails the saga when the processing deadline fires
func (h *OrderEventHandlers) HandleOrderTimeoutExpired(ctx context.Context, event *events.Event) error {
	var data events.OrderTimeoutExpiredData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse order timeout data")
	}

	return h.advance(ctx, &application.AdvanceOrderSagaCommand{
		OrderID:      data.OrderID,
		Trigger:      domain.Trigger{Kind: domain.TriggerTimeoutExpired},
		TimeoutToken: data.Token,
	})
}

// HandleOrderCompleted records the audit row for a completed order
func (h *OrderEventHandlers) HandleOrderCompleted(ctx context.Context, event *events.Event) error {
	var data events.OrderCompletedData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse order completed data")
	}

	cmd := &application.RecordOrderOutcomeCommand{
		OrderID: data.OrderID,
		Status:  domain.OrderStatusCompleted,
	}

	if err := h.recordOrderOutcome.Execute(ctx, cmd); err != nil {
		fmt.Printf("Failed to record completion for order %s: %v\n", data.OrderID, err)
		return err // Retry: the upsert is idempotent
	}

	return nil
}

// HandleOrderFailed records the audit row for a failed order
func (h *OrderEventHandlers) HandleOrderFailed(ctx context.Context, event *events.Event) error {
	var data events.OrderFailedData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse order failed data")
	}

	cmd := &application.RecordOrderOutcomeCommand{
		OrderID: data.OrderID,
		Status:  domain.OrderStatusFailed,
		Reason:  data.Reason,
	}

	if err := h.recordOrderOutcome.Execute(ctx, cmd); err != nil {
		fmt.Printf("Failed to record failure for order %s: %v\n", data.OrderID, err)
		return err // Retry: the upsert is idempotent
	}

	return nil
}

func (h *OrderEventHandlers) advance(ctx context.Context, cmd *application.AdvanceOrderSagaCommand) error {
	if err := h.advanceOrderSaga.Execute(ctx, cmd); err != nil {
		fmt.Printf("Failed to advance saga for order %s: %v\n", cmd.OrderID, err)
		return err // Exhausted conflict retries or infra failure, redeliver
	}
	return nil
}

// parseEventData parses event data into the specified struct
func (h *OrderEventHandlers) parseEventData(event *events.Event, target interface{}) error {
	jsonData, err := json.Marshal(event.Data)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event data")
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return errors.Wrap(err, "failed to unmarshal event data")
	}

	return nil
}
