package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/draftea/order-system/inventory-service/application"
	"github.com/draftea/order-system/shared/events"
	"github.com/pkg/errors"
)

// InventoryEventHandlers routes consumed bus messages into the inventory
// use cases
type InventoryEventHandlers struct {
	checkInventory *application.CheckInventory
}

// NewInventoryEventHandlers creates new inventory event handlers
func NewInventoryEventHandlers(checkInventory *application.CheckInventory) *InventoryEventHandlers {
	return &InventoryEventHandlers{
		checkInventory: checkInventory,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *InventoryEventHandlers) HandlerID() string {
	return "inventory-service-event-handler"
}

// Handle implements the events.EventHandler interface
func (h *InventoryEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.CheckInventoryCommand:
		return h.HandleCheckInventory(ctx, event)
	default:
		// Unknown event type, ignore
		return nil
	}
}

// HandleCheckInventory handles inventory check requests
func (h *InventoryEventHandlers) HandleCheckInventory(ctx context.Context, event *events.Event) error {
	var data events.CheckInventoryData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse check inventory data")
	}

	cmd := &application.CheckInventoryCommand{
		OrderID: data.OrderID,
	}

	if err := h.checkInventory.Execute(ctx, cmd); err != nil {
		fmt.Printf("Failed to check inventory for order %s: %v\n", data.OrderID, err)
		return err // Retry: the orchestrator is waiting on the outcome
	}

	return nil
}

// parseEventData parses event data into the specified struct
func (h *InventoryEventHandlers) parseEventData(event *events.Event, target interface{}) error {
	jsonData, err := json.Marshal(event.Data)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event data")
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return errors.Wrap(err, "failed to unmarshal event data")
	}

	return nil
}
