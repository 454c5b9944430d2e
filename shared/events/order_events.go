package events

import (
	"time"

	"github.com/draftea/order-system/shared/models"
)

// Message contracts exchanged between the order orchestrator and its
// participants. Commands are point-to-point intents, events are broadcast
// facts; both ride the same bus and are correlated by the business order id.
const (
	// Order Events
	OrderSubmittedEvent      = "order.submitted"
	OrderTimeoutExpiredEvent = "order.timeout.expired"
	OrderCompletedEvent      = "order.completed"
	OrderFailedEvent         = "order.failed"

	// Inventory Commands & Events
	CheckInventoryCommand = "inventory.check.requested"
	StockReservedEvent    = "inventory.stock.reserved"
	StockShortageEvent    = "inventory.stock.shortage"

	// Payment Commands & Events
	ProcessPaymentCommand = "payment.process.requested"
	PaymentAcceptedEvent  = "payment.accepted"
	PaymentFailedEvent    = "payment.failed"
)

// OrderSubmittedData is published when a customer places an order
type OrderSubmittedData struct {
	OrderID        models.ID    `json:"order_id"`
	Timestamp      time.Time    `json:"timestamp"`
	CustomerNumber string       `json:"customer_number"`
	TotalAmount    models.Money `json:"total_amount"`
}

// CheckInventoryData asks the inventory service to reserve stock
type CheckInventoryData struct {
	OrderID models.ID `json:"order_id"`
}

// StockReservedData is published when inventory was reserved
type StockReservedData struct {
	OrderID models.ID `json:"order_id"`
}

// StockShortageData is published when inventory could not be reserved
type StockShortageData struct {
	OrderID models.ID `json:"order_id"`
	Reason  string    `json:"reason"`
}

// ProcessPaymentData asks the payment service to charge the customer
type ProcessPaymentData struct {
	OrderID   models.ID    `json:"order_id"`
	Amount    models.Money `json:"amount"`
	CardToken string       `json:"card_token"`
}

// PaymentAcceptedData is published when the charge succeeded
type PaymentAcceptedData struct {
	OrderID models.ID `json:"order_id"`
}

// PaymentFailedData is published when the charge was rejected
type PaymentFailedData struct {
	OrderID models.ID `json:"order_id"`
	Reason  string    `json:"reason"`
}

// OrderTimeoutExpiredData is the self-scheduled timeout delivery. Token
// identifies the schedule that produced it; the orchestrator ignores
// deliveries whose token no longer matches the saga instance.
type OrderTimeoutExpiredData struct {
	OrderID models.ID `json:"order_id"`
	Token   string    `json:"token"`
}

// OrderCompletedData is the happy path terminal event
type OrderCompletedData struct {
	OrderID models.ID `json:"order_id"`
}

// OrderFailedData is the sad path terminal event
type OrderFailedData struct {
	OrderID models.ID `json:"order_id"`
	Reason  string    `json:"reason"`
}
