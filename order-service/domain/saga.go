package domain

import (
	"context"
	"time"

	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
)

// State represents the current state of an order saga
type State string

const (
	// StateNotStarted is implicit: no instance exists for the order yet
	StateNotStarted        State = "not_started"
	StateSubmitted         State = "submitted"
	StateInventoryReserved State = "inventory_reserved"
	StateCompleted         State = "completed"
	StateFailed            State = "failed"
)

// Terminal reports whether the state accepts no further transitions
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Timeout failure reasons, matching the participant the saga was waiting on
const (
	InventoryTimeoutReason = "Order processing timeout - no response from inventory service within 5 minutes"
	PaymentTimeoutReason   = "Order processing timeout - no response from payment service within 5 minutes"
)

var (
	// ErrInvalidTransition marks an event that has no transition from the
	// current state. Under at-least-once delivery this is a duplicate or
	// out-of-order artifact and callers discard it silently.
	ErrInvalidTransition = errors.New("invalid saga transition")

	// ErrSagaAlreadyExists is returned by the repository when an instance
	// for the business order id is already present
	ErrSagaAlreadyExists = errors.New("saga already exists")

	// ErrConcurrencyConflict is returned when a compare-and-swap write
	// lost against a concurrent writer; callers re-read and reapply
	ErrConcurrencyConflict = errors.New("saga concurrency conflict")
)

// TriggerKind identifies an inbound event the saga reacts to
type TriggerKind string

const (
	TriggerOrderSubmitted  TriggerKind = "order_submitted"
	TriggerStockReserved   TriggerKind = "stock_reserved"
	TriggerStockShortage   TriggerKind = "stock_shortage"
	TriggerPaymentAccepted TriggerKind = "payment_accepted"
	TriggerPaymentFailed   TriggerKind = "payment_failed"
	TriggerTimeoutExpired  TriggerKind = "timeout_expired"
)

// Trigger is an inbound event reduced to what the state machine needs
type Trigger struct {
	Kind   TriggerKind
	Reason string // set for StockShortage and PaymentFailed
}

// Decision is the outcome of a single pure transition: the next state plus
// the side effects the caller must perform. All effects (publish, schedule,
// cancel, persist, delete) are interpreted outside this package's Decide.
type Decision struct {
	NextState       State
	CancelTimeout   bool
	ScheduleTimeout bool
	CheckInventory  bool   // emit the inventory command
	ProcessPayment  bool   // emit the payment command
	Complete        bool   // emit the completed event and delete the instance
	FailReason      string // non-empty: emit the failed event with this reason
}

// Terminal reports whether the decision reaches a terminal state
func (d Decision) Terminal() bool {
	return d.NextState.Terminal()
}

// ResumesTerminal reports whether the trigger is the one that produced the
// given terminal state. Such a trigger arriving again is the transport
// redelivering after the terminal write won but its emission was cut short.
func ResumesTerminal(state State, kind TriggerKind) bool {
	switch state {
	case StateCompleted:
		return kind == TriggerPaymentAccepted
	case StateFailed:
		return kind == TriggerStockShortage || kind == TriggerPaymentFailed || kind == TriggerTimeoutExpired
	}
	return false
}

// Decide maps (state, trigger) to (next state, effects). It is pure: no
// clock, no I/O. Any pair without a row in the transition table yields
// ErrInvalidTransition.
func Decide(state State, trigger Trigger) (Decision, error) {
	switch state {
	case StateNotStarted:
		if trigger.Kind == TriggerOrderSubmitted {
			return Decision{
				NextState:       StateSubmitted,
				ScheduleTimeout: true,
				CheckInventory:  true,
			}, nil
		}

	case StateSubmitted:
		switch trigger.Kind {
		case TriggerStockReserved:
			return Decision{
				NextState:       StateInventoryReserved,
				CancelTimeout:   true,
				ScheduleTimeout: true,
				ProcessPayment:  true,
			}, nil
		case TriggerStockShortage:
			return Decision{
				NextState:     StateFailed,
				CancelTimeout: true,
				FailReason:    trigger.Reason,
			}, nil
		case TriggerTimeoutExpired:
			return Decision{
				NextState:  StateFailed,
				FailReason: InventoryTimeoutReason,
			}, nil
		}

	case StateInventoryReserved:
		switch trigger.Kind {
		case TriggerPaymentAccepted:
			return Decision{
				NextState:     StateCompleted,
				CancelTimeout: true,
				Complete:      true,
			}, nil
		case TriggerPaymentFailed:
			return Decision{
				NextState:     StateFailed,
				CancelTimeout: true,
				FailReason:    trigger.Reason,
			}, nil
		case TriggerTimeoutExpired:
			return Decision{
				NextState:  StateFailed,
				FailReason: PaymentTimeoutReason,
			}, nil
		}
	}

	return Decision{}, errors.Wrapf(ErrInvalidTransition, "no transition for %s in state %s", trigger.Kind, state)
}

// OrderSaga is the durable per-order state machine instance. OrderID is the
// sole correlation key for inbound events; CorrelationID only identifies the
// persisted row.
//
// EffectsPending marks a terminal state whose outcome event has not been
// confirmed on the bus yet. It is set by the terminal write and cleared
// (or the row deleted) once the emission succeeds, so a redelivery can
// finish the emission while later duplicates are discarded.
type OrderSaga struct {
	CorrelationID  models.ID
	OrderID        models.ID
	CurrentState   State
	CustomerNumber string
	TotalAmount    models.Money
	TimeoutToken   string
	FailureReason  string
	EffectsPending bool
	Timestamps     models.Timestamps
	Version        models.Version
}

// NewOrderSaga creates a saga instance in the Submitted state
func NewOrderSaga(orderID models.ID, customerNumber string, totalAmount models.Money) (*OrderSaga, error) {
	if orderID.String() == "" {
		return nil, errors.New("order ID is required")
	}

	if !totalAmount.IsPositive() {
		return nil, errors.New("total amount must be positive")
	}

	return &OrderSaga{
		CorrelationID:  models.GenerateUUID(),
		OrderID:        orderID,
		CurrentState:   StateSubmitted,
		CustomerNumber: customerNumber,
		TotalAmount:    totalAmount,
		Timestamps:     models.NewTimestamps(),
		Version:        models.NewVersion(),
	}, nil
}

// Apply advances the instance to the decision's next state and bumps the
// concurrency token. The caller persists with the pre-Apply version as the
// compare-and-swap expectation.
func (s *OrderSaga) Apply(decision Decision, timeoutToken string) {
	s.CurrentState = decision.NextState
	s.TimeoutToken = timeoutToken
	s.FailureReason = decision.FailReason
	s.EffectsPending = decision.Terminal()
	s.Timestamps = s.Timestamps.Update()
	s.Version = s.Version.Update()
}

// EffectsEmitted clears the pending marker once the terminal outcome is
// confirmed on the bus
func (s *OrderSaga) EffectsEmitted() {
	s.EffectsPending = false
	s.Timestamps = s.Timestamps.Update()
	s.Version = s.Version.Update()
}

// SagaRepository is durable keyed storage with optimistic concurrency.
// All writes for one order id are strictly ordered; different order ids
// never contend.
type SagaRepository interface {
	// Create persists a new instance; ErrSagaAlreadyExists when the order id is taken
	Create(ctx context.Context, saga *OrderSaga) error
	// FindByOrderID returns (nil, nil) when no instance exists
	FindByOrderID(ctx context.Context, orderID models.ID) (*OrderSaga, error)
	// Update writes the instance iff the stored version equals expectedVersion,
	// otherwise ErrConcurrencyConflict
	Update(ctx context.Context, saga *OrderSaga, expectedVersion int) error
	// Delete removes the instance; used on the successful-completion path
	Delete(ctx context.Context, orderID models.ID) error
}

// TimeoutScheduler schedules a single delayed self-delivery per saga
// instance. Cancel is advisory: a timeout already in flight may still be
// delivered, and the consumer-side token check is the authoritative guard.
type TimeoutScheduler interface {
	Schedule(ctx context.Context, orderID models.ID, delay time.Duration) (string, error)
	Cancel(ctx context.Context, token string) error
}
