package domain

import (
	"testing"

	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name             string
		state            State
		trigger          Trigger
		expectedDecision Decision
		expectInvalid    bool
	}{
		{
			name:    "order submitted starts the saga",
			state:   StateNotStarted,
			trigger: Trigger{Kind: TriggerOrderSubmitted},
			expectedDecision: Decision{
				NextState:       StateSubmitted,
				ScheduleTimeout: true,
				CheckInventory:  true,
			},
		},
		{
			name:    "stock reserved moves to payment",
			state:   StateSubmitted,
			trigger: Trigger{Kind: TriggerStockReserved},
			expectedDecision: Decision{
				NextState:       StateInventoryReserved,
				CancelTimeout:   true,
				ScheduleTimeout: true,
				ProcessPayment:  true,
			},
		},
		{
			name:    "stock shortage fails the order",
			state:   StateSubmitted,
			trigger: Trigger{Kind: TriggerStockShortage, Reason: "Item out of stock"},
			expectedDecision: Decision{
				NextState:     StateFailed,
				CancelTimeout: true,
				FailReason:    "Item out of stock",
			},
		},
		{
			name:    "timeout while waiting on inventory fails the order",
			state:   StateSubmitted,
			trigger: Trigger{Kind: TriggerTimeoutExpired},
			expectedDecision: Decision{
				NextState:  StateFailed,
				FailReason: InventoryTimeoutReason,
			},
		},
		{
			name:    "payment accepted completes the order",
			state:   StateInventoryReserved,
			trigger: Trigger{Kind: TriggerPaymentAccepted},
			expectedDecision: Decision{
				NextState:     StateCompleted,
				CancelTimeout: true,
				Complete:      true,
			},
		},
		{
			name:    "payment failed fails the order",
			state:   StateInventoryReserved,
			trigger: Trigger{Kind: TriggerPaymentFailed, Reason: "Credit card limit exceeded"},
			expectedDecision: Decision{
				NextState:     StateFailed,
				CancelTimeout: true,
				FailReason:    "Credit card limit exceeded",
			},
		},
		{
			name:    "timeout while waiting on payment fails the order",
			state:   StateInventoryReserved,
			trigger: Trigger{Kind: TriggerTimeoutExpired},
			expectedDecision: Decision{
				NextState:  StateFailed,
				FailReason: PaymentTimeoutReason,
			},
		},
		{
			name:          "duplicate stock reserved after payment started",
			state:         StateInventoryReserved,
			trigger:       Trigger{Kind: TriggerStockReserved},
			expectInvalid: true,
		},
		{
			name:          "payment accepted before inventory reserved",
			state:         StateSubmitted,
			trigger:       Trigger{Kind: TriggerPaymentAccepted},
			expectInvalid: true,
		},
		{
			name:          "payment failed before inventory reserved",
			state:         StateSubmitted,
			trigger:       Trigger{Kind: TriggerPaymentFailed},
			expectInvalid: true,
		},
		{
			name:          "resubmission of a started order",
			state:         StateSubmitted,
			trigger:       Trigger{Kind: TriggerOrderSubmitted},
			expectInvalid: true,
		},
		{
			name:          "stock reserved before the saga started",
			state:         StateNotStarted,
			trigger:       Trigger{Kind: TriggerStockReserved},
			expectInvalid: true,
		},
		{
			name:          "timeout before the saga started",
			state:         StateNotStarted,
			trigger:       Trigger{Kind: TriggerTimeoutExpired},
			expectInvalid: true,
		},
		{
			name:          "event after completion",
			state:         StateCompleted,
			trigger:       Trigger{Kind: TriggerPaymentAccepted},
			expectInvalid: true,
		},
		{
			name:          "event after failure",
			state:         StateFailed,
			trigger:       Trigger{Kind: TriggerStockReserved},
			expectInvalid: true,
		},
		{
			name:          "timeout after failure",
			state:         StateFailed,
			trigger:       Trigger{Kind: TriggerTimeoutExpired},
			expectInvalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := Decide(tt.state, tt.trigger)

			if tt.expectInvalid {
				assert.Error(t, err)
				assert.True(t, errors.Is(errors.Cause(err), ErrInvalidTransition))
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedDecision, decision)
		})
	}
}

func TestDecide_TerminalDecisionsCarryExactlyOneOutcome(t *testing.T) {
	// Every terminal decision emits either a completion or a failure, never
	// both and never neither
	terminalTriggers := []struct {
		state   State
		trigger Trigger
	}{
		{StateSubmitted, Trigger{Kind: TriggerStockShortage, Reason: "short"}},
		{StateSubmitted, Trigger{Kind: TriggerTimeoutExpired}},
		{StateInventoryReserved, Trigger{Kind: TriggerPaymentAccepted}},
		{StateInventoryReserved, Trigger{Kind: TriggerPaymentFailed, Reason: "declined"}},
		{StateInventoryReserved, Trigger{Kind: TriggerTimeoutExpired}},
	}

	for _, tc := range terminalTriggers {
		decision, err := Decide(tc.state, tc.trigger)
		assert.NoError(t, err)
		assert.True(t, decision.Terminal())

		completed := decision.Complete
		failed := decision.FailReason != ""
		assert.NotEqual(t, completed, failed, "state %s trigger %s", tc.state, tc.trigger.Kind)
	}
}

func TestNewOrderSaga(t *testing.T) {
	orderID := models.ID("550e8400-e29b-41d4-a716-446655440001")

	t.Run("creates instance in submitted state", func(t *testing.T) {
		saga, err := NewOrderSaga(orderID, "customer-7", models.NewMoney(5000, "USD"))

		assert.NoError(t, err)
		assert.Equal(t, StateSubmitted, saga.CurrentState)
		assert.Equal(t, orderID, saga.OrderID)
		assert.Equal(t, "customer-7", saga.CustomerNumber)
		assert.Equal(t, 1, saga.Version.Value)
		assert.NotEmpty(t, saga.CorrelationID)
	})

	t.Run("rejects empty order ID", func(t *testing.T) {
		_, err := NewOrderSaga("", "customer-7", models.NewMoney(5000, "USD"))
		assert.Error(t, err)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewOrderSaga(orderID, "customer-7", models.NewMoney(0, "USD"))
		assert.Error(t, err)
	})
}

func TestOrderSaga_Apply(t *testing.T) {
	orderID := models.ID("550e8400-e29b-41d4-a716-446655440001")
	saga, err := NewOrderSaga(orderID, "customer-7", models.NewMoney(5000, "USD"))
	assert.NoError(t, err)

	saga.TimeoutToken = "token-1"

	decision, err := Decide(saga.CurrentState, Trigger{Kind: TriggerStockReserved})
	assert.NoError(t, err)

	saga.Apply(decision, "token-2")

	assert.Equal(t, StateInventoryReserved, saga.CurrentState)
	assert.Equal(t, "token-2", saga.TimeoutToken)
	assert.Equal(t, 2, saga.Version.Value)
	assert.False(t, saga.EffectsPending)
}

func TestOrderSaga_Apply_TerminalTransitionMarksEmissionPending(t *testing.T) {
	orderID := models.ID("550e8400-e29b-41d4-a716-446655440001")
	saga, err := NewOrderSaga(orderID, "customer-7", models.NewMoney(5000, "USD"))
	assert.NoError(t, err)

	decision, err := Decide(saga.CurrentState, Trigger{Kind: TriggerStockShortage, Reason: "Item out of stock"})
	assert.NoError(t, err)

	saga.Apply(decision, "")

	assert.Equal(t, StateFailed, saga.CurrentState)
	assert.Equal(t, "Item out of stock", saga.FailureReason)
	assert.True(t, saga.EffectsPending)

	version := saga.Version.Value
	saga.EffectsEmitted()

	assert.False(t, saga.EffectsPending)
	assert.Equal(t, version+1, saga.Version.Value)
}

func TestResumesTerminal(t *testing.T) {
	// Only the trigger that produced a terminal state may finish its emission
	assert.True(t, ResumesTerminal(StateCompleted, TriggerPaymentAccepted))
	assert.True(t, ResumesTerminal(StateFailed, TriggerStockShortage))
	assert.True(t, ResumesTerminal(StateFailed, TriggerPaymentFailed))
	assert.True(t, ResumesTerminal(StateFailed, TriggerTimeoutExpired))

	assert.False(t, ResumesTerminal(StateCompleted, TriggerStockReserved))
	assert.False(t, ResumesTerminal(StateFailed, TriggerPaymentAccepted))
	assert.False(t, ResumesTerminal(StateSubmitted, TriggerStockShortage))
	assert.False(t, ResumesTerminal(StateInventoryReserved, TriggerPaymentFailed))
}
