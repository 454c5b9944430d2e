package application

import (
	"context"
	"time"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// maxTransitionAttempts bounds the re-read/reapply loop on concurrency
// conflicts. An exhausted loop surfaces the conflict to the transport,
// which redelivers the message for another round.
const maxTransitionAttempts = 3

// Demo card token; real deployments substitute a tokenization service
const testCardToken = "test-card-token"

// AdvanceOrderSagaCommand represents a consumed participant event or the
// self-scheduled timeout, reduced to the state machine trigger
type AdvanceOrderSagaCommand struct {
	OrderID      models.ID      `json:"order_id"`
	Trigger      domain.Trigger `json:"trigger"`
	TimeoutToken string         `json:"timeout_token,omitempty"`
}

// AdvanceOrderSaga use case applies one trigger to the saga instance
// correlated by order id: decide the transition, win the optimistic write,
// then perform the decided effects. Events for unknown orders and events
// with no valid transition are duplicate-delivery artifacts and are
// discarded silently.
type AdvanceOrderSaga struct {
	sagaRepository   domain.SagaRepository
	timeoutScheduler domain.TimeoutScheduler
	eventPublisher   events.Publisher
	timeout          time.Duration
}

// NewAdvanceOrderSaga creates a new AdvanceOrderSaga use case
func NewAdvanceOrderSaga(
	sagaRepository domain.SagaRepository,
	timeoutScheduler domain.TimeoutScheduler,
	eventPublisher events.Publisher,
	timeout time.Duration,
) *AdvanceOrderSaga {
	return &AdvanceOrderSaga{
		sagaRepository:   sagaRepository,
		timeoutScheduler: timeoutScheduler,
		eventPublisher:   eventPublisher,
		timeout:          timeout,
	}
}

// Execute applies the trigger, retrying from a fresh read on conflicts
func (uc *AdvanceOrderSaga) Execute(ctx context.Context, cmd *AdvanceOrderSagaCommand) error {
	if err := uc.validateCommand(cmd); err != nil {
		return errors.Wrap(err, "invalid command")
	}

	var lastErr error
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		applied, err := uc.apply(ctx, cmd)
		if err == nil {
			if applied {
				telemetry.RecordCounter(ctx, "order_saga_transitions_total", "Order saga transitions applied", 1,
					attribute.String("trigger", string(cmd.Trigger.Kind)))
			}
			return nil
		}

		if !errors.Is(errors.Cause(err), domain.ErrConcurrencyConflict) {
			return err
		}

		// Lost against a concurrent writer for the same order; the state
		// may have advanced, so retry the whole decision from a re-read
		telemetry.RecordCounter(ctx, "order_saga_conflicts_total", "Order saga optimistic concurrency conflicts", 1)
		lastErr = err
	}

	return errors.Wrap(lastErr, "transition retries exhausted")
}

// apply performs one read-decide-write-effect cycle. It returns false when
// the event was discarded without a transition.
func (uc *AdvanceOrderSaga) apply(ctx context.Context, cmd *AdvanceOrderSagaCommand) (bool, error) {
	saga, err := uc.sagaRepository.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return false, errors.Wrap(err, "failed to look up saga")
	}

	if saga == nil {
		// Stale or duplicate event for an unknown or already completed
		// order; completed sagas are deleted and cannot be resurrected
		telemetry.RecordCounter(ctx, "order_saga_unknown_events_total",
			"Events discarded because no saga instance exists", 1,
			attribute.String("trigger", string(cmd.Trigger.Kind)))
		return false, nil
	}

	if saga.CurrentState.Terminal() {
		return uc.resumeTerminal(ctx, saga, cmd.Trigger)
	}

	if cmd.Trigger.Kind == domain.TriggerTimeoutExpired && saga.TimeoutToken != cmd.TimeoutToken {
		// The timeout was cancelled and replaced after this delivery was
		// scheduled; only the token stored on the instance is live
		telemetry.RecordCounter(ctx, "order_saga_stale_timeouts_total",
			"Timeout deliveries discarded by the token check", 1)
		return false, nil
	}

	decision, err := domain.Decide(saga.CurrentState, cmd.Trigger)
	if err != nil {
		if errors.Is(errors.Cause(err), domain.ErrInvalidTransition) {
			telemetry.RecordCounter(ctx, "order_saga_discarded_events_total",
				"Duplicate or out-of-order events discarded", 1,
				attribute.String("trigger", string(cmd.Trigger.Kind)))
			return false, nil
		}
		return false, errors.Wrap(err, "failed to decide transition")
	}

	if decision.CancelTimeout && saga.TimeoutToken != "" {
		// Advisory; the token check above is the authoritative guard
		_ = uc.timeoutScheduler.Cancel(ctx, saga.TimeoutToken)
	}

	token := ""
	if decision.ScheduleTimeout {
		token, err = uc.timeoutScheduler.Schedule(ctx, saga.OrderID, uc.timeout)
		if err != nil {
			return false, errors.Wrap(err, "failed to schedule order timeout")
		}
	}

	expectedVersion := saga.Version.Value
	saga.Apply(decision, token)

	if err := uc.sagaRepository.Update(ctx, saga, expectedVersion); err != nil {
		if token != "" {
			_ = uc.timeoutScheduler.Cancel(ctx, token)
		}
		return false, errors.Wrap(err, "failed to persist saga transition")
	}

	// Effects are emitted only after winning the write, so a duplicate
	// delivery racing this one cannot publish the same message twice. A
	// publish failure here leaves the terminal row with EffectsPending set
	// and the redelivered trigger finishes the emission via resumeTerminal.
	if err := uc.publishEffects(ctx, saga, decision); err != nil {
		return false, err
	}

	if decision.Complete {
		if err := uc.sagaRepository.Delete(ctx, saga.OrderID); err != nil {
			return false, errors.Wrap(err, "failed to delete completed saga")
		}
	} else if saga.EffectsPending {
		if err := uc.markEffectsEmitted(ctx, saga); err != nil {
			return false, err
		}
	}

	return true, nil
}

// resumeTerminal handles a trigger that finds its instance already terminal.
// When the terminal write won but the emission was cut short, EffectsPending
// is still set and the redelivered producing trigger re-emits the outcome
// (and finishes the delete, for completed orders). Anything else arriving in
// a terminal state is a stale duplicate and is discarded.
func (uc *AdvanceOrderSaga) resumeTerminal(ctx context.Context, saga *domain.OrderSaga, trigger domain.Trigger) (bool, error) {
	if !saga.EffectsPending || !domain.ResumesTerminal(saga.CurrentState, trigger.Kind) {
		telemetry.RecordCounter(ctx, "order_saga_discarded_events_total",
			"Duplicate or out-of-order events discarded", 1,
			attribute.String("trigger", string(trigger.Kind)))
		return false, nil
	}

	telemetry.RecordCounter(ctx, "order_saga_resumed_emissions_total",
		"Terminal emissions finished on redelivery", 1)

	decision := domain.Decision{NextState: saga.CurrentState}
	if saga.CurrentState == domain.StateCompleted {
		decision.Complete = true
	} else {
		decision.FailReason = saga.FailureReason
	}

	if err := uc.publishEffects(ctx, saga, decision); err != nil {
		return false, err
	}

	if decision.Complete {
		if err := uc.sagaRepository.Delete(ctx, saga.OrderID); err != nil {
			return false, errors.Wrap(err, "failed to delete completed saga")
		}
		return true, nil
	}

	return true, uc.markEffectsEmitted(ctx, saga)
}

// markEffectsEmitted clears the pending marker so later duplicates of the
// producing trigger are discarded instead of re-emitted. A failed write here
// redelivers and re-emits once more; the outcome recorder's upsert absorbs
// the duplicate.
func (uc *AdvanceOrderSaga) markEffectsEmitted(ctx context.Context, saga *domain.OrderSaga) error {
	expectedVersion := saga.Version.Value
	saga.EffectsEmitted()

	if err := uc.sagaRepository.Update(ctx, saga, expectedVersion); err != nil {
		return errors.Wrap(err, "failed to clear pending emission")
	}

	return nil
}

func (uc *AdvanceOrderSaga) publishEffects(ctx context.Context, saga *domain.OrderSaga, decision domain.Decision) error {
	var outbound []*events.Event

	if decision.CheckInventory {
		outbound = append(outbound, events.NewEvent(saga.OrderID, events.CheckInventoryCommand, events.CheckInventoryData{
			OrderID: saga.OrderID,
		}).WithCorrelationID(saga.CorrelationID))
	}

	if decision.ProcessPayment {
		outbound = append(outbound, events.NewEvent(saga.OrderID, events.ProcessPaymentCommand, events.ProcessPaymentData{
			OrderID:   saga.OrderID,
			Amount:    saga.TotalAmount,
			CardToken: testCardToken,
		}).WithCorrelationID(saga.CorrelationID))
	}

	if decision.Complete {
		outbound = append(outbound, events.NewEvent(saga.OrderID, events.OrderCompletedEvent, events.OrderCompletedData{
			OrderID: saga.OrderID,
		}).WithCorrelationID(saga.CorrelationID))

		telemetry.RecordCounter(ctx, "orders_completed_total", "Orders completed", 1)
	}

	if decision.FailReason != "" {
		outbound = append(outbound, events.NewEvent(saga.OrderID, events.OrderFailedEvent, events.OrderFailedData{
			OrderID: saga.OrderID,
			Reason:  decision.FailReason,
		}).WithCorrelationID(saga.CorrelationID))

		telemetry.RecordCounter(ctx, "orders_failed_total", "Orders failed", 1)
	}

	if len(outbound) == 0 {
		return nil
	}

	if err := uc.eventPublisher.Publish(ctx, outbound...); err != nil {
		return errors.Wrap(err, "failed to publish saga effects")
	}

	return nil
}

func (uc *AdvanceOrderSaga) validateCommand(cmd *AdvanceOrderSagaCommand) error {
	if cmd.OrderID.String() == "" {
		return errors.New("order ID is required")
	}

	if cmd.Trigger.Kind == "" {
		return errors.New("trigger is required")
	}

	if cmd.Trigger.Kind == domain.TriggerTimeoutExpired && cmd.TimeoutToken == "" {
		return errors.New("timeout token is required for timeout triggers")
	}

	return nil
}
