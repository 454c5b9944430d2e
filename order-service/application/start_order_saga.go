package application

import (
	"context"
	"time"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/telemetry"
	"github.com/pkg/errors"
)

// StartOrderSagaCommand represents a consumed order submission
type StartOrderSagaCommand struct {
	OrderID        models.ID    `json:"order_id"`
	CustomerNumber string       `json:"customer_number"`
	TotalAmount    models.Money `json:"total_amount"`
}

// StartOrderSaga use case creates the saga instance for a submitted order,
// schedules the processing timeout and asks inventory to reserve stock.
// A submission for an order id that already has an instance is treated as a
// duplicate delivery and discarded without effects.
type StartOrderSaga struct {
	sagaRepository   domain.SagaRepository
	timeoutScheduler domain.TimeoutScheduler
	eventPublisher   events.Publisher
	timeout          time.Duration
}

// NewStartOrderSaga creates a new StartOrderSaga use case
func NewStartOrderSaga(
	sagaRepository domain.SagaRepository,
	timeoutScheduler domain.TimeoutScheduler,
	eventPublisher events.Publisher,
	timeout time.Duration,
) *StartOrderSaga {
	return &StartOrderSaga{
		sagaRepository:   sagaRepository,
		timeoutScheduler: timeoutScheduler,
		eventPublisher:   eventPublisher,
		timeout:          timeout,
	}
}

// Execute starts the saga for a submitted order
func (uc *StartOrderSaga) Execute(ctx context.Context, cmd *StartOrderSagaCommand) error {
	if err := uc.validateCommand(cmd); err != nil {
		return errors.Wrap(err, "invalid command")
	}

	existing, err := uc.sagaRepository.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to look up saga")
	}

	if existing != nil {
		// Duplicate submission delivery; already started
		telemetry.RecordCounter(ctx, "order_saga_duplicate_submissions_total",
			"Order submissions discarded because the saga already exists", 1)
		return nil
	}

	saga, err := domain.NewOrderSaga(cmd.OrderID, cmd.CustomerNumber, cmd.TotalAmount)
	if err != nil {
		return errors.Wrap(err, "failed to create saga instance")
	}

	decision, err := domain.Decide(domain.StateNotStarted, domain.Trigger{Kind: domain.TriggerOrderSubmitted})
	if err != nil {
		return errors.Wrap(err, "failed to decide initial transition")
	}

	// Scheduled before the instance is written: if creation loses a duplicate
	// race, the stray timeout fires with a token no instance carries and is
	// discarded by the token check.
	token, err := uc.timeoutScheduler.Schedule(ctx, saga.OrderID, uc.timeout)
	if err != nil {
		return errors.Wrap(err, "failed to schedule order timeout")
	}
	saga.TimeoutToken = token

	if err := uc.sagaRepository.Create(ctx, saga); err != nil {
		if errors.Is(errors.Cause(err), domain.ErrSagaAlreadyExists) {
			// Lost a duplicate-delivery race; nothing to do
			return nil
		}
		return errors.Wrap(err, "failed to persist saga instance")
	}

	if decision.CheckInventory {
		event := events.NewEvent(saga.OrderID, events.CheckInventoryCommand, events.CheckInventoryData{
			OrderID: saga.OrderID,
		}).WithCorrelationID(saga.CorrelationID)

		if err := uc.eventPublisher.Publish(ctx, event); err != nil {
			return errors.Wrap(err, "failed to publish check inventory command")
		}
	}

	telemetry.RecordCounter(ctx, "order_sagas_started_total", "Order sagas started", 1)

	return nil
}

func (uc *StartOrderSaga) validateCommand(cmd *StartOrderSagaCommand) error {
	if cmd.OrderID.String() == "" {
		return errors.New("order ID is required")
	}

	if cmd.CustomerNumber == "" {
		return errors.New("customer number is required")
	}

	if !cmd.TotalAmount.IsPositive() {
		return errors.New("total amount must be positive")
	}

	return nil
}
