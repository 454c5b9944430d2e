package application

import (
	"context"
	"testing"
	"time"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/order-service/mocks"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAdvanceOrderSaga_Execute(t *testing.T) {
	orderID := models.ID("550e8400-e29b-41d4-a716-446655440001")
	correlationID := models.ID("550e8400-e29b-41d4-a716-446655440099")
	timeout := 5 * time.Minute

	sagaInState := func(state domain.State, token string) *domain.OrderSaga {
		return &domain.OrderSaga{
			CorrelationID:  correlationID,
			OrderID:        orderID,
			CurrentState:   state,
			CustomerNumber: "customer-7",
			TotalAmount:    models.NewMoney(5000, "USD"),
			TimeoutToken:   token,
			Timestamps:     models.NewTimestamps(),
			Version:        models.Version{Value: 2},
		}
	}

	tests := []struct {
		name          string
		command       *AdvanceOrderSagaCommand
		setupMocks    func(*mocks.MockSagaRepository, *mocks.MockTimeoutScheduler, *mocks.MockPublisher)
		expectedError string
	}{
		{
			name: "stock reserved moves to payment",
			command: &AdvanceOrderSagaCommand{
				OrderID: orderID,
				Trigger: domain.Trigger{Kind: domain.TriggerStockReserved},
			},
			setupMocks: func(repo *mocks.MockSagaRepository, scheduler *mocks.MockTimeoutScheduler, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, orderID).
					Return(sagaInState(domain.StateSubmitted, "token-1"), nil).Once()
				scheduler.EXPECT().Cancel(mock.Anything, "token-1").Return(nil).Once()
				scheduler.EXPECT().Schedule(mock.Anything, orderID, timeout).Return("token-2", nil).Once()
				repo.EXPECT().Update(mock.Anything, mock.Anything, 2).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name: "stock shortage fails the order",
			command: &AdvanceOrderSagaCommand{
				OrderID: orderID,
				Trigger: domain.Trigger{Kind: domain.TriggerStockShortage, Reason: "Item out of stock"},
			},
			setupMocks: func(repo *mocks.MockSagaRepository, scheduler *mocks.MockTimeoutScheduler, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, orderID).
					Return(sagaInState(domain.StateSubmitted, "token-1"), nil).Once()
				scheduler.EXPECT().Cancel(mock.Anything, "token-1").Return(nil).Once()
				repo.EXPECT().Update(mock.Anything, mock.Anything, 2).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
				repo.EXPECT().Update(mock.Anything, mock.Anything, 3).Return(nil).Once()
			},
		},
		{
			name: "payment accepted completes and deletes the instance",
			command: &AdvanceOrderSagaCommand{
				OrderID: orderID,
				Trigger: domain.Trigger{Kind: domain.TriggerPaymentAccepted},
			},
			setupMocks: func(repo *mocks.MockSagaRepository, scheduler *mocks.MockTimeoutScheduler, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, orderID).
					Return(sagaInState(domain.StateInventoryReserved, "token-2"), nil).Once()
				scheduler.EXPECT().Cancel(mock.Anything, "token-2").Return(nil).Once()
				repo.EXPECT().Update(mock.Anything, mock.Anything, 2).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
				repo.EXPECT().Delete(mock.Anything, orderID).Return(nil).Once()
			},
		},
		{
			name: "payment failed fails the order",
			command: &AdvanceOrderSagaCommand{
				OrderID: orderID,
				Trigger: domain.Trigger{Kind: domain.TriggerPaymentFailed, Reason: "Credit card limit exceeded"},
			},
			setupMocks: func(repo *mocks.MockSagaRepository, scheduler *mocks.MockTimeoutScheduler, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, orderID).
					Return(sagaInState(domain.StateInventoryReserved, "token-2"), nil).Once()
				scheduler.EXPECT().Cancel(mock.Anything, "token-2").Return(nil).Once()
				repo.EXPECT().Update(mock.Anything, mock.Anything, 2).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
				repo.EXPECT().Update(mock.Anything, mock.Anything, 3).Return(nil).Once()
			},
		},
		{
			name: "live timeout fails the order",
			command: &AdvanceOrderSagaCommand{
				OrderID:      orderID,
				Trigger:      domain.Trigger{Kind: domain.TriggerTimeoutExpired},
				TimeoutToken: "token-1",
			},
			setupMocks: func(repo *mocks.MockSagaRepository, scheduler *mocks.MockTimeoutScheduler, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, orderID).
					Return(sagaInState(domain.StateSubmitted, "token-1"), nil).Once()
				repo.EXPECT().Update(mock.Anything, mock.Anything, 2).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
				repo.EXPECT().Update(mock.Anything, mock.Anything, 3).Return(nil).Once()
			},
		},
		{
			name: "stale timeout token is discarded",
			command: &AdvanceOrderSagaCommand{
				OrderID:      orderID,
				Trigger:      domain.Trigger{Kind: domain.TriggerTimeoutExpired},
				TimeoutToken: "token-1",
			},
			setupMocks: func(repo *mocks.MockSagaRepository, scheduler *mocks.MockTimeoutScheduler, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, orderID).
					Return(sagaInState(domain.StateInventoryReserved, "token-2"), nil).Once()
			},
		},
		{
			name: "event for unknown order is discarded",
			command: &AdvanceOrderSagaCommand{
				OrderID: orderID,
				Trigger: domain.Trigger{Kind: domain.TriggerStockReserved},
			},
			setupMocks: func(repo *mocks.MockSagaRepository, scheduler *mocks.MockTimeoutScheduler, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, orderID).Return(nil, nil).Once()
			},
		},
		{
			name: "duplicate event with no transition is discarded",
			command: &AdvanceOrderSagaCommand{
				OrderID: orderID,
				Trigger: domain.Trigger{Kind: domain.TriggerStockReserved},
			},
			setupMocks: func(repo *mocks.MockSagaRepository, scheduler *mocks.MockTimeoutScheduler, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, orderID).
					Return(sagaInState(domain.StateInventoryReserved, "token-2"), nil).Once()
			},
		},
		{
			name: "schedule failure is surfaced for redelivery",
			command: &AdvanceOrderSagaCommand{
				OrderID: orderID,
				Trigger: domain.Trigger{Kind: domain.TriggerStockReserved},
			},
			setupMocks: func(repo *mocks.MockSagaRepository, scheduler *mocks.MockTimeoutScheduler, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, orderID).
					Return(sagaInState(domain.StateSubmitted, "token-1"), nil).Once()
				scheduler.EXPECT().Cancel(mock.Anything, "token-1").Return(nil).Once()
				scheduler.EXPECT().Schedule(mock.Anything, orderID, timeout).
					Return("", errors.New("sqs unavailable")).Once()
			},
			expectedError: "failed to schedule order timeout",
		},
		{
			name: "missing order ID",
			command: &AdvanceOrderSagaCommand{
				Trigger: domain.Trigger{Kind: domain.TriggerStockReserved},
			},
			setupMocks:    func(repo *mocks.MockSagaRepository, scheduler *mocks.MockTimeoutScheduler, publisher *mocks.MockPublisher) {},
			expectedError: "order ID is required",
		},
		{
			name: "timeout trigger without token",
			command: &AdvanceOrderSagaCommand{
				OrderID: orderID,
				Trigger: domain.Trigger{Kind: domain.TriggerTimeoutExpired},
			},
			setupMocks:    func(repo *mocks.MockSagaRepository, scheduler *mocks.MockTimeoutScheduler, publisher *mocks.MockPublisher) {},
			expectedError: "timeout token is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := mocks.NewMockSagaRepository(t)
			mockScheduler := mocks.NewMockTimeoutScheduler(t)
			mockPublisher := mocks.NewMockPublisher(t)

			tt.setupMocks(mockRepo, mockScheduler, mockPublisher)

			useCase := NewAdvanceOrderSaga(mockRepo, mockScheduler, mockPublisher, timeout)

			err := useCase.Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAdvanceOrderSaga_Execute_RetriesOnConcurrencyConflict(t *testing.T) {
	orderID := models.ID("550e8400-e29b-41d4-a716-446655440001")
	timeout := 5 * time.Minute

	freshSaga := func() *domain.OrderSaga {
		return &domain.OrderSaga{
			CorrelationID:  models.GenerateUUID(),
			OrderID:        orderID,
			CurrentState:   domain.StateSubmitted,
			CustomerNumber: "customer-7",
			TotalAmount:    models.NewMoney(5000, "USD"),
			TimeoutToken:   "token-1",
			Timestamps:     models.NewTimestamps(),
			Version:        models.Version{Value: 2},
		}
	}

	mockRepo := mocks.NewMockSagaRepository(t)
	mockScheduler := mocks.NewMockTimeoutScheduler(t)
	mockPublisher := mocks.NewMockPublisher(t)

	// Each attempt re-reads the instance
	mockRepo.EXPECT().FindByOrderID(mock.Anything, orderID).
		RunAndReturn(func(ctx context.Context, id models.ID) (*domain.OrderSaga, error) {
			return freshSaga(), nil
		}).Twice()

	mockScheduler.EXPECT().Cancel(mock.Anything, mock.Anything).Return(nil)
	mockScheduler.EXPECT().Schedule(mock.Anything, orderID, timeout).Return("token-2", nil).Twice()

	// First write loses the race, second wins
	mockRepo.EXPECT().Update(mock.Anything, mock.Anything, 2).
		Return(errors.Wrap(domain.ErrConcurrencyConflict, "lost race")).Once()
	mockRepo.EXPECT().Update(mock.Anything, mock.Anything, 2).Return(nil).Once()

	mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()

	useCase := NewAdvanceOrderSaga(mockRepo, mockScheduler, mockPublisher, timeout)

	err := useCase.Execute(context.Background(), &AdvanceOrderSagaCommand{
		OrderID: orderID,
		Trigger: domain.Trigger{Kind: domain.TriggerStockReserved},
	})

	assert.NoError(t, err)
}

func TestAdvanceOrderSaga_Execute_ConflictRetriesExhausted(t *testing.T) {
	orderID := models.ID("550e8400-e29b-41d4-a716-446655440001")
	timeout := 5 * time.Minute

	mockRepo := mocks.NewMockSagaRepository(t)
	mockScheduler := mocks.NewMockTimeoutScheduler(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByOrderID(mock.Anything, orderID).
		RunAndReturn(func(ctx context.Context, id models.ID) (*domain.OrderSaga, error) {
			return &domain.OrderSaga{
				CorrelationID:  models.GenerateUUID(),
				OrderID:        orderID,
				CurrentState:   domain.StateSubmitted,
				CustomerNumber: "customer-7",
				TotalAmount:    models.NewMoney(5000, "USD"),
				TimeoutToken:   "token-1",
				Timestamps:     models.NewTimestamps(),
				Version:        models.Version{Value: 2},
			}, nil
		}).Times(3)

	mockScheduler.EXPECT().Cancel(mock.Anything, mock.Anything).Return(nil)
	mockScheduler.EXPECT().Schedule(mock.Anything, orderID, timeout).Return("token-2", nil).Times(3)

	mockRepo.EXPECT().Update(mock.Anything, mock.Anything, 2).
		Return(errors.Wrap(domain.ErrConcurrencyConflict, "lost race")).Times(3)

	useCase := NewAdvanceOrderSaga(mockRepo, mockScheduler, mockPublisher, timeout)

	err := useCase.Execute(context.Background(), &AdvanceOrderSagaCommand{
		OrderID: orderID,
		Trigger: domain.Trigger{Kind: domain.TriggerStockReserved},
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transition retries exhausted")
}

func TestAdvanceOrderSaga_Execute_PublishesProcessPaymentWithAmountAndToken(t *testing.T) {
	orderID := models.ID("550e8400-e29b-41d4-a716-446655440001")
	timeout := 5 * time.Minute

	mockRepo := mocks.NewMockSagaRepository(t)
	mockScheduler := mocks.NewMockTimeoutScheduler(t)
	mockPublisher := mocks.NewMockPublisher(t)

	saga := &domain.OrderSaga{
		CorrelationID:  models.GenerateUUID(),
		OrderID:        orderID,
		CurrentState:   domain.StateSubmitted,
		CustomerNumber: "customer-7",
		TotalAmount:    models.NewMoney(5000, "USD"),
		TimeoutToken:   "token-1",
		Timestamps:     models.NewTimestamps(),
		Version:        models.Version{Value: 2},
	}

	mockRepo.EXPECT().FindByOrderID(mock.Anything, orderID).Return(saga, nil).Once()
	mockScheduler.EXPECT().Cancel(mock.Anything, "token-1").Return(nil).Once()
	mockScheduler.EXPECT().Schedule(mock.Anything, orderID, timeout).Return("token-2", nil).Once()
	mockRepo.EXPECT().Update(mock.Anything, mock.Anything, 2).Return(nil).Once()

	var published *events.Event
	mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything).
		Run(func(ctx context.Context, evts ...*events.Event) {
			published = evts[0]
		}).Return(nil).Once()

	useCase := NewAdvanceOrderSaga(mockRepo, mockScheduler, mockPublisher, timeout)

	err := useCase.Execute(context.Background(), &AdvanceOrderSagaCommand{
		OrderID: orderID,
		Trigger: domain.Trigger{Kind: domain.TriggerStockReserved},
	})

	assert.NoError(t, err)
	assert.Equal(t, events.ProcessPaymentCommand, published.EventType)

	data, ok := published.Data.(events.ProcessPaymentData)
	assert.True(t, ok)
	assert.Equal(t, orderID, data.OrderID)
	assert.Equal(t, models.NewMoney(5000, "USD"), data.Amount)
	assert.Equal(t, "test-card-token", data.CardToken)

	// The instance itself carries the fresh timeout token after the write
	assert.Equal(t, domain.StateInventoryReserved, saga.CurrentState)
	assert.Equal(t, "token-2", saga.TimeoutToken)
	assert.Equal(t, 3, saga.Version.Value)
}

func TestAdvanceOrderSaga_Execute_RedeliveryFinishesLostCompletedEmission(t *testing.T) {
	// The versioned write wins, then the bus is down: the handler errors and
	// the transport redelivers. The redelivered trigger finds the instance
	// already completed with its emission pending and must still emit the
	// completed event and delete the instance, not discard it as a duplicate.
	orderID := models.ID("550e8400-e29b-41d4-a716-446655440001")
	timeout := 5 * time.Minute

	mockRepo := mocks.NewMockSagaRepository(t)
	mockScheduler := mocks.NewMockTimeoutScheduler(t)
	mockPublisher := mocks.NewMockPublisher(t)

	stored := &domain.OrderSaga{
		CorrelationID:  models.GenerateUUID(),
		OrderID:        orderID,
		CurrentState:   domain.StateInventoryReserved,
		CustomerNumber: "customer-7",
		TotalAmount:    models.NewMoney(5000, "USD"),
		TimeoutToken:   "token-2",
		Timestamps:     models.NewTimestamps(),
		Version:        models.Version{Value: 2},
	}

	mockRepo.EXPECT().FindByOrderID(mock.Anything, orderID).
		RunAndReturn(func(ctx context.Context, id models.ID) (*domain.OrderSaga, error) {
			instance := *stored
			return &instance, nil
		}).Twice()

	mockScheduler.EXPECT().Cancel(mock.Anything, "token-2").Return(nil).Once()

	mockRepo.EXPECT().Update(mock.Anything, mock.Anything, 2).
		Run(func(ctx context.Context, saga *domain.OrderSaga, expectedVersion int) {
			instance := *saga
			stored = &instance
		}).Return(nil).Once()

	mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything).
		Return(errors.New("sns unavailable")).Once()

	var published *events.Event
	mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything).
		Run(func(ctx context.Context, evts ...*events.Event) {
			published = evts[0]
		}).Return(nil).Once()

	mockRepo.EXPECT().Delete(mock.Anything, orderID).Return(nil).Once()

	useCase := NewAdvanceOrderSaga(mockRepo, mockScheduler, mockPublisher, timeout)

	cmd := &AdvanceOrderSagaCommand{
		OrderID: orderID,
		Trigger: domain.Trigger{Kind: domain.TriggerPaymentAccepted},
	}

	err := useCase.Execute(context.Background(), cmd)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish saga effects")
	assert.Equal(t, domain.StateCompleted, stored.CurrentState)
	assert.True(t, stored.EffectsPending)

	err = useCase.Execute(context.Background(), cmd)
	assert.NoError(t, err)
	assert.Equal(t, events.OrderCompletedEvent, published.EventType)
}

func TestAdvanceOrderSaga_Execute_RedeliveredFailureTriggerReemitsStoredReason(t *testing.T) {
	orderID := models.ID("550e8400-e29b-41d4-a716-446655440001")
	timeout := 5 * time.Minute

	mockRepo := mocks.NewMockSagaRepository(t)
	mockScheduler := mocks.NewMockTimeoutScheduler(t)
	mockPublisher := mocks.NewMockPublisher(t)

	// A timeout already failed the instance but the emission never made it out
	saga := &domain.OrderSaga{
		CorrelationID:  models.GenerateUUID(),
		OrderID:        orderID,
		CurrentState:   domain.StateFailed,
		CustomerNumber: "customer-7",
		TotalAmount:    models.NewMoney(5000, "USD"),
		FailureReason:  domain.InventoryTimeoutReason,
		EffectsPending: true,
		Timestamps:     models.NewTimestamps(),
		Version:        models.Version{Value: 3},
	}

	mockRepo.EXPECT().FindByOrderID(mock.Anything, orderID).Return(saga, nil).Once()

	var published *events.Event
	mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything).
		Run(func(ctx context.Context, evts ...*events.Event) {
			published = evts[0]
		}).Return(nil).Once()

	var cleared *domain.OrderSaga
	mockRepo.EXPECT().Update(mock.Anything, mock.Anything, 3).
		Run(func(ctx context.Context, saga *domain.OrderSaga, expectedVersion int) {
			cleared = saga
		}).Return(nil).Once()

	useCase := NewAdvanceOrderSaga(mockRepo, mockScheduler, mockPublisher, timeout)

	err := useCase.Execute(context.Background(), &AdvanceOrderSagaCommand{
		OrderID:      orderID,
		Trigger:      domain.Trigger{Kind: domain.TriggerTimeoutExpired},
		TimeoutToken: "token-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, events.OrderFailedEvent, published.EventType)

	data, ok := published.Data.(events.OrderFailedData)
	assert.True(t, ok)
	assert.Equal(t, domain.InventoryTimeoutReason, data.Reason)

	assert.False(t, cleared.EffectsPending)
}

func TestAdvanceOrderSaga_Execute_DuplicateTriggerAfterEmissionIsDiscarded(t *testing.T) {
	// Once the failure emission is confirmed the pending marker is clear, so
	// a second duplicate delivery must not produce a second OrderFailed
	orderID := models.ID("550e8400-e29b-41d4-a716-446655440001")
	timeout := 5 * time.Minute

	mockRepo := mocks.NewMockSagaRepository(t)
	mockScheduler := mocks.NewMockTimeoutScheduler(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByOrderID(mock.Anything, orderID).
		Return(&domain.OrderSaga{
			CorrelationID:  models.GenerateUUID(),
			OrderID:        orderID,
			CurrentState:   domain.StateFailed,
			CustomerNumber: "customer-7",
			TotalAmount:    models.NewMoney(5000, "USD"),
			FailureReason:  domain.InventoryTimeoutReason,
			EffectsPending: false,
			Timestamps:     models.NewTimestamps(),
			Version:        models.Version{Value: 4},
		}, nil).Once()

	useCase := NewAdvanceOrderSaga(mockRepo, mockScheduler, mockPublisher, timeout)

	err := useCase.Execute(context.Background(), &AdvanceOrderSagaCommand{
		OrderID:      orderID,
		Trigger:      domain.Trigger{Kind: domain.TriggerTimeoutExpired},
		TimeoutToken: "token-1",
	})

	assert.NoError(t, err)
}
