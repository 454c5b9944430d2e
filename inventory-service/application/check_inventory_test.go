package application

import (
	"context"
	"testing"

	"github.com/draftea/order-system/inventory-service/mocks"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCheckInventory_Execute(t *testing.T) {
	// Demo rule: order ids ending in "0" are short on stock
	shortOrderID := models.ID("550e8400-e29b-41d4-a716-446655440000")
	stockedOrderID := models.ID("550e8400-e29b-41d4-a716-446655440001")

	tests := []struct {
		name          string
		command       *CheckInventoryCommand
		setupMocks    func(*mocks.MockPublisher)
		expectedEvent string
		expectedError string
	}{
		{
			name:          "stock available publishes reserved",
			command:       &CheckInventoryCommand{OrderID: stockedOrderID},
			setupMocks:    func(publisher *mocks.MockPublisher) {},
			expectedEvent: events.StockReservedEvent,
		},
		{
			name:          "stock shortage publishes shortage with reason",
			command:       &CheckInventoryCommand{OrderID: shortOrderID},
			setupMocks:    func(publisher *mocks.MockPublisher) {},
			expectedEvent: events.StockShortageEvent,
		},
		{
			name:          "missing order ID",
			command:       &CheckInventoryCommand{},
			setupMocks:    func(publisher *mocks.MockPublisher) {},
			expectedError: "order ID is required",
		},
		{
			name:    "publish failure is surfaced for redelivery",
			command: &CheckInventoryCommand{OrderID: stockedOrderID},
			setupMocks: func(publisher *mocks.MockPublisher) {
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(errors.New("sns unavailable")).Once()
			},
			expectedError: "failed to publish inventory outcome",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPublisher := mocks.NewMockPublisher(t)

			var published *events.Event
			if tt.expectedEvent != "" {
				mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything).
					Run(func(ctx context.Context, evts ...*events.Event) {
						published = evts[0]
					}).Return(nil).Once()
			} else {
				tt.setupMocks(mockPublisher)
			}

			useCase := NewCheckInventory(mockPublisher)

			err := useCase.Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedEvent, published.EventType)

			if tt.expectedEvent == events.StockShortageEvent {
				data, ok := published.Data.(events.StockShortageData)
				assert.True(t, ok)
				assert.Equal(t, "Item out of stock", data.Reason)
			}
		})
	}
}

func TestCheckInventory_Execute_CancelledContext(t *testing.T) {
	mockPublisher := mocks.NewMockPublisher(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	useCase := NewCheckInventory(mockPublisher)

	err := useCase.Execute(ctx, &CheckInventoryCommand{
		OrderID: models.ID("550e8400-e29b-41d4-a716-446655440001"),
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "inventory check cancelled")
}
