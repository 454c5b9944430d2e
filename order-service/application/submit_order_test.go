package application

import (
	"context"
	"testing"

	"github.com/draftea/order-system/order-service/mocks"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSubmitOrder_Execute(t *testing.T) {
	tests := []struct {
		name          string
		command       *SubmitOrderCommand
		setupMocks    func(*mocks.MockPublisher)
		expectedError string
	}{
		{
			name: "successful submission",
			command: &SubmitOrderCommand{
				CustomerNumber: "customer-7",
				TotalAmount:    models.NewMoney(5000, "USD"),
			},
			setupMocks: func(publisher *mocks.MockPublisher) {
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name: "missing customer number",
			command: &SubmitOrderCommand{
				TotalAmount: models.NewMoney(5000, "USD"),
			},
			setupMocks:    func(publisher *mocks.MockPublisher) {},
			expectedError: "customer number is required",
		},
		{
			name: "non-positive amount",
			command: &SubmitOrderCommand{
				CustomerNumber: "customer-7",
				TotalAmount:    models.NewMoney(0, "USD"),
			},
			setupMocks:    func(publisher *mocks.MockPublisher) {},
			expectedError: "total amount must be positive",
		},
		{
			name: "publish failure",
			command: &SubmitOrderCommand{
				CustomerNumber: "customer-7",
				TotalAmount:    models.NewMoney(5000, "USD"),
			},
			setupMocks: func(publisher *mocks.MockPublisher) {
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(errors.New("sns unavailable")).Once()
			},
			expectedError: "failed to publish order submitted event",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPublisher := mocks.NewMockPublisher(t)
			tt.setupMocks(mockPublisher)

			useCase := NewSubmitOrder(mockPublisher)

			response, err := useCase.Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, response)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, response.OrderID)
			}
		})
	}
}

func TestSubmitOrder_Execute_PublishedEventShape(t *testing.T) {
	mockPublisher := mocks.NewMockPublisher(t)

	var published *events.Event
	mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything).
		Run(func(ctx context.Context, evts ...*events.Event) {
			published = evts[0]
		}).Return(nil).Once()

	useCase := NewSubmitOrder(mockPublisher)

	response, err := useCase.Execute(context.Background(), &SubmitOrderCommand{
		CustomerNumber: "customer-7",
		TotalAmount:    models.NewMoney(5000, "USD"),
	})

	assert.NoError(t, err)
	assert.Equal(t, events.OrderSubmittedEvent, published.EventType)

	data, ok := published.Data.(events.OrderSubmittedData)
	assert.True(t, ok)
	assert.Equal(t, response.OrderID, data.OrderID.String())
	assert.Equal(t, "customer-7", data.CustomerNumber)
	assert.Equal(t, models.NewMoney(5000, "USD"), data.TotalAmount)
}
