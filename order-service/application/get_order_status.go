package application

import (
	"context"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
)

// ErrOrderNotFound is returned when neither an audit record nor a live saga
// instance exists for the order id
var ErrOrderNotFound = errors.New("order not found")

// GetOrderStatusQuery represents the query for an order's current status
type GetOrderStatusQuery struct {
	OrderID models.ID `json:"order_id"`
}

// GetOrderStatusResponse carries the resolved status. Reason is set only
// for failed orders.
type GetOrderStatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

// GetOrderStatus use case resolves an order's status, preferring the audit
// record over the live saga instance: the record survives completion while
// the instance is deleted.
type GetOrderStatus struct {
	recordRepository domain.OrderRecordRepository
	sagaRepository   domain.SagaRepository
}

// NewGetOrderStatus creates a new GetOrderStatus use case
func NewGetOrderStatus(
	recordRepository domain.OrderRecordRepository,
	sagaRepository domain.SagaRepository,
) *GetOrderStatus {
	return &GetOrderStatus{
		recordRepository: recordRepository,
		sagaRepository:   sagaRepository,
	}
}

// Execute resolves the order status from the record or the live instance
func (uc *GetOrderStatus) Execute(ctx context.Context, query *GetOrderStatusQuery) (*GetOrderStatusResponse, error) {
	if query.OrderID.String() == "" {
		return nil, errors.New("order ID is required")
	}

	record, err := uc.recordRepository.FindByOrderID(ctx, query.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up order record")
	}

	if record != nil {
		return &GetOrderStatusResponse{
			OrderID: record.OrderID.String(),
			Status:  string(record.Status),
			Reason:  record.Reason,
		}, nil
	}

	saga, err := uc.sagaRepository.FindByOrderID(ctx, query.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up saga")
	}

	if saga != nil {
		return &GetOrderStatusResponse{
			OrderID: saga.OrderID.String(),
			Status:  string(saga.CurrentState),
		}, nil
	}

	return nil, ErrOrderNotFound
}
