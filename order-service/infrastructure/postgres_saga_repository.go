package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// PostgresSagaRepository implements SagaRepository using PostgreSQL
type PostgresSagaRepository struct {
	db *sqlx.DB
}

// NewPostgresSagaRepository creates a new PostgresSagaRepository
func NewPostgresSagaRepository(db *sqlx.DB) *PostgresSagaRepository {
	return &PostgresSagaRepository{db: db}
}

// postgresSaga represents a saga instance in database
type postgresSaga struct {
	CorrelationID  string    `db:"correlation_id"`
	OrderID        string    `db:"order_id"`
	CurrentState   string    `db:"current_state"`
	CustomerNumber string    `db:"customer_number"`
	Amount         int64     `db:"amount"`
	Currency       string    `db:"currency"`
	TimeoutToken   string    `db:"timeout_token"`
	FailureReason  string    `db:"failure_reason"`
	EffectsPending bool      `db:"effects_pending"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	Version        int       `db:"version"`
}

// Create inserts a new saga instance. The unique index on order_id makes
// duplicate submissions lose deterministically.
func (r *PostgresSagaRepository) Create(ctx context.Context, saga *domain.OrderSaga) error {
	query := `
		INSERT INTO order_sagas (
			correlation_id, order_id, current_state, customer_number,
			amount, currency, timeout_token, failure_reason, effects_pending,
			created_at, updated_at, version
		) VALUES (
			:correlation_id, :order_id, :current_state, :customer_number,
			:amount, :currency, :timeout_token, :failure_reason, :effects_pending,
			:created_at, :updated_at, :version
		)`

	_, err := r.db.NamedExecContext(ctx, query, r.toPostgres(saga))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errors.Wrap(domain.ErrSagaAlreadyExists, saga.OrderID.String())
		}
		return errors.Wrap(err, "failed to insert saga")
	}

	return nil
}

// FindByOrderID finds a saga instance by its business order ID
func (r *PostgresSagaRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.OrderSaga, error) {
	query := `
		SELECT correlation_id, order_id, current_state, customer_number,
			   amount, currency, timeout_token, failure_reason, effects_pending,
			   created_at, updated_at, version
		FROM order_sagas
		WHERE order_id = $1`

	var pgSaga postgresSaga
	err := r.db.GetContext(ctx, &pgSaga, query, orderID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No instance for this order
		}
		return nil, errors.Wrap(err, "failed to find saga")
	}

	return r.toDomain(&pgSaga)
}

// Update writes the instance iff the stored version still matches
// expectedVersion. Zero rows affected means a concurrent writer won.
func (r *PostgresSagaRepository) Update(ctx context.Context, saga *domain.OrderSaga, expectedVersion int) error {
	query := `
		UPDATE order_sagas
		SET current_state = :current_state, timeout_token = :timeout_token,
			failure_reason = :failure_reason, effects_pending = :effects_pending,
			updated_at = :updated_at, version = :version
		WHERE order_id = :order_id AND version = :old_version`

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"order_id":        saga.OrderID.String(),
		"current_state":   string(saga.CurrentState),
		"timeout_token":   saga.TimeoutToken,
		"failure_reason":  saga.FailureReason,
		"effects_pending": saga.EffectsPending,
		"updated_at":      saga.Timestamps.UpdatedAt,
		"version":         saga.Version.Value,
		"old_version":     expectedVersion,
	})
	if err != nil {
		return errors.Wrap(err, "failed to update saga")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check update result")
	}

	if rows == 0 {
		return errors.Wrap(domain.ErrConcurrencyConflict, saga.OrderID.String())
	}

	return nil
}

// Delete removes the saga instance for a completed order
func (r *PostgresSagaRepository) Delete(ctx context.Context, orderID models.ID) error {
	query := `DELETE FROM order_sagas WHERE order_id = $1`

	_, err := r.db.ExecContext(ctx, query, orderID.String())
	if err != nil {
		return errors.Wrap(err, "failed to delete saga")
	}

	return nil
}

// toPostgres converts domain saga to postgres model
func (r *PostgresSagaRepository) toPostgres(saga *domain.OrderSaga) *postgresSaga {
	return &postgresSaga{
		CorrelationID:  saga.CorrelationID.String(),
		OrderID:        saga.OrderID.String(),
		CurrentState:   string(saga.CurrentState),
		CustomerNumber: saga.CustomerNumber,
		Amount:         saga.TotalAmount.Amount,
		Currency:       saga.TotalAmount.Currency,
		TimeoutToken:   saga.TimeoutToken,
		FailureReason:  saga.FailureReason,
		EffectsPending: saga.EffectsPending,
		CreatedAt:      saga.Timestamps.CreatedAt,
		UpdatedAt:      saga.Timestamps.UpdatedAt,
		Version:        saga.Version.Value,
	}
}

// toDomain converts postgres model to domain saga
func (r *PostgresSagaRepository) toDomain(pgSaga *postgresSaga) (*domain.OrderSaga, error) {
	correlationID, err := models.NewID(pgSaga.CorrelationID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid correlation ID")
	}

	orderID, err := models.NewID(pgSaga.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	return &domain.OrderSaga{
		CorrelationID:  correlationID,
		OrderID:        orderID,
		CurrentState:   domain.State(pgSaga.CurrentState),
		CustomerNumber: pgSaga.CustomerNumber,
		TotalAmount:    models.NewMoney(pgSaga.Amount, pgSaga.Currency),
		TimeoutToken:   pgSaga.TimeoutToken,
		FailureReason:  pgSaga.FailureReason,
		EffectsPending: pgSaga.EffectsPending,
		Timestamps: models.Timestamps{
			CreatedAt: pgSaga.CreatedAt,
			UpdatedAt: pgSaga.UpdatedAt,
		},
		Version: models.Version{Value: pgSaga.Version},
	}, nil
}
