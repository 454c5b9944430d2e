package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// PostgresOrderRecordRepository implements OrderRecordRepository using PostgreSQL
type PostgresOrderRecordRepository struct {
	db *sqlx.DB
}

// NewPostgresOrderRecordRepository creates a new PostgresOrderRecordRepository
func NewPostgresOrderRecordRepository(db *sqlx.DB) *PostgresOrderRecordRepository {
	return &PostgresOrderRecordRepository{db: db}
}

// postgresOrderRecord represents an order outcome record in database
type postgresOrderRecord struct {
	OrderID     string    `db:"order_id"`
	Status      string    `db:"status"`
	Reason      string    `db:"reason"`
	CreatedAt   time.Time `db:"created_at"`
	CompletedAt time.Time `db:"completed_at"`
}

// Upsert writes the outcome record, overwriting any previous row for the
// same order. Re-delivered terminal events land on the same row.
func (r *PostgresOrderRecordRepository) Upsert(ctx context.Context, record *domain.OrderRecord) error {
	query := `
		INSERT INTO order_records (order_id, status, reason, created_at, completed_at)
		VALUES (:order_id, :status, :reason, :created_at, :completed_at)
		ON CONFLICT (order_id) DO UPDATE
		SET status = EXCLUDED.status, reason = EXCLUDED.reason,
			completed_at = EXCLUDED.completed_at`

	_, err := r.db.NamedExecContext(ctx, query, &postgresOrderRecord{
		OrderID:     record.OrderID.String(),
		Status:      string(record.Status),
		Reason:      record.Reason,
		CreatedAt:   record.CreatedAt,
		CompletedAt: record.CompletedAt,
	})
	if err != nil {
		return errors.Wrap(err, "failed to upsert order record")
	}

	return nil
}

// FindByOrderID finds an order outcome record by order ID
func (r *PostgresOrderRecordRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.OrderRecord, error) {
	query := `
		SELECT order_id, status, reason, created_at, completed_at
		FROM order_records
		WHERE order_id = $1`

	var pgRecord postgresOrderRecord
	err := r.db.GetContext(ctx, &pgRecord, query, orderID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No record for this order
		}
		return nil, errors.Wrap(err, "failed to find order record")
	}

	recordOrderID, err := models.NewID(pgRecord.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	return &domain.OrderRecord{
		OrderID:     recordOrderID,
		Status:      domain.OrderStatus(pgRecord.Status),
		Reason:      pgRecord.Reason,
		CreatedAt:   pgRecord.CreatedAt,
		CompletedAt: pgRecord.CompletedAt,
	}, nil
}
