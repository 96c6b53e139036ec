package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/logger"
	"parkit-backend/internal/repository"
)

type intentRepository struct {
	db *sql.DB
}

func NewIntentRepository(db *sql.DB) repository.IntentRepository {
	return &intentRepository{db: db}
}

func (r *intentRepository) Create(ctx context.Context, in *domain.CapacityIntent) error {
	now := time.Now().UTC()
	in.CreatedOn = now
	in.UpdatedOn = now
	query := `INSERT INTO capacity_intents (id, order_id, location_id, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	logger.DatabaseCall("INSERT", "capacity_intents", "intentID", in.ID, "orderID", in.OrderID)
	_, err := r.db.ExecContext(ctx, query, in.ID, in.OrderID, in.LocationID, in.Status, in.CreatedOn, in.UpdatedOn)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err, "intentID", in.ID)
		return err
	}
	logger.DatabaseResult("INSERT", 1, nil, "intentID", in.ID)
	return nil
}

func (r *intentRepository) GetByID(ctx context.Context, id string) (*domain.CapacityIntent, error) {
	in := &domain.CapacityIntent{}
	query := `SELECT id, order_id, location_id, status, created_on, updated_on FROM capacity_intents WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&in.ID, &in.OrderID, &in.LocationID, &in.Status, &in.CreatedOn, &in.UpdatedOn)
	if err != nil {
		return nil, fmt.Errorf("capacity intent %s: %w", id, notFound(err))
	}
	return in, nil
}

func (r *intentRepository) Transition(ctx context.Context, id string, from, to domain.IntentStatus) (bool, error) {
	query := `UPDATE capacity_intents SET status = $1, updated_on = $2 WHERE id = $3 AND status = $4`
	logger.DatabaseCall("UPDATE", "capacity_intents status", "intentID", id, "from", from, "to", to)
	res, err := r.db.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "intentID", id)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	logger.DatabaseResult("UPDATE", n, nil, "intentID", id)
	return n == 1, nil
}

func (r *intentRepository) ListStale(ctx context.Context, status domain.IntentStatus, olderThan time.Time, limit int) ([]domain.CapacityIntent, error) {
	query := `SELECT id, order_id, location_id, status, created_on, updated_on FROM capacity_intents
	          WHERE status = $1 AND updated_on < $2 ORDER BY updated_on LIMIT $3`
	logger.DatabaseCall("SELECT", "capacity_intents stale", "status", status, "olderThan", olderThan)
	rows, err := r.db.QueryContext(ctx, query, status, olderThan, limit)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "status", status)
		return nil, err
	}
	return scanIntents(rows)
}

func (r *intentRepository) ListUnreleasedCancelled(ctx context.Context, limit int) ([]domain.CapacityIntent, error) {
	query := `SELECT i.id, i.order_id, i.location_id, i.status, i.created_on, i.updated_on
	          FROM capacity_intents i JOIN orders o ON o.capacity_intent_id = i.id
	          WHERE i.status = $1 AND o.status = $2 ORDER BY i.updated_on LIMIT $3`
	logger.DatabaseCall("SELECT", "capacity_intents JOIN orders", "orderStatus", domain.OrderStatusCancelled)
	rows, err := r.db.QueryContext(ctx, query, domain.IntentStatusCommitted, domain.OrderStatusCancelled, limit)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "orderStatus", domain.OrderStatusCancelled)
		return nil, err
	}
	return scanIntents(rows)
}

func scanIntents(rows *sql.Rows) ([]domain.CapacityIntent, error) {
	defer rows.Close()
	var intents []domain.CapacityIntent
	for rows.Next() {
		var in domain.CapacityIntent
		if err := rows.Scan(&in.ID, &in.OrderID, &in.LocationID, &in.Status, &in.CreatedOn, &in.UpdatedOn); err != nil {
			logger.DatabaseResult("SELECT", int64(len(intents)), err)
			return nil, err
		}
		intents = append(intents, in)
	}
	logger.DatabaseResult("SELECT", int64(len(intents)), rows.Err())
	return intents, rows.Err()
}
