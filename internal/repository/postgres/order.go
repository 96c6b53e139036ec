package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/logger"
	"parkit-backend/internal/repository"

	"github.com/lib/pq"
)

const orderColumns = `id, user_id, location_id, start_time, end_time, vehicle_category, vehicle_id, amount, status, payment_status, payment_record_id, capacity_intent_id, created_on, updated_on`

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	logger.EnterMethod("orderRepository.Create", "orderID", o.ID, "locationID", o.LocationID)
	defer func() {
		if err != nil {
			logger.ExitMethodWithError("orderRepository.Create", err, "orderID", o.ID)
			return
		}
		logger.ExitMethod("orderRepository.Create", "orderID", o.ID)
	}()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	o.CreatedOn = now
	o.UpdatedOn = now
	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	logger.DatabaseCall("INSERT", "orders", "orderID", o.ID, "vehicleID", o.VehicleID)
	_, err = tx.ExecContext(ctx, query, o.ID, o.UserID, o.LocationID, o.StartTime, o.EndTime, o.VehicleCategory,
		o.VehicleID, o.Amount, o.Status, o.PaymentStatus, o.PaymentRecordID, o.CapacityIntentID, o.CreatedOn, o.UpdatedOn)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err, "orderID", o.ID)
		if isExclusionViolation(err) {
			return domain.ErrVehicleDoubleBooked
		}
		return err
	}
	logger.DatabaseResult("INSERT", 1, nil, "orderID", o.ID)

	res, err := tx.ExecContext(ctx,
		`UPDATE capacity_intents SET status = $1, updated_on = $2 WHERE id = $3 AND status = $4`,
		domain.IntentStatusCommitted, now, o.CapacityIntentID, domain.IntentStatusReserved)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrIntentLost
	}
	return tx.Commit()
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, notFound(err))
	}
	return o, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, o *domain.Order, expected domain.OrderStatus, expectedPayment domain.PaymentStatus) error {
	o.UpdatedOn = time.Now().UTC()
	query := `UPDATE orders SET status = $1, payment_status = $2, payment_record_id = $3, updated_on = $4
	          WHERE id = $5 AND status = $6 AND payment_status = $7`
	logger.DatabaseCall("UPDATE", "orders status", "orderID", o.ID, "from", expected, "to", o.Status)
	res, err := r.db.ExecContext(ctx, query, o.Status, o.PaymentStatus, o.PaymentRecordID, o.UpdatedOn, o.ID, expected, expectedPayment)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "orderID", o.ID)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", n, nil, "orderID", o.ID)
	if n == 0 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func (r *orderRepository) HasOverlap(ctx context.Context, vehicleID string, start, end time.Time) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM orders
	            WHERE vehicle_id = $1 AND status = ANY($2) AND start_time < $4 AND $3 < end_time)`
	logger.DatabaseCall("SELECT", "orders overlap", "vehicleID", vehicleID)
	var exists bool
	err := r.db.QueryRowContext(ctx, query, vehicleID, pq.Array(statusStrings(domain.ActiveOrderStatuses())), start, end).Scan(&exists)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "vehicleID", vehicleID)
		return false, err
	}
	return exists, nil
}

func (r *orderRepository) ListElapsed(ctx context.Context, now time.Time, skip []string, limit int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE status = ANY($1) AND end_time <= $2 AND NOT (id = ANY($3))
	          ORDER BY end_time, id LIMIT $4`
	if skip == nil {
		skip = []string{}
	}
	logger.DatabaseCall("SELECT", "orders elapsed", "limit", limit, "skipped", len(skip))
	rows, err := r.db.QueryContext(ctx, query, pq.Array(statusStrings(domain.ActiveOrderStatuses())), now, pq.Array(skip), limit)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			logger.DatabaseResult("SELECT", int64(len(orders)), err)
			return nil, err
		}
		orders = append(orders, *o)
	}
	logger.DatabaseResult("SELECT", int64(len(orders)), rows.Err())
	return orders, rows.Err()
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	o := &domain.Order{}
	var paymentRecordID sql.NullString
	err := row.Scan(&o.ID, &o.UserID, &o.LocationID, &o.StartTime, &o.EndTime, &o.VehicleCategory, &o.VehicleID,
		&o.Amount, &o.Status, &o.PaymentStatus, &paymentRecordID, &o.CapacityIntentID, &o.CreatedOn, &o.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if paymentRecordID.Valid {
		o.PaymentRecordID = &paymentRecordID.String
	}
	return o, nil
}
