package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/logger"
	"parkit-backend/internal/repository"
)

const paymentColumns = `id, order_id, gateway_order_id, gateway_payment_id, amount, currency, status, method, notes, created_on, updated_on`

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.PaymentRecord) error {
	notes, err := json.Marshal(p.Notes)
	if err != nil {
		return fmt.Errorf("encode payment notes: %w", err)
	}
	now := time.Now().UTC()
	p.CreatedOn = now
	p.UpdatedOn = now
	query := `INSERT INTO payment_records (` + paymentColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	logger.DatabaseCall("INSERT", "payment_records", "orderID", p.OrderID, "gatewayOrderID", p.GatewayOrderID)
	_, err = r.db.ExecContext(ctx, query, p.ID, p.OrderID, p.GatewayOrderID, p.GatewayPaymentID, p.Amount,
		p.Currency, p.Status, p.Method, notes, p.CreatedOn, p.UpdatedOn)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err, "orderID", p.OrderID)
		return err
	}
	logger.DatabaseResult("INSERT", 1, nil, "orderID", p.OrderID)
	return nil
}

func (r *paymentRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_records WHERE gateway_order_id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, gatewayOrderID))
	if err != nil {
		return nil, fmt.Errorf("payment for gateway order %s: %w", gatewayOrderID, notFound(err))
	}
	return p, nil
}

func (r *paymentRepository) GetOpenByOrderID(ctx context.Context, orderID string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_records
	          WHERE order_id = $1 AND status <> $2 ORDER BY created_on DESC LIMIT 1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, orderID, domain.PaymentRecordFailed))
	if err != nil {
		return nil, fmt.Errorf("payment for order %s: %w", orderID, notFound(err))
	}
	return p, nil
}

func (r *paymentRepository) Settle(ctx context.Context, p *domain.PaymentRecord) error {
	p.UpdatedOn = time.Now().UTC()
	query := `UPDATE payment_records SET status = $1, gateway_payment_id = $2, method = $3, updated_on = $4
	          WHERE id = $5 AND status IN ($6, $7)`
	logger.DatabaseCall("UPDATE", "payment_records settle", "paymentID", p.ID, "status", p.Status)
	res, err := r.db.ExecContext(ctx, query, p.Status, p.GatewayPaymentID, p.Method, p.UpdatedOn, p.ID,
		domain.PaymentRecordCreated, domain.PaymentRecordAuthorized)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "paymentID", p.ID)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", n, nil, "paymentID", p.ID, "status", p.Status)
	if n == 0 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func scanPayment(row rowScanner) (*domain.PaymentRecord, error) {
	p := &domain.PaymentRecord{}
	var gatewayPaymentID sql.NullString
	var notes []byte
	err := row.Scan(&p.ID, &p.OrderID, &p.GatewayOrderID, &gatewayPaymentID, &p.Amount, &p.Currency,
		&p.Status, &p.Method, &notes, &p.CreatedOn, &p.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if gatewayPaymentID.Valid {
		p.GatewayPaymentID = &gatewayPaymentID.String
	}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &p.Notes); err != nil {
			return nil, fmt.Errorf("decode payment notes: %w", err)
		}
	}
	return p, nil
}
