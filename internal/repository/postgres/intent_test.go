package postgres_test

import (
	"context"
	"testing"
	"time"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentRepository_Transition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewIntentRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE capacity_intents SET status = \$1`).
		WithArgs(domain.IntentStatusAbandoned, sqlmock.AnyArg(), "intent-1", domain.IntentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Transition(ctx, "intent-1", domain.IntentStatusPending, domain.IntentStatusAbandoned)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`UPDATE capacity_intents SET status = \$1`).
		WithArgs(domain.IntentStatusAbandoned, sqlmock.AnyArg(), "intent-1", domain.IntentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.Transition(ctx, "intent-1", domain.IntentStatusPending, domain.IntentStatusAbandoned)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntentRepository_ListUnreleasedCancelled(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "order_id", "location_id", "status", "created_on", "updated_on"}).
		AddRow("intent-1", "order-1", "loc-1", "committed", now, now)
	mock.ExpectQuery(`FROM capacity_intents i JOIN orders o`).
		WithArgs(domain.IntentStatusCommitted, domain.OrderStatusCancelled, 50).
		WillReturnRows(rows)

	got, err := postgres.NewIntentRepository(db).ListUnreleasedCancelled(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "order-1", got[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_SettleLostRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	pid := "pay_1"
	mock.ExpectExec(`UPDATE payment_records SET status = \$1`).
		WithArgs(domain.PaymentRecordCaptured, pid, "card", sqlmock.AnyArg(), "rec-1",
			domain.PaymentRecordCreated, domain.PaymentRecordAuthorized).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = postgres.NewPaymentRepository(db).Settle(context.Background(), &domain.PaymentRecord{
		ID: "rec-1", Status: domain.PaymentRecordCaptured, GatewayPaymentID: &pid, Method: "card",
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
