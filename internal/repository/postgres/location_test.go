package postgres_test

import (
	"bytes"
	"context"
	"testing"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/logger"
	"parkit-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityLedger_Reserve(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	ledger := postgres.NewCapacityLedger(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE locations SET available_spots = available_spots - 1`).
			WithArgs("loc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE capacity_intents SET status = \$1`).
			WithArgs(domain.IntentStatusReserved, sqlmock.AnyArg(), "intent-1", "loc-1", domain.IntentStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, ledger.Reserve(ctx, "loc-1", "intent-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoFreeSpots", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE locations SET available_spots = available_spots - 1`).
			WithArgs("loc-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := ledger.Reserve(ctx, "loc-1", "intent-2")
		assert.ErrorIs(t, err, domain.ErrCapacityExhausted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("IntentNoLongerPending", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE locations SET available_spots = available_spots - 1`).
			WithArgs("loc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE capacity_intents SET status = \$1`).
			WithArgs(domain.IntentStatusReserved, sqlmock.AnyArg(), "intent-3", "loc-1", domain.IntentStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := ledger.Reserve(ctx, "loc-1", "intent-3")
		assert.ErrorIs(t, err, domain.ErrIntentLost)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCapacityLedger_Release(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	ledger := postgres.NewCapacityLedger(db)
	ctx := context.Background()

	t.Run("ReturnsSpot", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE capacity_intents SET status = \$1`).
			WithArgs(domain.IntentStatusReleased, sqlmock.AnyArg(), "intent-1", "loc-1",
				domain.IntentStatusReserved, domain.IntentStatusCommitted).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE locations SET available_spots = available_spots \+ 1`).
			WithArgs("loc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, ledger.Release(ctx, "loc-1", "intent-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SpotAlreadyAtTotalIsReported", func(t *testing.T) {
		var buf bytes.Buffer
		logger.InitializeWithWriter(&buf, "error", "json")
		defer logger.Initialize("info", "text")

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE capacity_intents SET status = \$1`).
			WithArgs(domain.IntentStatusReleased, sqlmock.AnyArg(), "intent-2", "loc-1",
				domain.IntentStatusReserved, domain.IntentStatusCommitted).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE locations SET available_spots = available_spots \+ 1`).
			WithArgs("loc-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		assert.NoError(t, ledger.Release(ctx, "loc-1", "intent-2"))
		assert.Contains(t, buf.String(), "release_exceeds_total_spots")
		assert.Contains(t, buf.String(), "intent-2")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyReleasedIsNoop", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE capacity_intents SET status = \$1`).
			WithArgs(domain.IntentStatusReleased, sqlmock.AnyArg(), "intent-1", "loc-1",
				domain.IntentStatusReserved, domain.IntentStatusCommitted).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.NoError(t, ledger.Release(ctx, "loc-1", "intent-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCapacityLedger_FindNearby(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	ledger := postgres.NewCapacityLedger(db)
	columns := []string{"id", "owner_id", "name", "longitude", "latitude", "hourly_rate", "daily_rate",
		"total_spots", "available_spots", "is_active", "is_deleted", "accepted_categories", "distance"}

	t.Run("WithCoordinate", func(t *testing.T) {
		lat, lng := 12.97, 77.59
		rows := sqlmock.NewRows(columns).
			AddRow("loc-1", "owner-1", "Lot A", 77.59, 12.97, 50, 400, 10, 4, true, false, "{car,suv}", 12.5)
		mock.ExpectQuery(`SELECT (.+) FROM \(`).
			WithArgs(lat, lng, float64(500), 20).
			WillReturnRows(rows)

		got, err := ledger.FindNearby(context.Background(), domain.NearbyQuery{Latitude: &lat, Longitude: &lng, MaxDistance: 500})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "loc-1", got[0].ID)
		assert.Equal(t, 12.5, got[0].Distance)
		assert.Equal(t, []domain.VehicleCategory{domain.VehicleCategoryCar, domain.VehicleCategorySUV}, got[0].AcceptedCategories)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FallbackWithoutCoordinate", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow("loc-2", "owner-1", "Lot B", 0.0, 0.0, 50, 400, 10, 10, true, false, "{bike}", 0)
		mock.ExpectQuery(`SELECT (.+) FROM locations WHERE is_active AND NOT is_deleted ORDER BY id LIMIT \$1`).
			WithArgs(5).
			WillReturnRows(rows)

		got, err := ledger.FindNearby(context.Background(), domain.NearbyQuery{Limit: 5})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Zero(t, got[0].Distance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLocationRepository_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM locations WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = postgres.NewLocationRepository(db).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
