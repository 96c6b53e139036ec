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

const locationColumns = `id, owner_id, name, longitude, latitude, hourly_rate, daily_rate, total_spots, available_spots, is_active, is_deleted, accepted_categories`

// haversine distance in meters from ($1, $2) = (lat, lng)
const distanceExpr = `6371000 * 2 * ASIN(SQRT(
	POWER(SIN(RADIANS(latitude - $1) / 2), 2) +
	COS(RADIANS($1)) * COS(RADIANS(latitude)) * POWER(SIN(RADIANS(longitude - $2) / 2), 2)))`

type locationRepository struct {
	db *sql.DB
}

func NewLocationRepository(db *sql.DB) repository.LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	loc, _, err := scanLocation(r.db.QueryRowContext(ctx, query, id), false)
	if err != nil {
		return nil, fmt.Errorf("location %s: %w", id, notFound(err))
	}
	return loc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner, withDistance bool) (*domain.Location, float64, error) {
	l := &domain.Location{}
	var categories []string
	var distance float64
	dest := []any{&l.ID, &l.OwnerID, &l.Name, &l.Longitude, &l.Latitude, &l.HourlyRate, &l.DailyRate,
		&l.TotalSpots, &l.AvailableSpots, &l.IsActive, &l.IsDeleted, pq.Array(&categories)}
	if withDistance {
		dest = append(dest, &distance)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}
	for _, c := range categories {
		l.AcceptedCategories = append(l.AcceptedCategories, domain.NormalizeCategory(c))
	}
	return l, distance, nil
}

type capacityLedger struct {
	db *sql.DB
}

func NewCapacityLedger(db *sql.DB) repository.CapacityLedger {
	return &capacityLedger{db: db}
}

func (r *capacityLedger) Reserve(ctx context.Context, locationID, intentID string) (err error) {
	logger.EnterMethod("capacityLedger.Reserve", "locationID", locationID, "intentID", intentID)
	defer func() {
		if err != nil {
			logger.ExitMethodWithError("capacityLedger.Reserve", err, "locationID", locationID)
			return
		}
		logger.ExitMethod("capacityLedger.Reserve", "locationID", locationID)
	}()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// decrement-if-positive in one statement; concurrent reservers serialise on the row lock
	res, err := tx.ExecContext(ctx,
		`UPDATE locations SET available_spots = available_spots - 1
		 WHERE id = $1 AND available_spots > 0 AND is_active AND NOT is_deleted`, locationID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrCapacityExhausted
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE capacity_intents SET status = $1, updated_on = $2 WHERE id = $3 AND location_id = $4 AND status = $5`,
		domain.IntentStatusReserved, time.Now().UTC(), intentID, locationID, domain.IntentStatusPending)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrIntentLost
	}
	return tx.Commit()
}

func (r *capacityLedger) Release(ctx context.Context, locationID, intentID string) (err error) {
	logger.EnterMethod("capacityLedger.Release", "locationID", locationID, "intentID", intentID)
	defer func() {
		if err != nil {
			logger.ExitMethodWithError("capacityLedger.Release", err, "locationID", locationID)
			return
		}
		logger.ExitMethod("capacityLedger.Release", "locationID", locationID)
	}()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE capacity_intents SET status = $1, updated_on = $2
		 WHERE id = $3 AND location_id = $4 AND status IN ($5, $6)`,
		domain.IntentStatusReleased, time.Now().UTC(), intentID, locationID,
		domain.IntentStatusReserved, domain.IntentStatusCommitted)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// already released
		return nil
	}

	logger.DatabaseCall("UPDATE", "locations available_spots", "locationID", locationID, "intentID", intentID)
	res, err = tx.ExecContext(ctx,
		`UPDATE locations SET available_spots = available_spots + 1
		 WHERE id = $1 AND available_spots < total_spots`, locationID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "locationID", locationID)
		return err
	}
	if n, err = res.RowsAffected(); err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", n, nil, "locationID", locationID)
	if n == 0 {
		// the intent is still closed; reopening it would retry a release the count cannot absorb
		logger.IntegrityIncident(ctx, "release_exceeds_total_spots", domain.ErrReleaseFailed,
			"location_id", locationID, "intent_id", intentID)
	}
	return tx.Commit()
}

func (r *capacityLedger) FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.NearbyLocation, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	var rows *sql.Rows
	var err error
	if q.HasCoordinate() {
		query := `SELECT ` + locationColumns + `, distance FROM (
			SELECT ` + locationColumns + `, ` + distanceExpr + ` AS distance
			FROM locations WHERE is_active AND NOT is_deleted
		) nearby WHERE ($3 <= 0 OR distance <= $3) ORDER BY distance, id LIMIT $4`
		rows, err = r.db.QueryContext(ctx, query, *q.Latitude, *q.Longitude, q.MaxDistance, limit)
	} else {
		query := `SELECT ` + locationColumns + `, 0 FROM locations WHERE is_active AND NOT is_deleted ORDER BY id LIMIT $1`
		rows, err = r.db.QueryContext(ctx, query, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NearbyLocation
	for rows.Next() {
		loc, distance, err := scanLocation(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.NearbyLocation{Location: *loc, Distance: distance})
	}
	return out, rows.Err()
}
