package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"parkit-backend/internal/logger"
	"parkit-backend/internal/repository"
)

type advisoryLocker struct {
	db *sql.DB
}

// NewAdvisoryLocker returns a VehicleLocker backed by Postgres session-level
// advisory locks. Each held lock pins one connection of lockDB until it is
// released, so lockDB must not be the pool the repositories query through.
func NewAdvisoryLocker(lockDB *sql.DB) repository.VehicleLocker {
	return &advisoryLocker{db: lockDB}
}

func (l *advisoryLocker) Lock(ctx context.Context, vehicleID string) (func(), error) {
	key := "vehicle:" + vehicleID
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, key); err != nil {
		// the lock may have been granted as the wait was cancelled; ending the session drops it
		discard(conn)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return func() {
		// the request context may already be cancelled
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.ExecContext(unlockCtx, `SELECT pg_advisory_unlock(hashtext($1))`, key); err != nil {
			logger.Warn("Failed to release vehicle advisory lock, discarding connection", "vehicle_id", vehicleID, "error", err)
			discard(conn)
			return
		}
		conn.Close()
	}, nil
}

// discard closes the session instead of returning it to the pool.
func discard(conn *sql.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	conn.Close()
}
