package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT id, name, email, role, is_blocked, is_deleted FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsBlocked, &u.IsDeleted)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, notFound(err))
	}
	return u, nil
}
