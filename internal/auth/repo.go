package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// Repository looks up user accounts.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	ListActiveKurirIDs(ctx context.Context) ([]int64, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, full_name, password_hash, role, is_active, created_at
		FROM users
		WHERE username = $1
	`
	var u User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("auth: user %q: %w", username, shared.ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

// ListActiveKurirIDs returns ids of active couriers, used by the end-of-day
// attendance sweep.
func (r *pgRepository) ListActiveKurirIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE role = $1 AND is_active`, shared.RoleKurir)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
