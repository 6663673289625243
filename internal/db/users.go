package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation      = "23505"
	usersEmailConstraint = "users_email_key"
)

// UserRepository handles user database operations.
type UserRepository struct {
	q DBTX
}

// Upsert creates the user on first login and refreshes last_login_at afterwards.
// A missing email never overwrites a stored one. When the email already
// belongs to another account the user is saved without it; user.Email then
// holds whatever address is stored for this user, if any.
func (r *UserRepository) Upsert(ctx context.Context, user *User) error {
	err := r.upsert(ctx, user, user.Email)
	if user.Email != nil && isEmailTaken(err) {
		err = r.upsert(ctx, user, nil)
	}
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

func (r *UserRepository) upsert(ctx context.Context, user *User, email *string) error {
	query := `
		INSERT INTO users (id, email, created_at, last_login_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			email = COALESCE(EXCLUDED.email, users.email),
			last_login_at = NOW()
		RETURNING email, created_at, last_login_at
	`
	return r.q.QueryRow(ctx, query, user.ID, email).
		Scan(&user.Email, &user.CreatedAt, &user.LastLoginAt)
}

func isEmailTaken(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == usersEmailConstraint
}
