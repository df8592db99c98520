package postgres

import (
	"context"
	"time"

	"github.com/praxis-suite/praxis/internal/domain/user"
)

const userColumns = `id, email, name, provider, password_hash, deleted_at, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.Provider, u.PasswordHash, u.DeletedAt, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return conflictWrap(err, "create user")
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Provider, &u.PasswordHash, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Provider, &u.PasswordHash, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get user by email %s", email)
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET name = $2, provider = $3, password_hash = $4, updated_at = $5
		WHERE id = $1`,
		u.ID, u.Name, u.Provider, u.PasswordHash, u.UpdatedAt,
	)
	return execExpectOne(tag, err, "update user %s", u.ID)
}

// GetSuspension returns the soft-delete marker, nil when the account is
// in good standing.
func (s *Store) GetSuspension(ctx context.Context, userID string) (*time.Time, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT deleted_at FROM users WHERE id = $1`, userID)

	var deletedAt *time.Time
	if err := row.Scan(&deletedAt); err != nil {
		return nil, notFoundWrap(err, "get suspension %s", userID)
	}
	return deletedAt, nil
}

func (s *Store) ClearSuspension(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET deleted_at = NULL, updated_at = $2 WHERE id = $1`,
		userID, time.Now().UTC(),
	)
	return execExpectOne(tag, err, "clear suspension %s", userID)
}

func (s *Store) SuspendUser(ctx context.Context, userID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET deleted_at = $2, updated_at = $2 WHERE id = $1`,
		userID, at.UTC(),
	)
	return execExpectOne(tag, err, "suspend user %s", userID)
}
