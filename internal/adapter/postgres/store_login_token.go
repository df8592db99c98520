package postgres

import (
	"context"
	"time"

	"github.com/praxis-suite/praxis/internal/domain/user"
)

func (s *Store) CreateLoginToken(ctx context.Context, tok *user.LoginToken) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO login_tokens (id, user_id, token_hash, expires_at, consumed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		tok.ID, tok.UserID, tok.TokenHash, tok.ExpiresAt, tok.ConsumedAt, tok.CreatedAt,
	)
	if err != nil {
		return conflictWrap(err, "create login token")
	}
	return nil
}

// ConsumeLoginToken marks the token consumed and returns it. The UPDATE
// guards on consumed_at IS NULL, so concurrent redemptions of the same
// token yield exactly one winner.
func (s *Store) ConsumeLoginToken(ctx context.Context, tokenHash string, now time.Time) (*user.LoginToken, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE login_tokens
		SET consumed_at = $2
		WHERE token_hash = $1 AND consumed_at IS NULL AND expires_at > $2
		RETURNING id, user_id, token_hash, expires_at, consumed_at, created_at`,
		tokenHash, now.UTC(),
	)

	var tok user.LoginToken
	err := row.Scan(&tok.ID, &tok.UserID, &tok.TokenHash, &tok.ExpiresAt, &tok.ConsumedAt, &tok.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "consume login token")
	}
	return &tok, nil
}
