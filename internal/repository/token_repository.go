package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/user-auth-service/internal/model"
)

// TokenRepo persists password reset tokens. It is the only writer of the
// 'password_reset_tokens' table. Timestamps are stored as unix seconds so
// every comparison uses the caller's clock rather than the server's NOW().
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Insert stores a freshly issued token for email.
func (r *TokenRepo) Insert(ctx context.Context, email, token string, expiresAt, createdAt time.Time) error {
	const op = "repository.TokenRepo.Insert"

	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (email, token, expires_at, used, created_at) VALUES (?,?,?,?,?)",
		NormalizeEmail(email), token, expiresAt.Unix(), false, createdAt.Unix())
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ErrTokenExists
	case isForeignKeyViolation(err):
		return ErrForeignKey
	}
	return fmt.Errorf("%s: %w", op, err)
}

// FindByToken looks a token up by its exact value.
func (r *TokenRepo) FindByToken(ctx context.Context, token string) (model.ResetToken, error) {
	const op = "repository.TokenRepo.FindByToken"

	var (
		t                  model.ResetToken
		expires, createdAt int64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, email, token, expires_at, used, created_at FROM password_reset_tokens WHERE token=? LIMIT 1",
		token).Scan(&t.ID, &t.Email, &t.Token, &expires, &t.Used, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ResetToken{}, ErrNotFound
		}
		return model.ResetToken{}, fmt.Errorf("%s: %w", op, err)
	}
	t.ExpiresAt = time.Unix(expires, 0).UTC()
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	return t, nil
}

// MarkUsedTx flips the used flag with a compare-and-set: only an unused,
// unexpired row is updated. ErrTokenNotUsable means another caller spent
// the token first, it expired, or it does not exist.
func (r *TokenRepo) MarkUsedTx(ctx context.Context, q DBTX, token string, now time.Time) error {
	const op = "repository.TokenRepo.MarkUsedTx"

	res, err := q.ExecContext(ctx,
		"UPDATE password_reset_tokens SET used=TRUE WHERE token=? AND used=FALSE AND expires_at>=?",
		token, now.Unix())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrTokenNotUsable
	}
	return nil
}

// DeleteExpiredOrUsed purges every token that expired before now or has
// already been spent, returning the number of rows removed.
func (r *TokenRepo) DeleteExpiredOrUsed(ctx context.Context, now time.Time) (int64, error) {
	const op = "repository.TokenRepo.DeleteExpiredOrUsed"

	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE expires_at<? OR used=TRUE", now.Unix())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
