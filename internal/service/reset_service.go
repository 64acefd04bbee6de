package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/user-auth-service/internal/logger"
	"github.com/iliyamo/user-auth-service/internal/metrics"
	"github.com/iliyamo/user-auth-service/internal/queue"
	"github.com/iliyamo/user-auth-service/internal/repository"
	"github.com/iliyamo/user-auth-service/internal/utils"
)

// DefaultResetTTL is the lifetime of a reset token from issuance.
const DefaultResetTTL = 3600 * time.Second

// TokenStatus is the state of a reset token as seen by Validate.
type TokenStatus int

const (
	TokenInvalid TokenStatus = iota // no such token
	TokenValid
	TokenUsed
	TokenExpired
)

func (s TokenStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenUsed:
		return "used"
	case TokenExpired:
		return "expired"
	}
	return "invalid"
}

// Message is the user-facing text for the status.
func (s TokenStatus) Message() string {
	if s == TokenValid {
		return "Token valid"
	}
	return s.Err().Error()
}

// Err returns the error a consume attempt fails with, or nil when valid.
func (s TokenStatus) Err() error {
	switch s {
	case TokenValid:
		return nil
	case TokenUsed:
		return ErrTokenUsed
	case TokenExpired:
		return ErrTokenExpired
	}
	return ErrTokenInvalid
}

// IssuedToken is the result of a reset request. Token is the raw value to
// deliver to the account owner.
type IssuedToken struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

// ResetService owns the reset token rules: issuance, validation,
// single-use consumption and expiry sweeps. All row changes go through
// the token and user repositories.
type ResetService struct {
	DB       *sql.DB
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Events   queue.Publisher
	Log      zerolog.Logger
	Now      Clock
	TTL      time.Duration
	NewToken func() (string, error)
}

func NewResetService(db *sql.DB, users *repository.UserRepo, tokens *repository.TokenRepo, events queue.Publisher, log zerolog.Logger) *ResetService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &ResetService{
		DB:       db,
		Users:    users,
		Tokens:   tokens,
		Events:   events,
		Log:      log,
		TTL:      DefaultResetTTL,
		NewToken: utils.NewResetToken,
	}
}

// RequestReset issues a new token for email. Expired and used tokens are
// purged first so the table stays bounded without a separate sweeper.
// Earlier live tokens for the same email stay valid.
func (s *ResetService) RequestReset(ctx context.Context, email string) (IssuedToken, error) {
	email = repository.NormalizeEmail(email)
	if email == "" {
		return IssuedToken{}, validation("Email is required")
	}

	if _, err := s.Sweep(ctx); err != nil {
		s.Log.Warn().Err(err).Msg("reset token cleanup failed")
	}

	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		s.Log.Error().Err(err).Str("email", email).Msg("reset request: email lookup failed")
		return IssuedToken{}, storeError(err)
	}
	if !exists {
		s.Log.Info().Str("email", email).Msg("reset request for unknown email")
		return IssuedToken{}, ErrEmailNotFound
	}

	token, err := s.NewToken()
	if err != nil {
		return IssuedToken{}, &Error{Kind: KindStore, Message: "Could not generate token", Err: err}
	}
	// the store keeps unix seconds; report exactly what is stored
	now := s.Now.now().Truncate(time.Second)
	expires := now.Add(s.ttl())

	if err := s.Tokens.Insert(ctx, email, token, expires, now); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			// user removed between the existence check and the insert
			return IssuedToken{}, ErrEmailNotFound
		}
		s.Log.Error().Err(err).Str("email", email).Msg("reset request: insert token failed")
		return IssuedToken{}, storeError(err)
	}

	metrics.RecordTokenIssued()
	s.Log.Info().Str("email", email).Str("token", logger.TokenRef(token)).Time("expires_at", expires).Msg("reset token issued")
	publish(ctx, s.Events, s.Log, queue.AuthEvent{
		Type: queue.EventPasswordResetRequested, Email: email, ExpiresAt: &expires, OccurredAt: now,
	})
	return IssuedToken{Email: email, Token: token, ExpiresAt: expires}, nil
}

// Validate classifies token. The email is only returned for TokenValid. A
// non-nil error means the store could not be queried. A token that is both
// used and expired reports TokenUsed.
func (s *ResetService) Validate(ctx context.Context, token string) (TokenStatus, string, error) {
	if token == "" {
		return TokenInvalid, "", nil
	}
	t, err := s.Tokens.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenInvalid, "", nil
		}
		return TokenInvalid, "", storeError(err)
	}
	if t.Used {
		return TokenUsed, "", nil
	}
	if t.Expired(s.Now.now()) {
		return TokenExpired, "", nil
	}
	return TokenValid, t.Email, nil
}

// ResetPassword checks the reset form and then consumes token.
func (s *ResetService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if token == "" || newPassword == "" || confirmPassword == "" {
		metrics.RecordConsume(KindValidation.String())
		return validation("All fields are required")
	}
	if newPassword != confirmPassword {
		metrics.RecordConsume(KindValidation.String())
		return validation("Passwords do not match")
	}
	return s.Consume(ctx, token, newPassword)
}

// Consume spends token and sets the owner's password to newPassword. The
// used flag flip and the password update commit together; the flip is a
// compare-and-set, so of two racing calls exactly one succeeds and the
// other fails with ErrTokenUsed.
func (s *ResetService) Consume(ctx context.Context, token, newPassword string) error {
	err := s.consume(ctx, token, newPassword)
	metrics.RecordConsume(consumeStatus(err))
	return err
}

func (s *ResetService) consume(ctx context.Context, token, newPassword string) error {
	status, email, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}
	if status != TokenValid {
		s.Log.Info().Str("token", logger.TokenRef(token)).Stringer("status", status).Msg("reset rejected")
		return status.Err()
	}
	if err := checkPassword(newPassword, newPassword); err != nil {
		return err
	}

	now := s.Now.now()
	err = repository.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.Tokens.MarkUsedTx(ctx, tx, token, now); err != nil {
			return err
		}
		return s.Users.UpdatePasswordTx(ctx, tx, email, newPassword)
	})
	if errors.Is(err, repository.ErrTokenNotUsable) {
		// lost the compare-and-set; report what the token is now
		status, _, verr := s.Validate(ctx, token)
		if verr != nil {
			return verr
		}
		if status == TokenExpired || status == TokenInvalid {
			return status.Err()
		}
		return ErrTokenUsed
	}
	if err != nil {
		s.Log.Error().Err(err).Str("email", email).Msg("reset password transaction failed")
		return storeError(err)
	}

	s.Log.Info().Str("email", email).Msg("password reset successfully")
	publish(ctx, s.Events, s.Log, queue.AuthEvent{
		Type: queue.EventPasswordResetCompleted, Email: email, OccurredAt: now,
	})
	return nil
}

// Sweep deletes tokens that are expired or used and returns how many rows
// were removed.
func (s *ResetService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.Tokens.DeleteExpiredOrUsed(ctx, s.Now.now())
	if err != nil {
		return 0, storeError(err)
	}
	metrics.RecordPurged(n)
	if n > 0 {
		s.Log.Debug().Int64("purged", n).Msg("reset tokens purged")
	}
	return n, nil
}

func (s *ResetService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultResetTTL
	}
	return s.TTL
}

func consumeStatus(err error) string {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case errors.Is(err, ErrTokenUsed):
		return TokenUsed.String()
	case errors.Is(err, ErrTokenExpired):
		return TokenExpired.String()
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalid.String()
	}
	return KindOf(err).String()
}
