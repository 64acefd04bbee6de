package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/user-auth-service/internal/model"
	"github.com/iliyamo/user-auth-service/internal/utils"
)

// UserRepo is the credential store over the 'users' table. Passwords are
// hashed here so callers only ever hand over plaintext.
type UserRepo struct {
	DB     *sql.DB
	Hasher utils.Hasher
}

func NewUserRepo(db *sql.DB, h utils.Hasher) *UserRepo { return &UserRepo{DB: db, Hasher: h} }

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, name, email, phone, password string) (uint64, error) {
	const op = "repository.UserRepo.Create"

	email = NormalizeEmail(email)
	exists, err := r.EmailExists(ctx, email)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrEmailExists
	}
	hash, err := r.Hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("%s: hash: %w", op, err)
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, phone, password_hash) VALUES (?,?,?,?)",
		strings.TrimSpace(name), email, nullString(phone), hash)
	if err != nil {
		// lost a race with a concurrent signup for the same email
		if isUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return uint64(id), nil
}

// Authenticate returns the stored profile when password verifies for email.
func (r *UserRepo) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if !r.Hasher.Verify(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	u.PasswordHash = ""
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	const op = "repository.UserRepo.GetByEmail"

	var (
		u     model.User
		phone sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, email, phone, password_hash FROM users WHERE email=? LIMIT 1",
		NormalizeEmail(email)).Scan(&u.ID, &u.Name, &u.Email, &phone, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	u.Phone = phone.String
	return u, nil
}

// EmailExists probes for a registered email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	const op = "repository.UserRepo.EmailExists"

	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email=? LIMIT 1", NormalizeEmail(email)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// UpdatePasswordTx replaces the password hash for email. It runs on q so
// it can share a transaction with the token being spent.
func (r *UserRepo) UpdatePasswordTx(ctx context.Context, q DBTX, email, password string) error {
	const op = "repository.UserRepo.UpdatePasswordTx"

	hash, err := r.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("%s: hash: %w", op, err)
	}
	if _, err := q.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE email=?", hash, NormalizeEmail(email)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
