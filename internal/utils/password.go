package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plaintext passwords into stored digests and checks them.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// NewHasher returns the hasher registered under name ("sha256" or "bcrypt").
func NewHasher(name string, bcryptCost int) (Hasher, error) {
	switch name {
	case "", "sha256":
		return SHA256Hasher{}, nil
	case "bcrypt":
		return BcryptHasher{Cost: bcryptCost}, nil
	}
	return nil, fmt.Errorf("unknown password hasher %q", name)
}

// SHA256Hasher stores the unsalted hex SHA-256 digest of the password. The
// same plaintext always yields the same stored value. It is kept for
// compatibility with existing rows; prefer BcryptHasher for new deployments.
type SHA256Hasher struct{}

// Hash returns the lower-case hex digest of plain.
func (SHA256Hasher) Hash(plain string) (string, error) {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:]), nil
}

// Verify compares the digest of plain with hash exactly, in constant time.
func (h SHA256Hasher) Verify(hash, plain string) bool {
	got, _ := h.Hash(plain)
	return subtle.ConstantTimeCompare([]byte(got), []byte(hash)) == 1
}

// BcryptHasher hashes with bcrypt at Cost.
type BcryptHasher struct{ Cost int }

// Hash returns bcrypt hash using the configured cost.
func (h BcryptHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify safely compares bcrypt hash and plain password.
func (BcryptHasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
