package model

import "time"

// ResetToken models a row in the `password_reset_tokens` table.  A
// token belongs to the user owning Email and is deleted together with
// that user.  Tokens are created unused with a fixed lifetime and are
// flipped to used exactly once.
//
// Fields:
//  ID        – primary key identifier.
//  Email     – owner of the token (references users.email).
//  Token     – opaque URL-safe value handed to the client.
//  ExpiresAt – absolute expiry; the token is dead once now is after it.
//  Used      – set when the token has been spent on a password change.
//  CreatedAt – issuance time.
type ResetToken struct {
    ID        uint64    // password_reset_tokens.id
    Email     string    // password_reset_tokens.email
    Token     string    // password_reset_tokens.token
    ExpiresAt time.Time // password_reset_tokens.expires_at (unix seconds)
    Used      bool      // password_reset_tokens.used
    CreatedAt time.Time // password_reset_tokens.created_at (unix seconds)
}

// Expired reports whether the token is past its expiry at now. Expiry is
// stored in whole seconds, so the comparison is made in seconds too.
func (t ResetToken) Expired(now time.Time) bool { return now.Unix() > t.ExpiresAt.Unix() }
