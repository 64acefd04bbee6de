package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"     // secure random number generation
    "encoding/base64" // URL-safe encoding of the random bytes
)

// ResetTokenBytes is the amount of randomness in a reset token.
const ResetTokenBytes = 32

// NewResetToken returns a cryptographically secure random token suitable
// for a password reset link.  32 random bytes are encoded with unpadded
// URL-safe base64, giving a 43 character string that needs no escaping
// in a query parameter.
func NewResetToken() (string, error) {
    return randomURLSafe(ResetTokenBytes)
}

// randomURLSafe returns n bytes of cryptographically secure random data
// encoded as unpadded URL-safe base64.  If the random number generator
// fails, an error is returned.
func randomURLSafe(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return base64.RawURLEncoding.EncodeToString(buf), nil
}
