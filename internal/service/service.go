// Package service holds the business rules for registration, login and the
// password reset token lifecycle. Every failure leaves this package as a
// *Error so the HTTP layer never sees repository or driver errors.
package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/iliyamo/user-auth-service/internal/queue"
)

// MinPasswordLength is the shortest password accepted at signup or reset.
const MinPasswordLength = 6

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func (c Clock) now() time.Time {
	if c == nil {
		return systemClock()
	}
	return c()
}

// publish sends ev and only logs a failure; events never change the
// outcome of the operation that produced them.
func publish(ctx context.Context, p queue.Publisher, log zerolog.Logger, ev queue.AuthEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Msg("publish auth event failed")
	}
}

// checkPassword applies the password policy shared by signup and reset.
func checkPassword(password, confirm string) error {
	if password != confirm {
		return validation("Passwords do not match")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return validation("Password must be at least 6 characters")
	}
	return nil
}

// validEmail is a shape check only: one '@' with something on both sides.
func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at == strings.LastIndexByte(email, '@') && at < len(email)-1 &&
		!strings.ContainsAny(email, " \t\r\n")
}
