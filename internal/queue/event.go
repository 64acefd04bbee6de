// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// AuthEventsQueue is the durable queue carrying AuthEvent messages.
const AuthEventsQueue = "auth.events"

// Event types published by the auth services.
const (
    EventUserRegistered         = "user.registered"
    EventPasswordResetRequested = "password_reset.requested"
    EventPasswordResetCompleted = "password_reset.completed"
)

// AuthEvent is published after a state change to an account.  It carries
// enough context for an audit trail but never a password or a raw reset
// token.
type AuthEvent struct {
    Type       string     `json:"type"`
    Email      string     `json:"email"`
    UserID     uint64     `json:"user_id,omitempty"`
    ExpiresAt  *time.Time `json:"expires_at,omitempty"`
    OccurredAt time.Time  `json:"occurred_at"`
}
