package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags describe the public profile returned by
// the login endpoint; PasswordHash is never serialized.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name given at signup.
//  Email        – unique email address, stored lower-cased.
//  Phone        – optional phone number (empty when not given).
//  PasswordHash – digest produced by the configured password hasher.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    `json:"id"`    // users.id
    Name         string    `json:"name"`  // users.name
    Email        string    `json:"email"` // users.email
    Phone        string    `json:"phone"` // users.phone (nullable)
    PasswordHash string    `json:"-"`     // users.password_hash
    CreatedAt    time.Time `json:"-"`     // users.created_at
}
