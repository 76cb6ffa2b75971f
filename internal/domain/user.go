package domain

import (
	"context"
	"time"
)

// User represents an identity record from the user directory.
type User struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	Email          string    `bson:"email" json:"email"`
	Name           string    `bson:"name" json:"name"`
	Role           string    `bson:"role" json:"role"`
	HashedPassword string    `bson:"hashed_password" json:"-"` // bcrypt hash, never expose
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// UserDirectory is the read-only port to user identity records. User
// management itself lives outside this service.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}

// CredentialVerifier compares a presented password against a stored hash.
type CredentialVerifier interface {
	Compare(hashedPassword, password string) bool
}

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
