package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account holder. PasswordHash is an Argon2id hash and
// is never exposed through the API.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
