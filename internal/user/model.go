package user

import (
	"time"
)

// User is the domain model for an account. The session cache stores a
// JSON copy of this struct; PasswordHash and RefreshToken are never
// exposed in API responses.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	Avatar       *string   `json:"avatar,omitempty"`
	RefreshToken *string   `json:"-"`
	Confirmed    bool      `json:"confirmed"`
}
