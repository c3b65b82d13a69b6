package contact

import (
	"time"
)

// Contact is the domain model for a contact record
type Contact struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Birthday    time.Time `json:"birthday"`
	Notes       []string  `json:"notes,omitempty"`
	UserID      int64     `json:"-"`
}
