package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the database row for an account
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Email        string    `bun:"email,notnull,unique"`
	Username     string    `bun:"username,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	Avatar       *string   `bun:"avatar"`
	RefreshToken *string   `bun:"refresh_token"`
	Confirmed    bool      `bun:"confirmed,notnull,default:false"`
}

// Contact is the database row for a contact record.
// Every contact belongs to exactly one user; all queries against this
// table must filter by user_id.
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:c"`

	ID          int64     `bun:"id,pk,autoincrement"`
	FirstName   string    `bun:"first_name,notnull"`
	LastName    string    `bun:"last_name,notnull"`
	Email       string    `bun:"email,notnull"`
	PhoneNumber string    `bun:"phone_number,notnull"`
	Birthday    time.Time `bun:"birthday,notnull"`
	Notes       []string  `bun:"notes,array"`
	UserID      int64     `bun:"user_id,notnull"`
}
