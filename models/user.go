package models

import "time"

// Default values applied to newly registered users.
const (
	DefaultRole    = "user"
	DefaultPicture = "profile_picture/default_profile_picture.png"
)

// DefaultPrivileges is the privilege set granted at registration.
var DefaultPrivileges = []string{"READ", "WRITE"}

// User represents an account that owns notes.
// It maps to the `users` table in SQLite.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Privileges   []string  `db:"privileges" json:"privilege"`
	Picture      string    `db:"picture" json:"picture"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
