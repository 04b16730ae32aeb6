package models

import "time"

// User represents a row in the users table. Accounts are provisioned by the
// admin CLI; there is no self-service registration.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
