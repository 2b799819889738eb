package domain

import "time"

// User is an authenticated account.
type User struct {
	CreatedAt    time.Time `json:"created_at"`
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Username     string    `json:"username"`
}

// Name returns the best available name to display for the user.
func (u *User) Name() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
