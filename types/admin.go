package types

import "time"

// Admin is a staff account for the management console.
type Admin struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`

	// PasswordHash is never exposed in API responses.
	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}
