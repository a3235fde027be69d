package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Coins        int64     `json:"coins"`
	CreatedAt    time.Time `json:"createdAt"`
}

// OneTimeCode is a hashed verification code sent to an email address.
type OneTimeCode struct {
	ID         int64
	Email      string
	Purpose    string
	CodeHash   string
	Payload    string
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	CreatedAt  time.Time
}

func (c OneTimeCode) Expired(now time.Time) bool { return !now.Before(c.ExpiresAt) }
