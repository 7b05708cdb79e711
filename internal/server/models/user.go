package models

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Verified     bool
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
