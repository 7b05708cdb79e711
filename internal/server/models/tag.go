package models

import "time"

// Tag is a user-scoped label. Names are unique per owner.
type Tag struct {
	ID        string
	UserID    string
	Name      string
	Color     string
	CreatedAt time.Time
}
