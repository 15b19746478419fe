package domain

import "time"

// Team is directory metadata for the group that owns a category.
type Team struct {
	ID          string
	Name        string
	Category    string
	Description string
	Email       string
	CreatedAt   time.Time
}
