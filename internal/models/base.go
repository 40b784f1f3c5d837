package models

import "time"

// Base contains common columns for all tables. IDs are database-assigned
// auto-increment values, so they are strictly increasing and never reused.
type Base struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
