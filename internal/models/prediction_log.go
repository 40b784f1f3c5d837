package models

import "time"

// PredictionLog is the append-only audit record written once per completed
// prediction request. Prediction and Probability are nil for degraded
// requests served while no model was loaded. URL is stored already masked
// when full-URL logging is disabled; masking is not reversible.
type PredictionLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	URL          string    `gorm:"not null" json:"url"`
	FeaturesJSON string    `gorm:"type:text" json:"-"`
	Prediction   *int      `json:"prediction"`
	Probability  *float64  `json:"probability"`
	ModelVersion string    `gorm:"size:128" json:"model_version"`
	Device       string    `gorm:"size:255" json:"device"`
	IP           string    `gorm:"size:64" json:"ip"`
	CreatedAt    time.Time `json:"created_at"`
}
