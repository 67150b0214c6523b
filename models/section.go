package models

import "time"

type Section struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VideoID   uint      `gorm:"index" json:"video_id"`
	Title     string    `json:"title"`
	StartTime float64   `json:"start_time"` // seconds
	EndTime   float64   `json:"end_time"`   // seconds
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
