package models

import "time"

type Frame struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VideoID   uint      `gorm:"index" json:"video_id"`
	Timestamp float64   `json:"timestamp"` // seconds from start of video
	Path      string    `json:"path"`      // stored JPEG
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
