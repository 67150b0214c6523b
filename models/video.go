package models

import "time"

// Transcript processing states. The status column is the authoritative
// signal for "transcript processed", updated in the same transaction as the
// chunk rows.
const (
	TranscriptPending     = "pending"
	TranscriptProcessed   = "processed"
	TranscriptUnavailable = "unavailable"
)

type Video struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	URL              string    `gorm:"uniqueIndex" json:"url"`
	Title            string    `json:"title"`
	TranscriptStatus string    `gorm:"default:pending" json:"transcript_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Sections []Section         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Frames   []Frame           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Chunks   []TranscriptChunk `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
