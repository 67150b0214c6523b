package models

import "github.com/pgvector/pgvector-go"

// TranscriptChunk is one retrieval unit of a video transcript. StartTime is
// approximate, interpolated from the chunk index; it is not a precise mapping
// back to the captions.
type TranscriptChunk struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	VideoID    uint            `gorm:"index" json:"video_id"`
	ChunkIndex int             `json:"chunk_index"`
	Content    string          `json:"content"`
	StartTime  float64         `json:"start_time"`
	Embedding  pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
}
