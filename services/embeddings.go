package services

import (
	"encoding/json"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gorm.io/gorm"

	"video-analysis/apperr"
	"video-analysis/models"
)

// FrameEmbedding is one entry of the per-video embedding artifact.
type FrameEmbedding struct {
	FrameID   uint      `json:"frame_id"`
	Timestamp float64   `json:"timestamp"`
	Embedding []float32 `json:"embedding"`
}

type GenerateResult struct {
	Processed   int `json:"processed"`
	TotalFrames int `json:"total_frames"`
}

type VisualSearchResult struct {
	FrameID    uint    `json:"frame_id"`
	Timestamp  float64 `json:"timestamp"`
	Path       string  `json:"path"`
	Similarity float64 `json:"similarity"`
}

type EmbeddingService struct {
	db   *gorm.DB
	clip *ClipClient
}

func NewEmbeddingService(db *gorm.DB) *EmbeddingService {
	return &EmbeddingService{db: db, clip: SharedClip()}
}

// GenerateFrameEmbeddings embeds every frame of a video and replaces the
// per-video artifact wholesale. A frame whose image cannot be read or
// embedded is skipped; the rest of the batch continues.
func (s *EmbeddingService) GenerateFrameEmbeddings(videoID uint) (*GenerateResult, error) {
	var frames []models.Frame
	if err := s.db.Where("video_id = ?", videoID).Order("timestamp").Find(&frames).Error; err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, apperr.NotFoundf("no frames found for video %d", videoID)
	}

	embeddings := make([]FrameEmbedding, 0, len(frames))
	for _, frame := range frames {
		if _, err := os.Stat(frame.Path); err != nil {
			log.Printf("Frame image not found: %s", frame.Path)
			continue
		}
		vector, err := s.clip.EmbedImage(frame.Path)
		if err != nil {
			log.Printf("Error embedding frame %d: %v", frame.ID, err)
			continue
		}
		embeddings = append(embeddings, FrameEmbedding{
			FrameID:   frame.ID,
			Timestamp: frame.Timestamp,
			Embedding: vector,
		})
	}

	if len(embeddings) > 0 {
		if err := saveEmbeddingArtifact(embeddingsFile(videoID), embeddings); err != nil {
			return nil, err
		}
	}

	return &GenerateResult{Processed: len(embeddings), TotalFrames: len(frames)}, nil
}

// SearchVisualContent ranks stored frame vectors by cosine similarity against
// the encoded query and resolves the survivors back to their frame rows.
// A missing artifact yields an empty result, not an error.
func (s *EmbeddingService) SearchVisualContent(videoID uint, query string, limit int) ([]VisualSearchResult, error) {
	embeddings, err := loadEmbeddingArtifact(embeddingsFile(videoID))
	if err != nil {
		if os.IsNotExist(err) {
			return []VisualSearchResult{}, nil
		}
		return nil, err
	}
	if len(embeddings) == 0 {
		return []VisualSearchResult{}, nil
	}

	queryVector, err := s.clip.EmbedText(query)
	if err != nil {
		return nil, err
	}

	ranked := rankBySimilarity(embeddings, queryVector, limit)

	results := make([]VisualSearchResult, 0, len(ranked))
	for _, item := range ranked {
		var frame models.Frame
		if err := s.db.First(&frame, item.FrameID).Error; err != nil {
			// Frame row deleted since the artifact was written; drop it.
			continue
		}
		results = append(results, VisualSearchResult{
			FrameID:    frame.ID,
			Timestamp:  frame.Timestamp,
			Path:       frame.Path,
			Similarity: item.Similarity,
		})
	}
	return results, nil
}

type EmbeddingsStatus struct {
	VideoID         uint   `json:"video_id"`
	EmbeddingsExist bool   `json:"embeddings_exist"`
	EmbeddingsFile  string `json:"embeddings_file,omitempty"`
}

func (s *EmbeddingService) Status(videoID uint) EmbeddingsStatus {
	file := embeddingsFile(videoID)
	if _, err := os.Stat(file); err != nil {
		return EmbeddingsStatus{VideoID: videoID}
	}
	return EmbeddingsStatus{VideoID: videoID, EmbeddingsExist: true, EmbeddingsFile: file}
}

type scoredFrame struct {
	FrameID    uint
	Timestamp  float64
	Similarity float64
}

func rankBySimilarity(embeddings []FrameEmbedding, query []float32, limit int) []scoredFrame {
	scored := make([]scoredFrame, 0, len(embeddings))
	for _, item := range embeddings {
		scored = append(scored, scoredFrame{
			FrameID:    item.FrameID,
			Timestamp:  item.Timestamp,
			Similarity: cosineSimilarity(query, item.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	return scored
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// saveEmbeddingArtifact replaces the artifact atomically: a concurrent
// reader sees either the old set or the new set, never a torn file.
func saveEmbeddingArtifact(path string, embeddings []FrameEmbedding) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.Marshal(embeddings)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func loadEmbeddingArtifact(path string) ([]FrameEmbedding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var embeddings []FrameEmbedding
	if err := json.Unmarshal(data, &embeddings); err != nil {
		return nil, err
	}
	return embeddings, nil
}
