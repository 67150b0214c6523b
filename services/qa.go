package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"video-analysis/models"
)

// assumedVideoDuration is the span section times are distributed over. The
// pipeline never learns the true duration, so section boundaries are an
// approximation by construction.
const assumedVideoDuration = 300.0

const retrievalTopK = 3

type ProcessResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	SegmentsCount int    `json:"segments_count"`
	ChunksCount   int    `json:"chunks_count"`
}

type AnswerSource struct {
	Content   string  `json:"content"`
	Timestamp string  `json:"timestamp"`
	StartTime float64 `json:"start_time"`
}

type AskResult struct {
	Success bool           `json:"success"`
	Answer  string         `json:"answer"`
	Sources []AnswerSource `json:"sources"`
}

type SectionDraft struct {
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// TranscriptService owns the transcript pipeline: fetch captions, chunk,
// embed, and answer questions over the retrieved chunks.
type TranscriptService struct {
	db         *gorm.DB
	client     *openai.Client
	transcript *TranscriptClient
	splitter   *TextSplitter
	chatModel  string
	embedModel string
}

func NewTranscriptService(db *gorm.DB) *TranscriptService {
	chatModel := viper.GetString("CHAT_MODEL")
	if chatModel == "" {
		chatModel = openai.GPT4
	}
	embedModel := viper.GetString("EMBEDDING_MODEL")
	if embedModel == "" {
		embedModel = string(openai.SmallEmbedding3)
	}
	return &TranscriptService{
		db:         db,
		client:     newOpenAIClient(),
		transcript: NewTranscriptClient(),
		splitter:   NewTextSplitter(),
		chatModel:  chatModel,
		embedModel: embedModel,
	}
}

func newOpenAIClient() *openai.Client {
	apiKey := viper.GetString("OPENAI_API_KEY")
	baseURL := viper.GetString("OPENAI_BASE_URL")
	if baseURL == "" {
		return openai.NewClient(apiKey)
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	return openai.NewClientWithConfig(config)
}

// ProcessTranscript fetches captions for the video, splits them into
// overlapping chunks, embeds the chunks and stores them. "No transcript
// available" is a result, not an error: callers fall back to canned sections.
func (s *TranscriptService) ProcessTranscript(videoID uint, videoURL string) ProcessResult {
	segments, err := s.transcript.FetchTranscript(videoURL)
	if err != nil || len(segments) == 0 {
		s.db.Model(&models.Video{}).Where("id = ?", videoID).
			Update("transcript_status", models.TranscriptUnavailable)
		return ProcessResult{
			Success: false,
			Message: "No transcript available for this video",
		}
	}

	var parts []string
	for _, seg := range segments {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	fullText := strings.Join(parts, " ")
	chunks := s.splitter.SplitText(fullText)
	if len(chunks) == 0 {
		s.db.Model(&models.Video{}).Where("id = ?", videoID).
			Update("transcript_status", models.TranscriptUnavailable)
		return ProcessResult{
			Success:       false,
			Message:       "Transcript was empty after chunking",
			SegmentsCount: len(segments),
		}
	}

	vectors, err := s.embedTexts(chunks)
	if err != nil {
		return ProcessResult{
			Success:       false,
			Message:       fmt.Sprintf("Failed to create embeddings: %v", err),
			SegmentsCount: len(segments),
		}
	}

	lastStart := segments[len(segments)-1].Start
	rows := make([]models.TranscriptChunk, len(chunks))
	for i, chunk := range chunks {
		rows[i] = models.TranscriptChunk{
			VideoID:    videoID,
			ChunkIndex: i,
			Content:    chunk,
			StartTime:  approximateChunkStart(i, len(chunks), lastStart),
			Embedding:  pgvector.NewVector(vectors[i]),
		}
	}

	// Chunk rows and the processed flag move together; the status column is
	// the authoritative signal that retrieval is possible.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", videoID).Delete(&models.TranscriptChunk{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		return tx.Model(&models.Video{}).Where("id = ?", videoID).
			Update("transcript_status", models.TranscriptProcessed).Error
	})
	if err != nil {
		return ProcessResult{
			Success:       false,
			Message:       fmt.Sprintf("Failed to store transcript chunks: %v", err),
			SegmentsCount: len(segments),
		}
	}

	return ProcessResult{
		Success:       true,
		Message:       "Transcript processed successfully",
		SegmentsCount: len(segments),
		ChunksCount:   len(rows),
	}
}

// IsProcessed reports whether transcript retrieval is available for a video.
func (s *TranscriptService) IsProcessed(videoID uint) bool {
	var video models.Video
	if err := s.db.First(&video, videoID).Error; err != nil {
		return false
	}
	return video.TranscriptStatus == models.TranscriptProcessed
}

// ChunkCount returns the number of stored transcript chunks for a video.
func (s *TranscriptService) ChunkCount(videoID uint) int64 {
	var count int64
	s.db.Model(&models.TranscriptChunk{}).Where("video_id = ?", videoID).Count(&count)
	return count
}

const cannedNoTranscriptAnswer = "Sorry, I cannot answer questions about this video. The transcript may not be available or processed yet."

// AskQuestion retrieves the chunks most relevant to question and asks the
// chat model to answer from them.
func (s *TranscriptService) AskQuestion(videoID uint, question string) AskResult {
	if !s.IsProcessed(videoID) {
		return AskResult{Answer: cannedNoTranscriptAnswer, Sources: []AnswerSource{}}
	}

	chunks, err := s.retrieveChunks(videoID, question, retrievalTopK)
	if err != nil || len(chunks) == 0 {
		return AskResult{Answer: cannedNoTranscriptAnswer, Sources: []AnswerSource{}}
	}

	answer, err := s.answerFromChunks(question, chunks)
	if err != nil {
		return AskResult{
			Answer:  fmt.Sprintf("Sorry, I encountered an error: %v", err),
			Sources: []AnswerSource{},
		}
	}

	sources := make([]AnswerSource, 0, retrievalTopK)
	for _, chunk := range chunks {
		if len(sources) == retrievalTopK {
			break
		}
		sources = append(sources, AnswerSource{
			Content:   truncate(chunk.Content, 200),
			Timestamp: formatTimestamp(chunk.StartTime),
			StartTime: chunk.StartTime,
		})
	}

	return AskResult{Success: true, Answer: answer, Sources: sources}
}

func (s *TranscriptService) retrieveChunks(videoID uint, query string, k int) ([]models.TranscriptChunk, error) {
	vectors, err := s.embedTexts([]string{query})
	if err != nil {
		return nil, err
	}

	var chunks []models.TranscriptChunk
	err = s.db.Raw(
		`SELECT * FROM transcript_chunks WHERE video_id = ? ORDER BY embedding <=> ? LIMIT ?`,
		videoID, pgvector.NewVector(vectors[0]), k,
	).Scan(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func (s *TranscriptService) answerFromChunks(question string, chunks []models.TranscriptChunk) (string, error) {
	var contextText strings.Builder
	for _, chunk := range chunks {
		contextText.WriteString(chunk.Content)
		contextText.WriteString("\n\n")
	}

	prompt := fmt.Sprintf(
		"Use the following video transcript excerpts to answer the question. If the answer is not in the excerpts, say so.\n\nExcerpts:\n%s\nQuestion: %s",
		contextText.String(), question,
	)

	resp, err := s.client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model: s.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (s *TranscriptService) embedTexts(texts []string) ([][]float32, error) {
	resp, err := s.client.CreateEmbeddings(context.Background(), openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(s.embedModel),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		out[item.Index] = item.Embedding
	}
	return out, nil
}

const sectionsPrompt = `Analyze this video transcript and create 3-5 main sections that best organize the content.
For each section, provide a clear, descriptive title (3-8 words) that captures the main topic.

Look for natural breaks in content, topic changes, or different phases of discussion.

Format your response as a numbered list like this:
1. Introduction and Overview
2. Main Topic Discussion
3. Key Examples and Case Studies
4. Practical Applications
5. Summary and Conclusions

Only provide the titles, one per line, numbered.`

// GenerateSections asks the chat model to propose section titles from
// retrieved transcript context. It always returns 3 to 5 sections whose
// times are distributed evenly across the assumed duration; canned titles
// stand in whenever retrieval or generation yields nothing usable.
func (s *TranscriptService) GenerateSections(videoID uint) []SectionDraft {
	if !s.IsProcessed(videoID) {
		return []SectionDraft{
			{Title: "Introduction", StartTime: 0, EndTime: 60},
			{Title: "Main Content", StartTime: 60, EndTime: 240},
			{Title: "Conclusion", StartTime: 240, EndTime: 300},
		}
	}

	chunks, err := s.retrieveChunks(videoID, sectionsPrompt, retrievalTopK)
	if err != nil || len(chunks) == 0 {
		return fallbackSections()
	}

	answer, err := s.answerFromChunks(sectionsPrompt, chunks)
	if err != nil {
		return fallbackSections()
	}

	titles := parseSectionTitles(answer)
	if len(titles) < 3 {
		titles = []string{"Video Introduction", "Main Discussion", "Key Points", "Conclusion"}
	}
	if len(titles) > 5 {
		titles = titles[:5]
	}
	return distributeSectionTimes(titles, assumedVideoDuration)
}

func fallbackSections() []SectionDraft {
	return []SectionDraft{
		{Title: "Video Introduction", StartTime: 0, EndTime: 75},
		{Title: "Main Content", StartTime: 75, EndTime: 225},
		{Title: "Summary", StartTime: 225, EndTime: 300},
	}
}

// parseSectionTitles pulls plausible titles out of a numbered or bulleted
// free-text reply, dropping lines too short or too long to be titles.
func parseSectionTitles(answer string) []string {
	var titles []string
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cleaned := line
		if line[0] >= '0' && line[0] <= '9' && strings.Contains(line, ".") {
			cleaned = strings.TrimSpace(strings.SplitN(line, ".", 2)[1])
		} else if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") {
			cleaned = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "-"), "•"))
		}

		if len(cleaned) > 5 && len(cleaned) < 100 {
			titles = append(titles, cleaned)
		}
	}
	return titles
}

// distributeSectionTimes spreads titles evenly across total seconds.
func distributeSectionTimes(titles []string, total float64) []SectionDraft {
	sections := make([]SectionDraft, len(titles))
	per := total / float64(len(titles))
	for i, title := range titles {
		sections[i] = SectionDraft{
			Title:     title,
			StartTime: float64(i) * per,
			EndTime:   float64(i+1) * per,
		}
	}
	return sections
}

// approximateChunkStart interpolates a chunk's timestamp linearly across the
// chunk index, anchored to the transcript's last known start time.
func approximateChunkStart(index, totalChunks int, lastSegmentStart float64) float64 {
	if totalChunks == 0 {
		return 0
	}
	return float64(index) / float64(totalChunks) * lastSegmentStart
}

func formatTimestamp(seconds float64) string {
	minutes := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
