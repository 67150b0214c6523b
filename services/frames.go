package services

import (
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"video-analysis/apperr"
	"video-analysis/models"
)

// DefaultFrameInterval is the sampling step used by the extract-frames
// endpoint, in seconds.
const DefaultFrameInterval = 10

type FrameExtractorService struct {
	db *gorm.DB
}

func NewFrameExtractorService(db *gorm.DB) *FrameExtractorService {
	if err := os.MkdirAll(filepath.Join(StorageRoot(), "frames"), 0755); err != nil {
		log.Printf("failed to create frames dir: %v", err)
	}
	if err := os.MkdirAll(tempDir(), 0755); err != nil {
		log.Printf("failed to create temp dir: %v", err)
	}
	return &FrameExtractorService{db: db}
}

// ExtractFrames runs the full pipeline: download the source media, sample a
// still every interval seconds, persist one Frame row per written image.
// If frames already exist for the video the existing set is returned
// unchanged and nothing is downloaded.
func (s *FrameExtractorService) ExtractFrames(videoID uint, sourceURL string, interval int) ([]models.Frame, error) {
	var count int64
	if err := s.db.Model(&models.Frame{}).Where("video_id = ?", videoID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return s.FramesByVideo(videoID)
	}

	videoPath, err := downloadVideo(sourceURL, tempDir())
	if err != nil {
		return nil, err
	}
	// Scratch media is removed on every exit path.
	defer os.Remove(videoPath)

	duration, err := probeDuration(videoPath)
	if err != nil {
		return nil, err
	}

	outDir := framesDir(videoID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	var frames []models.Frame
	for i, ts := range frameTimestamps(duration, float64(interval)) {
		framePath := filepath.Join(outDir, fmt.Sprintf("frame_%06d_%.2fs.jpg", i, ts))
		if err := extractStill(videoPath, ts, framePath); err != nil {
			return nil, apperr.Wrap(apperr.Upstream, fmt.Sprintf("error extracting frame at %.2fs", ts), err)
		}
		// ffmpeg can exit cleanly without producing a file when the seek
		// lands past the last decodable frame. Persist only what exists.
		if _, err := os.Stat(framePath); err != nil {
			continue
		}
		frames = append(frames, models.Frame{
			VideoID:   videoID,
			Timestamp: ts,
			Path:      framePath,
		})
	}

	if len(frames) > 0 {
		if err := s.db.Create(&frames).Error; err != nil {
			return nil, err
		}
	}
	return frames, nil
}

func (s *FrameExtractorService) FramesByVideo(videoID uint) ([]models.Frame, error) {
	var frames []models.Frame
	if err := s.db.Where("video_id = ?", videoID).Order("timestamp").Find(&frames).Error; err != nil {
		return nil, err
	}
	return frames, nil
}

// NearestFrame returns the frame closest to target within tolerance seconds,
// or nil when no frame lies in [target-tolerance, target+tolerance].
func (s *FrameExtractorService) NearestFrame(videoID uint, target, tolerance float64) (*models.Frame, error) {
	var frames []models.Frame
	err := s.db.Where("video_id = ? AND timestamp >= ? AND timestamp <= ?",
		videoID, target-tolerance, target+tolerance).
		Order("timestamp").Find(&frames).Error
	if err != nil {
		return nil, err
	}
	return closestFrame(frames, target), nil
}

// CleanupFrames deletes every frame row and backing file for a video, then
// removes the per-video directory if it ended up empty.
func (s *FrameExtractorService) CleanupFrames(videoID uint) error {
	frames, err := s.FramesByVideo(videoID)
	if err != nil {
		return err
	}

	for _, frame := range frames {
		if err := os.Remove(frame.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := s.db.Where("video_id = ?", videoID).Delete(&models.Frame{}).Error; err != nil {
		return err
	}

	dir := framesDir(videoID)
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		return os.Remove(dir)
	}
	return nil
}

// frameTimestamps is the sampling schedule: t=0, stepping by interval while
// t stays strictly below duration.
func frameTimestamps(duration, interval float64) []float64 {
	if interval <= 0 || duration <= 0 {
		return nil
	}
	var out []float64
	for t := 0.0; t < duration; t += interval {
		out = append(out, t)
	}
	return out
}

func closestFrame(frames []models.Frame, target float64) *models.Frame {
	var best *models.Frame
	bestDiff := math.Inf(1)
	for i := range frames {
		diff := math.Abs(frames[i].Timestamp - target)
		if diff < bestDiff {
			bestDiff = diff
			best = &frames[i]
		}
	}
	return best
}

// downloadVideo fetches the source media with yt-dlp into outDir and returns
// the downloaded file path.
func downloadVideo(sourceURL, outDir string) (string, error) {
	template := filepath.Join(outDir, "video_%(id)s.%(ext)s")
	cmd := exec.Command("yt-dlp",
		"-f", "best[ext=mp4]/best",
		"-o", template,
		"--no-warnings", "--quiet",
		"--print", "after_move:filepath",
		sourceURL,
	)
	out, err := cmd.Output()
	if err != nil {
		return "", apperr.Wrap(apperr.Upstream, "error downloading video with yt-dlp", err)
	}

	path := strings.TrimSpace(string(out))
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// Fallback: some yt-dlp versions print nothing; scan for the output file.
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "video_") && hasVideoExt(name) {
			return filepath.Join(outDir, name), nil
		}
	}
	return "", apperr.New(apperr.Upstream, "downloaded video file not found")
}

func hasVideoExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".webm", ".mkv", ".mov", ".avi":
		return true
	}
	return false
}

// probeDuration asks ffprobe for the container duration in seconds.
func probeDuration(videoPath string) (float64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, apperr.Wrap(apperr.Upstream, "ffprobe failed", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.Upstream, "could not parse video duration", err)
	}
	return duration, nil
}

// extractStill writes a single JPEG sampled at ts seconds.
func extractStill(videoPath string, ts float64, outPath string) error {
	cmd := exec.Command("ffmpeg",
		"-y",
		"-ss", fmt.Sprintf("%.2f", ts),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
