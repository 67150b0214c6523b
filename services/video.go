package services

import (
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"video-analysis/apperr"
	"video-analysis/models"
)

var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/.*[?&]v=([^&\n?#]+)`),
}

// ExtractYouTubeID pulls the 11-character video identifier out of the common
// YouTube URL shapes.
func ExtractYouTubeID(url string) (string, error) {
	for _, pattern := range youtubeIDPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", apperr.New(apperr.InvalidInput, fmt.Sprintf("could not extract video ID from URL: %s", url))
}

type VideoService struct {
	db *gorm.DB
}

func NewVideoService(db *gorm.DB) *VideoService {
	return &VideoService{db: db}
}

// CreateVideo returns the existing record for url or inserts a new one.
// Create-or-fetch is the idempotence contract of the upload endpoint.
func (s *VideoService) CreateVideo(url string) (*models.Video, error) {
	ytID, err := ExtractYouTubeID(url)
	if err != nil {
		return nil, err
	}

	var existing models.Video
	if err := s.db.Where("url = ?", url).First(&existing).Error; err == nil {
		return &existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	video := models.Video{
		URL:              url,
		Title:            "Video " + ytID,
		TranscriptStatus: models.TranscriptPending,
	}
	if err := s.db.Create(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (s *VideoService) GetVideo(videoID uint) (*models.Video, error) {
	var video models.Video
	if err := s.db.First(&video, videoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("video %d not found", videoID)
		}
		return nil, err
	}
	return &video, nil
}
