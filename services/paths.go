package services

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// StorageRoot is the base directory for all large binary artifacts: frame
// images, embedding artifacts and scratch downloads.
func StorageRoot() string {
	if dir := viper.GetString("STORAGE_DIR"); dir != "" {
		return dir
	}
	return "storage"
}

func framesDir(videoID uint) string {
	return filepath.Join(StorageRoot(), "frames", fmt.Sprintf("%d", videoID))
}

func tempDir() string {
	return filepath.Join(StorageRoot(), "temp")
}

func embeddingsDir(videoID uint) string {
	return filepath.Join(StorageRoot(), "embeddings", fmt.Sprintf("video_%d", videoID))
}

func embeddingsFile(videoID uint) string {
	return filepath.Join(embeddingsDir(videoID), "frame_embeddings.json")
}
