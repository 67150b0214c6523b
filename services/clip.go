package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/spf13/viper"

	"video-analysis/apperr"
)

// ClipClient talks to a local CLIP inference server. The server exposes a
// text encoder and an image encoder trained into one embedding space, so
// vectors from either endpoint are directly comparable.
type ClipClient struct {
	baseURL string
	model   string
}

var (
	clipOnce   sync.Once
	clipShared *ClipClient
)

// SharedClip returns the process-wide CLIP client. The remote model load is
// expensive, so every caller shares one handle instead of constructing its
// own per request.
func SharedClip() *ClipClient {
	clipOnce.Do(func() {
		host := viper.GetString("CLIP_HOST")
		if host == "" {
			host = "localhost"
		}
		model := viper.GetString("CLIP_MODEL")
		if model == "" {
			model = "ViT-B-32"
		}
		clipShared = &ClipClient{
			baseURL: fmt.Sprintf("http://%s:9500", host),
			model:   model,
		}
	})
	return clipShared
}

type clipRequest struct {
	Model string `json:"model"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type clipResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// EmbedImage encodes the JPEG at imagePath into a unit-normalized vector.
func (c *ClipClient) EmbedImage(imagePath string) ([]float32, error) {
	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, err
	}

	return c.embed("/embed/image", clipRequest{
		Model: c.model,
		Image: base64.StdEncoding.EncodeToString(imageBytes),
	})
}

// EmbedText encodes a free-text query into the same space as EmbedImage.
func (c *ClipClient) EmbedText(text string) ([]float32, error) {
	return c.embed("/embed/text", clipRequest{Model: c.model, Text: text})
}

func (c *ClipClient) embed(path string, req clipRequest) ([]float32, error) {
	requestBody, _ := json.Marshal(req)

	resp, err := http.Post(c.baseURL+path, "application/json", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, fmt.Sprintf("failed to call CLIP server at %s", c.baseURL), err)
	}
	defer resp.Body.Close()

	var result clipResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "failed to parse CLIP response", err)
	}
	if result.Error != "" {
		return nil, apperr.New(apperr.Upstream, "CLIP server error: "+result.Error)
	}
	if len(result.Embedding) == 0 {
		return nil, apperr.New(apperr.Upstream, "CLIP server returned empty embedding")
	}

	return result.Embedding, nil
}
