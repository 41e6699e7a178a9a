package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DefaultOCRURL is where a locally running manga-ocr server listens.
const DefaultOCRURL = "http://localhost:8765"

// OCRClient recognizes handwritten Japanese text via an HTTP OCR server.
type OCRClient struct {
	baseURL string
	client  *http.Client
}

func NewOCRClient(baseURL string, client *http.Client) *OCRClient {
	if baseURL == "" {
		baseURL = DefaultOCRURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OCRClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Recognize posts image bytes and returns the recognized text.
func (c *OCRClient) Recognize(ctx context.Context, image []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/ocr", bytes.NewReader(image))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr request: unexpected status %s", resp.Status)
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode ocr response: %w", err)
	}
	return strings.TrimSpace(body.Text), nil
}
