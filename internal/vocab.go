package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DefaultVocabURL is where the vocabulary portal API listens.
const DefaultVocabURL = "http://localhost:5000"

// Word is a vocabulary entry from the portal.
type Word struct {
	Japanese string `json:"japanese"`
	English  string `json:"english"`
	Romaji   string `json:"romaji"`
}

// VocabClient fetches practice vocabulary from the portal's words endpoint.
type VocabClient struct {
	baseURL string
	client  *http.Client
}

func NewVocabClient(baseURL string, client *http.Client) *VocabClient {
	if baseURL == "" {
		baseURL = DefaultVocabURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &VocabClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Words fetches the full vocabulary list.
func (c *VocabClient) Words(ctx context.Context) ([]Word, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/words", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch vocabulary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch vocabulary: unexpected status %s", resp.Status)
	}

	var words []Word
	if err := json.NewDecoder(resp.Body).Decode(&words); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	return words, nil
}
