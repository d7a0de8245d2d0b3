package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/noah-isme/it-logbook-api/internal/models"
	"github.com/noah-isme/it-logbook-api/pkg/config"
)

// Client calls the hosted skill-classification endpoint. The endpoint
// receives a log's content and answers with the technical and soft skill
// names it detected.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a classifier client from configuration.
func New(cfg config.ClassifierConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Type    string `json:"type"`
	Payload struct {
		LogContent string `json:"logContent"`
	} `json:"payload"`
}

type classifyResponse struct {
	Result *models.SkillExtraction `json:"result"`
	Error  string                  `json:"error"`
}

// Classify submits log content and returns the extracted skill names. A nil
// extraction with nil error means the endpoint had no result.
func (c *Client) Classify(ctx context.Context, logContent string) (*models.SkillExtraction, error) {
	reqBody := classifyRequest{Type: "identifySkills"}
	reqBody.Payload.LogContent = logContent

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var decoded classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := decoded.Error
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, msg)
	}

	return decoded.Result, nil
}
