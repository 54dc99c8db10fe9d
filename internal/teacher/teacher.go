// Package teacher implements the vision-model fallback evaluator: the
// last resort when every extraction strategy comes back empty or
// under the minimum row count. It sends the leaderboard's screenshot
// to an OpenAI-compatible vision endpoint and parses its structured
// JSON reply back into entries.
package teacher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/leaderboard-scout/internal/model"
)

// Client evaluates a leaderboard screenshot through a vision-capable
// chat completion endpoint. It satisfies orchestrator.Evaluator.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// New builds a Client. Pass nil for httpClient to use a new zero-value
// http.Client.
func New(httpClient *http.Client, apiKey, modelName, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, apiKey: apiKey, model: modelName, baseURL: baseURL}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type imageContent struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// extractedRow is the shape the vision model is asked to emit per row.
type extractedRow struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Wager    float64 `json:"wager"`
	Prize    float64 `json:"prize"`
}

type extractedPayload struct {
	Rows []extractedRow `json:"rows"`
}

// Evaluate sends screenshot to the vision endpoint and returns the
// ranked rows it reports for leaderboardName.
func (c *Client) Evaluate(ctx context.Context, screenshot []byte, leaderboardName string) ([]model.Entry, error) {
	if len(screenshot) == 0 {
		return nil, fmt.Errorf("teacher: no screenshot captured for %s", leaderboardName)
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(screenshot)

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []imageContent{
				{Type: "text", Text: fmt.Sprintf("Leaderboard name: %s. Read every visible row.", leaderboardName)},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			}},
		},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("teacher: marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("teacher: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("teacher: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("teacher: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp chatErrorResponse
		msg := "vision API error"
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return nil, fmt.Errorf("teacher: %s returned %d: %s", endpoint, resp.StatusCode, msg)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("teacher: parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("teacher: vision model returned no choices")
	}

	return parsePayload(chatResp.Choices[0].Message.Content)
}

func parsePayload(raw string) ([]model.Entry, error) {
	var payload extractedPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("teacher: vision model returned invalid JSON: %w", err)
	}

	entries := make([]model.Entry, 0, len(payload.Rows))
	for _, row := range payload.Rows {
		if row.Rank <= 0 || strings.TrimSpace(row.Username) == "" {
			continue
		}
		entries = append(entries, model.Entry{
			Rank:     row.Rank,
			Username: row.Username,
			Wager:    row.Wager,
			Prize:    row.Prize,
		})
	}
	return entries, nil
}

const systemPrompt = `You are a leaderboard-reading assistant. Given a screenshot of a casino/gambling affiliate leaderboard, return JSON of the shape {"rows": [{"rank": int, "username": string, "wager": number, "prize": number}]} listing every visible ranked row in order. Use 0 for amounts you cannot read. Return ONLY the JSON object, no markdown fences or explanation.`
