package ai

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client calls the hosted LLM chat-completions API
type Client struct {
	apiURL      string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	http        *resty.Client
}

// NewClient creates an LLM client. The API key must be set; an empty key
// disables the assistant at startup, not here.
func NewClient(apiURL, apiKey, model string) *Client {
	return &Client{
		apiURL:      apiURL,
		apiKey:      apiKey,
		model:       model,
		maxTokens:   500,
		temperature: 0.7,
		http:        resty.New().SetTimeout(30 * time.Second),
	}
}

// Message represents one message in the chat conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the conversation and returns the assistant's reply.
func (c *Client) Complete(messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("LLM API key is not configured")
	}

	resp, err := c.http.R().
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    messages,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
		}).
		Post(c.apiURL)
	if err != nil {
		return "", fmt.Errorf("LLM request failed: %v", err)
	}

	// Decode the body directly; the API is JSON regardless of the
	// Content-Type it advertises.
	var out chatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("LLM response malformed: %v", err)
	}

	if resp.StatusCode() != 200 {
		if out.Error != nil {
			return "", fmt.Errorf("LLM API error: %s", out.Error.Message)
		}
		return "", fmt.Errorf("LLM API error: status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("LLM API returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
