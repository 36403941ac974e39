// Package openai maps llm completions to the OpenAI chat completions API.
// Importing it registers the "openai" dialect.
package openai

import (
	"encoding/json"
	"fmt"

	"github.com/bleitz/meditai/httpclient"
	"github.com/bleitz/meditai/llm"
)

const (
	// DialectName is the configuration name of this dialect.
	DialectName = "openai"

	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo"
)

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect implements llm.Dialect for OpenAI-compatible endpoints.
type Dialect struct{}

var _ llm.Dialect = (*Dialect)(nil)

func (d *Dialect) Name() string           { return DialectName }
func (d *Dialect) DefaultBaseURL() string { return DefaultBaseURL }
func (d *Dialect) DefaultModel() string   { return DefaultModel }
func (d *Dialect) ChatPath() string       { return "/chat/completions" }
func (d *Dialect) HealthPath() string     { return "/models" }

func (d *Dialect) Auth(apiKey string) *httpclient.AuthConfig {
	return httpclient.BearerAuth(apiKey)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      llm.Message `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage llm.Usage `json:"usage"`
}

// BuildRequest maps req to a chat completions body.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}
	body := chatRequest{
		Model:     req.Model,
		Messages:  req.AllMessages(),
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.Temperature = &t
	}
	return body, nil
}

// ParseResponse takes the first choice of a chat completions response.
func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response %q has no choices", resp.ID)
	}
	choice := resp.Choices[0]
	return &llm.CompletionResponse{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
		Usage:        resp.Usage,
	}, nil
}
