package translation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/quicktrans/internal/config"
)

// ErrMissingCredential is returned when no API key is configured. No
// request is ever sent without one.
var ErrMissingCredential = errors.New("API key not configured")

// ChatRequest is the request body. go-openai's ChatCompletionRequest omits a
// zero temperature, so the body is declared here to always send it.
type ChatRequest struct {
	Model       string                         `json:"model"`
	Messages    []openai.ChatCompletionMessage `json:"messages"`
	Temperature float64                        `json:"temperature"`
	Stream      bool                           `json:"stream"`
}

// Request is a fully built translation request
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Endpoint     string
	Headers      map[string]string
	Payload      ChatRequest
	Body         []byte
}

// Build creates the request for translating text from source to target
// with the settings in cfg. text is expected to be trimmed and non-empty.
func Build(text, source, target string, cfg config.Config) (*Request, error) {
	if !cfg.HasCredential() {
		return nil, ErrMissingCredential
	}

	req := &Request{
		SystemPrompt: SystemPrompt(source, target),
		UserPrompt:   UserPrompt(text, target),
		Endpoint:     ResolveEndpoint(cfg.APIURL),
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + cfg.APIKey,
		},
	}
	req.Payload = ChatRequest{
		Model: cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature: cfg.Temperature,
		Stream:      cfg.Stream,
	}

	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req.Body = body
	return req, nil
}
