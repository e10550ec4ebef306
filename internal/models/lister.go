package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/quicktrans/internal/config"
	"codeberg.org/snonux/quicktrans/internal/translation"
)

// nonChat marks model ids that cannot serve chat completions
var nonChat = []string{"tts", "audio", "dall-e", "whisper", "embedding", "moderation", "image", "transcribe"}

// Lister lists models of an OpenAI-compatible endpoint
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a lister for the endpoint and key in cfg
func NewLister(cfg config.Config) *Lister {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = translation.APIBase(cfg.APIURL)
	return &Lister{
		apiKey: cfg.APIKey,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// ChatModels returns the sorted ids of the endpoint's chat models
func (l *Lister) ChatModels(ctx context.Context) ([]string, error) {
	if l.apiKey == "" {
		return nil, translation.ErrMissingCredential
	}

	list, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var chat []string
	for _, model := range list.Models {
		if isChatModel(model.ID) {
			chat = append(chat, model.ID)
		}
	}
	sort.Strings(chat)
	return chat, nil
}

func isChatModel(id string) bool {
	lower := strings.ToLower(id)
	for _, marker := range nonChat {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// Print writes models to w, one per line, marking current with '*'
func Print(w io.Writer, models []string, current string) {
	if len(models) == 0 {
		fmt.Fprintln(w, "  No chat models found")
		return
	}
	for _, model := range models {
		marker := " "
		if model == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, model)
	}
}
