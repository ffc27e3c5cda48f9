package oracle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
)

// Gemini implements Generator against the Gemini API, rotating through the
// supplied API keys on 429 / quota errors.
type Gemini struct {
	mu         sync.Mutex
	apiKeys    []string
	currentKey int
	model      string
	logger     logger.Logger
}

var _ Generator = (*Gemini)(nil)

// NewGemini creates a Gemini generator from config. At least one API key is
// required; key rotation has nothing to rotate through otherwise.
func NewGemini(cfg config.GeminiConfig, log logger.Logger) (*Gemini, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("gemini: at least one API key is required")
	}
	return &Gemini{
		apiKeys: cfg.APIKeys,
		model:   cfg.Model,
		logger:  log,
	}, nil
}

// Generate sends the prompt pair to Gemini and returns the generated text.
func (g *Gemini) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error) {
	if userPrompt == "" {
		return "", ErrEmptyInput
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: int32(maxTokens),
	}
	if systemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	attempts := len(g.apiKeys)
	var lastErr error

	for range attempts {
		key := g.nextKey(false)

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			g.nextKey(true)
			continue
		}

		result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), genCfg)
		if err != nil {
			errMsg := err.Error()
			if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "RESOURCE_EXHAUSTED") {
				g.logger.Warn(ctx, "Gemini key rate limited, rotating...")
				g.nextKey(true)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text string
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text += part.Text
				}
			}
			return text, nil
		}

		return "", fmt.Errorf("empty response from Gemini")
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

// nextKey returns the current key, advancing first when rotate is set.
func (g *Gemini) nextKey(rotate bool) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rotate {
		g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
	}
	return g.apiKeys[g.currentKey]
}
