// Package gemini adapts Google's Gemini models to the llm.Client port.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/medlexica/regagent/llm"
)

// Config holds Gemini provider configuration.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// DefaultConfig returns the reasoning-model configuration.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-pro-latest",
		Temperature: 0.2,
	}
}

// FlashConfig returns the fast-model configuration used for
// classification, planning, and direct synthesis.
func FlashConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash-latest",
		Temperature: 0.2,
	}
}

// Provider implements llm.Client for Gemini.
type Provider struct {
	config *Config
	model  *genai.GenerativeModel
	client *genai.Client
}

// New creates a Gemini provider using the official SDK.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-pro-latest"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(config.Temperature)

	return &Provider{config: config, model: model, client: client}, nil
}

// Generate implements llm.Client.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: gemini returned no candidates", llm.ErrUnexpected)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// classify maps SDK errors onto the transient / unexpected taxonomy.
// Overload, rate limiting, and service unavailability are retryable.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
			return fmt.Errorf("%w: gemini status %d: %v", llm.ErrTransient, gerr.Code, err)
		}
		return fmt.Errorf("%w: gemini status %d: %v", llm.ErrUnexpected, gerr.Code, err)
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded:
			return fmt.Errorf("%w: gemini rpc %s: %v", llm.ErrTransient, st.Code(), err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: gemini call timed out: %v", llm.ErrTransient, err)
	}
	return fmt.Errorf("%w: %v", llm.ErrUnexpected, err)
}
