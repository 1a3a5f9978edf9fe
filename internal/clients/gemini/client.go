// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/akakabu/akakabu-server/internal/common"
	"github.com/akakabu/akakabu-server/internal/interfaces"
	"github.com/akakabu/akakabu-server/internal/models"
)

const DefaultModel = "gemini-3-flash-preview"

// Client implements the GeminiClient interface
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GenerateContent generates AI content from a prompt
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("model", c.model).Msg("Generating content")

	contents := genai.Text(prompt)
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(result)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// SummarizeStock generates a short commentary for a stock summary
func (c *Client) SummarizeStock(ctx context.Context, summary *models.StockSummary) (string, error) {
	prompt := buildStockSummaryPrompt(summary)
	return c.GenerateContent(ctx, prompt)
}

// buildStockSummaryPrompt creates a prompt for stock commentary
func buildStockSummaryPrompt(summary *models.StockSummary) string {
	prompt := fmt.Sprintf(`Provide a short commentary (3-4 sentences) on the following Japanese listed company for a retail investor:

Company: %s (code %s)
Sector: %s
Market: %s
`, summary.CompanyName, summary.Code, summary.Sector, summary.Market)

	if summary.Close != nil {
		prompt += fmt.Sprintf("Closing price: %.1f JPY (as of %s)\n", *summary.Close, summary.Date)
	}
	if summary.Dividend != nil {
		prompt += fmt.Sprintf("Dividend per share: %.1f JPY\n", *summary.Dividend)
	}

	prompt += "\nStick to the figures given. Do not give buy or sell advice."

	return prompt
}

// Ensure Client implements GeminiClient
var _ interfaces.GeminiClient = (*Client)(nil)
