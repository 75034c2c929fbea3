// Package vision analyzes furniture photos with Gemini.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/reloved/marketplace/internal/domain"
)

// Analyzer produces a structured listing analysis from one photo.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imageData []byte, format string) (*domain.ImageAnalysis, error)
}

// Client is the Gemini-backed Analyzer.
type Client struct {
	model *genai.GenerativeModel
}

// Ensure Client implements Analyzer.
var _ Analyzer = (*Client)(nil)

// NewClient creates a Gemini vision client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	model := client.GenerativeModel("gemini-2.0-flash-001")
	model.ResponseMIMEType = "application/json"
	return &Client{model: model}, nil
}

const analysisPrompt = `
Analyze this furniture image and provide detailed information in JSON format. Be as specific and accurate as possible.

Return a JSON object with these exact fields:
{
  "furniture_type": "specific type (e.g., sectional sofa, dining chair, coffee table)",
  "category": "general category (couch, dining_table, bookshelf, chair, dresser, other)",
  "brand": "brand name if recognizable, otherwise 'Unknown'",
  "style": "design style (e.g., modern, mid-century, traditional, industrial)",
  "material": "primary materials (e.g., leather, fabric, wood, metal)",
  "color": "primary color description",
  "condition_score": 7,
  "condition_notes": "specific observations about wear, damage, or condition",
  "estimated_dimensions": "approximate size description (e.g., '3-seat sofa, ~84 inches wide')",
  "key_features": ["list", "of", "notable", "features"],
  "estimated_original_price": "estimated original retail price range (e.g., '$800-1200')",
  "current_market_value": "current used market value estimate (e.g., '$300-500')",
  "pricing_factors": ["factors", "affecting", "current", "value"],
  "suggested_title": "compelling listing title",
  "suggested_description": "detailed listing description highlighting key selling points"
}

condition_score is an integer from 1-10 based on visible condition. Focus on
furniture identification, condition assessment, and realistic market pricing
based on what you can observe.
`

// AnalyzeImage sends the photo to Gemini and parses the structured result.
func (c *Client) AnalyzeImage(ctx context.Context, imageData []byte, format string) (*domain.ImageAnalysis, error) {
	resp, err := c.model.GenerateContent(ctx,
		genai.ImageData(format, imageData),
		genai.Text(analysisPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from vision model")
	}

	part := resp.Candidates[0].Content.Parts[0]
	txt, ok := part.(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response part type %T", part)
	}

	return ParseAnalysis(string(txt))
}

// ParseAnalysis extracts the JSON object from the model output. Models
// occasionally wrap JSON in prose or code fences despite the MIME hint.
func ParseAnalysis(raw string) (*domain.ImageAnalysis, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in vision response")
	}

	var analysis domain.ImageAnalysis
	if err := json.Unmarshal([]byte(raw[start:end+1]), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse vision response: %w", err)
	}
	return &analysis, nil
}
