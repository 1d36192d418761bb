// Package gemini implements the statement pipeline's completion service on
// top of the Gemini API.
package gemini

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/genai"

	"github.com/mlipovsky/homebudget/internal/statement"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Client talks to the Gemini API in strict-JSON mode.
type Client struct {
	apiKey string
	model  string
}

// New creates a completion client. A missing API key is a configuration
// error surfaced immediately, not something the pipeline should retry.
func New(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, statement.ErrMissingCredential
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{apiKey: apiKey, model: model}, nil
}

// candidateSchema constrains the model to a JSON array of transaction
// objects. A response outside this shape fails JSON decoding downstream and
// is retried there.
var candidateSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":        {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"amount":      {Type: genai.TypeNumber},
			"category":    {Type: genai.TypeString},
		},
		Required: []string{"date", "description", "amount", "category"},
	},
}

// CompleteText sends statement text for extraction.
func (c *Client) CompleteText(ctx context.Context, system, user string) (string, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: user}}},
	}
	return c.generate(ctx, system, contents, nil)
}

// CompleteVision sends statement page images for extraction.
func (c *Client) CompleteVision(ctx context.Context, system string, images []statement.EncodedImage) (string, error) {
	parts := []*genai.Part{{Text: visionInstruction}}
	for _, img := range images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return "", fmt.Errorf("CompleteVision: decoding image payload: %w", err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: data},
		})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	res := genai.MediaResolutionHigh
	return c.generate(ctx, system, contents, &res)
}

const visionInstruction = "Extract every visible transaction row from the attached statement image(s), " +
	"including partially legible ones. Do not skip rows because they are ambiguous."

func (c *Client) generate(ctx context.Context, system string, contents []*genai.Content, resolution *genai.MediaResolution) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("generate: create genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    candidateSchema,
	}
	if resolution != nil {
		config.MediaResolution = *resolution
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate: generate content: %w", err)
	}

	return resp.Text(), nil
}
