package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/pkg/utils"
	"google.golang.org/genai"
)

// ContentGenerator is the subset of the genai Models service used here.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ImagePreparer may shrink or re-encode an image before upload.
type ImagePreparer interface {
	PrepareForModel(data []byte, contentType string) ([]byte, string, error)
}

type GeminiConfig struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

type GeminiDescriber struct {
	client   ContentGenerator
	preparer ImagePreparer
	cfg      GeminiConfig
}

// NewGeminiClient connects to the Gemini API with an API key.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiDescriber builds a Describer backed by client. preparer is optional.
func NewGeminiDescriber(client ContentGenerator, preparer ImagePreparer, cfg GeminiConfig) (*GeminiDescriber, error) {
	if client == nil {
		return nil, errors.New("client (ContentGenerator) is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("model name is required")
	}
	return &GeminiDescriber{
		client:   client,
		preparer: preparer,
		cfg:      cfg,
	}, nil
}

func (g *GeminiDescriber) Describe(ctx context.Context, req Request) (*models.Result, error) {
	contentType, data, err := utils.ParseDataURL(req.DataURL)
	if err != nil {
		return nil, &ValidationError{Problems: []string{"dataUrl: " + err.Error()}}
	}

	if g.preparer != nil {
		data, contentType, err = g.preparer.PrepareForModel(data, contentType)
		if err != nil {
			return nil, &ValidationError{Problems: []string{"dataUrl: " + err.Error()}}
		}
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: buildUserPrompt(req.Filename, req.Options, req.Strict)},
			{InlineData: &genai.Blob{MIMEType: contentType, Data: data}},
		},
	}}

	resp, err := g.client.GenerateContent(ctx, g.cfg.Model, contents, g.generateConfig())
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	return ParseResult(text, req.Options.Lang)
}

func (g *GeminiDescriber) generateConfig() *genai.GenerateContentConfig {
	temperature := g.cfg.Temperature
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		Temperature:      &temperature,
		MaxOutputTokens:  g.cfg.MaxOutputTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema:   resultSchema(),
	}
}

func resultSchema() *genai.Schema {
	maxKeywords := int64(models.MaxKeywordsUsed)
	maxTags := int64(models.MaxTags)

	hints := make([]string, len(models.PlacementHints))
	for i, h := range models.PlacementHints {
		hints[i] = string(h)
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"alt": {Type: genai.TypeString},
			"keywords_used": {
				Type:     genai.TypeArray,
				Items:    &genai.Schema{Type: genai.TypeString},
				MaxItems: &maxKeywords,
			},
			"tags": {
				Type:     genai.TypeArray,
				Items:    &genai.Schema{Type: genai.TypeString},
				MaxItems: &maxTags,
			},
			"placement_hint": {Type: genai.TypeString, Enum: hints},
		},
		Required: []string{"alt", "keywords_used", "tags", "placement_hint"},
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		if candidate.FinishReason != "" {
			return "", fmt.Errorf("%w (finish reason %s)", ErrEmptyResponse, candidate.FinishReason)
		}
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
