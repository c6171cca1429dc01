package ai

import (
	"context"

	"google.golang.org/genai"
)

type mockGenerator struct {
	GenerateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

	calls       int
	lastModel   string
	lastContent []*genai.Content
	lastConfig  *genai.GenerateContentConfig
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls++
	m.lastModel = model
	m.lastContent = contents
	m.lastConfig = config
	return m.GenerateContentFunc(ctx, model, contents, config)
}

type mockPreparer struct {
	PrepareFunc func(data []byte, contentType string) ([]byte, string, error)
}

func (m *mockPreparer) PrepareForModel(data []byte, contentType string) ([]byte, string, error) {
	return m.PrepareFunc(data, contentType)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}
