package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const validJSON = `{"alt":"A barista pouring latte art","keywords_used":["coffee"],"tags":["cafe","coffee"],"placement_hint":"feature"}`

func newTestDescriber(t *testing.T, gen *mockGenerator, prep ImagePreparer) *GeminiDescriber {
	t.Helper()
	d, err := NewGeminiDescriber(gen, prep, GeminiConfig{Model: "gemini-test", Temperature: 0.2, MaxOutputTokens: 1000})
	require.NoError(t, err)
	return d
}

func TestNewGeminiDescriber(t *testing.T) {
	_, err := NewGeminiDescriber(nil, nil, GeminiConfig{Model: "m"})
	assert.Error(t, err)

	_, err = NewGeminiDescriber(&mockGenerator{}, nil, GeminiConfig{})
	assert.Error(t, err)
}

func TestGeminiDescriber_Describe(t *testing.T) {
	image := []byte("fake-jpeg-bytes")
	req := Request{
		DataURL:  utils.ToDataURL("image/jpeg", image),
		Filename: "latte.jpg",
		Options: models.GenerationOptions{
			Lang:     models.LanguageEN,
			Tone:     models.ToneFriendly,
			Keywords: []string{"coffee", "barista"},
		},
	}

	t.Run("builds the request and returns the parsed result", func(t *testing.T) {
		gen := &mockGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse(validJSON), nil
			},
		}
		d := newTestDescriber(t, gen, nil)

		got, err := d.Describe(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, models.PlacementFeature, got.PlacementHint)

		assert.Equal(t, "gemini-test", gen.lastModel)
		require.Len(t, gen.lastContent, 1)
		parts := gen.lastContent[0].Parts
		require.Len(t, parts, 2)
		assert.Contains(t, parts[0].Text, "filename: latte.jpg")
		assert.Contains(t, parts[0].Text, "max 140 chars")
		assert.Contains(t, parts[0].Text, "Tone: friendly")
		assert.Contains(t, parts[0].Text, "coffee, barista")
		assert.NotContains(t, parts[0].Text, "IMPORTANT")
		require.NotNil(t, parts[1].InlineData)
		assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
		assert.Equal(t, image, parts[1].InlineData.Data)

		assert.Equal(t, "application/json", gen.lastConfig.ResponseMIMEType)
		require.NotNil(t, gen.lastConfig.SystemInstruction)
		assert.Contains(t, gen.lastConfig.SystemInstruction.Parts[0].Text, "private attributes")
		assert.Equal(t, int32(1000), gen.lastConfig.MaxOutputTokens)
	})

	t.Run("strict requests append the JSON-only reminder", func(t *testing.T) {
		gen := &mockGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse(validJSON), nil
			},
		}
		d := newTestDescriber(t, gen, nil)

		strict := req
		strict.Strict = true
		_, err := d.Describe(context.Background(), strict)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(gen.lastContent[0].Parts[0].Text, strictSuffix))
	})

	t.Run("transport failures are wrapped", func(t *testing.T) {
		boom := errors.New("connection reset")
		gen := &mockGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, boom
			},
		}
		d := newTestDescriber(t, gen, nil)

		_, err := d.Describe(context.Background(), req)

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty candidates are parse errors", func(t *testing.T) {
		gen := &mockGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return &genai.GenerateContentResponse{}, nil
			},
		}
		d := newTestDescriber(t, gen, nil)

		_, err := d.Describe(context.Background(), req)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("thought parts are ignored", func(t *testing.T) {
		gen := &mockGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return &genai.GenerateContentResponse{
					Candidates: []*genai.Candidate{{
						Content: &genai.Content{Parts: []*genai.Part{
							{Text: "thinking about the image", Thought: true},
							{Text: validJSON},
						}},
					}},
				}, nil
			},
		}
		d := newTestDescriber(t, gen, nil)

		got, err := d.Describe(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "A barista pouring latte art", got.Alt)
	})

	t.Run("malformed data URL never reaches the model", func(t *testing.T) {
		gen := &mockGenerator{}
		d := newTestDescriber(t, gen, nil)

		bad := req
		bad.DataURL = "data:image/png;base64,***"
		_, err := d.Describe(context.Background(), bad)

		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Equal(t, 0, gen.calls)
	})

	t.Run("preparer output is what gets uploaded", func(t *testing.T) {
		gen := &mockGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse(validJSON), nil
			},
		}
		prep := &mockPreparer{
			PrepareFunc: func(data []byte, contentType string) ([]byte, string, error) {
				return []byte("smaller"), "image/jpeg", nil
			},
		}
		d := newTestDescriber(t, gen, prep)

		_, err := d.Describe(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, []byte("smaller"), gen.lastContent[0].Parts[1].InlineData.Data)
	})
}

func TestBuildUserPrompt(t *testing.T) {
	ja := buildUserPrompt("photo.png", models.GenerationOptions{Lang: models.LanguageJA}, false)
	assert.Contains(t, ja, "max 120 chars for ja")
	assert.NotContains(t, ja, "Tone:")
	assert.NotContains(t, ja, "SEO keywords")
	for _, hint := range models.PlacementHints {
		assert.Contains(t, ja, string(hint))
	}
}
