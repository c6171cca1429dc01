package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phambaophuc/visionprep/internal/models"
)

// ParseResult decodes and validates raw model output, then enforces the alt
// budget for lang and the keyword and tag caps.
func ParseResult(raw string, lang models.Language) (*models.Result, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return nil, &ParseError{Raw: raw, Err: ErrEmptyResponse}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, &ParseError{Raw: raw, Err: err}
		}
		fields = nil
	}
	if fields == nil {
		return nil, &ValidationError{Problems: []string{"response: must be a JSON object"}}
	}

	result, problems := decodeResult(fields)
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	if problems := result.Validate(); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	Normalize(&result, lang.AltBudget())
	return &result, nil
}

// decodeResult reads each result field on its own so that a missing alt or a
// field of the wrong type is reported as a problem rather than a decode error.
func decodeResult(fields map[string]json.RawMessage) (models.Result, []string) {
	var result models.Result
	var problems []string

	decode := func(name, want string, dst any) bool {
		raw, ok := fields[name]
		if !ok || string(raw) == "null" {
			return false
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			problems = append(problems, fmt.Sprintf("%s: must be %s", name, want))
		}
		return true
	}

	if !decode("alt", "a string", &result.Alt) {
		problems = append(problems, "alt: required")
	}
	decode("keywords_used", "an array of strings", &result.KeywordsUsed)
	decode("tags", "an array of strings", &result.Tags)
	decode("placement_hint", "a string", &result.PlacementHint)

	return result, problems
}

// Normalize truncates the alt text and clips keyword and tag lists.
func Normalize(result *models.Result, maxChars int) {
	result.Alt = TruncateAlt(result.Alt, maxChars)
	if len(result.KeywordsUsed) > models.MaxKeywordsUsed {
		result.KeywordsUsed = result.KeywordsUsed[:models.MaxKeywordsUsed]
	}
	if len(result.Tags) > models.MaxTags {
		result.Tags = result.Tags[:models.MaxTags]
	}
}

// TruncateAlt shortens text to at most maxChars characters. It cuts at the
// last whitespace when one falls within the final 20% of the budget, and
// hard-cuts otherwise.
func TruncateAlt(text string, maxChars int) string {
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	runes := []rune(text)
	trimmed := runes[:maxChars]

	lastSpace := -1
	for i := len(trimmed) - 1; i >= 0; i-- {
		if unicode.IsSpace(trimmed[i]) {
			lastSpace = i
			break
		}
	}

	if float64(lastSpace) > float64(maxChars)*0.8 {
		return string(trimmed[:lastSpace])
	}
	return string(trimmed)
}

func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
