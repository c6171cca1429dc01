package ai

import (
	"fmt"
	"strings"

	"github.com/phambaophuc/visionprep/internal/models"
)

const systemPrompt = "You generate SEO-friendly ALT text and layout hints from images. " +
	"Return STRICT JSON only that conforms to the given schema. " +
	"Avoid uncertain guesses (no private attributes). " +
	"Use user-provided keywords only when natural."

const strictSuffix = "\n\nIMPORTANT: Return ONLY valid JSON, no additional text."

func placementList() string {
	hints := make([]string, len(models.PlacementHints))
	for i, h := range models.PlacementHints {
		hints[i] = string(h)
	}
	return strings.Join(hints, ", ")
}

func buildUserPrompt(filename string, opts models.GenerationOptions, strict bool) string {
	maxChars := opts.Lang.AltBudget()

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this image (filename: %s) and generate:\n\n", filename)
	fmt.Fprintf(&b, "Language: %s\n", opts.Lang)
	if opts.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s.\n", opts.Tone)
	}
	if len(opts.Keywords) > 0 {
		fmt.Fprintf(&b, "SEO keywords (use 0-2 if they fit naturally): %s.\n", strings.Join(opts.Keywords, ", "))
	}

	fmt.Fprintf(&b, `
Return STRICT JSON with this structure:
{
  "alt": "SEO-friendly ALT text (max %d chars for %s)",
  "keywords_used": ["keyword1", "keyword2"],
  "tags": ["tag1", "tag2"],
  "placement_hint": "one of: %s"
}

placement_hint must be exactly one of: %s
keywords_used must contain 0-2 items from the provided keywords list ONLY when they fit naturally
tags must be up to %d descriptive content tags
alt must be concise and under %d characters`,
		maxChars, opts.Lang, placementList(), placementList(), models.MaxTags, maxChars)

	if strict {
		b.WriteString(strictSuffix)
	}
	return b.String()
}
