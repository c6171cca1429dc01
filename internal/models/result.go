package models

import "fmt"

type PlacementHint string

const (
	PlacementHero       PlacementHint = "hero"
	PlacementHowItWorks PlacementHint = "how-it-works"
	PlacementFeature    PlacementHint = "feature"
	PlacementSidebar    PlacementHint = "sidebar"
	PlacementCTANear    PlacementHint = "cta-near"
	PlacementGallery    PlacementHint = "gallery"
)

// PlacementHints lists every accepted placement hint in display order.
var PlacementHints = []PlacementHint{
	PlacementHero,
	PlacementHowItWorks,
	PlacementFeature,
	PlacementSidebar,
	PlacementCTANear,
	PlacementGallery,
}

func (p PlacementHint) Valid() bool {
	for _, h := range PlacementHints {
		if p == h {
			return true
		}
	}
	return false
}

const (
	MaxKeywordsUsed = 2
	MaxTags         = 10
)

// Result is the SEO metadata generated for one image.
type Result struct {
	Alt           string        `json:"alt"`
	KeywordsUsed  []string      `json:"keywords_used"`
	Tags          []string      `json:"tags"`
	PlacementHint PlacementHint `json:"placement_hint"`
}

// Validate checks the result against the response schema. Alt length is not
// checked here; it is enforced afterwards by truncation.
func (r *Result) Validate() []string {
	var problems []string
	if r.KeywordsUsed == nil {
		problems = append(problems, "keywords_used: required")
	} else if len(r.KeywordsUsed) > MaxKeywordsUsed {
		problems = append(problems, fmt.Sprintf("keywords_used: must contain at most %d items", MaxKeywordsUsed))
	}
	if r.Tags == nil {
		problems = append(problems, "tags: required")
	} else if len(r.Tags) > MaxTags {
		problems = append(problems, fmt.Sprintf("tags: must contain at most %d items", MaxTags))
	}
	if !r.PlacementHint.Valid() {
		problems = append(problems, fmt.Sprintf("placement_hint: %q is not one of the allowed values", r.PlacementHint))
	}
	return problems
}
