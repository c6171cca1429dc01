package models

type Language string

const (
	LanguageJA Language = "ja"
	LanguageEN Language = "en"
)

// AltBudget returns the maximum alt text length, in characters, for the language.
func (l Language) AltBudget() int {
	if l == LanguageJA {
		return 120
	}
	return 140
}

type Tone string

const (
	ToneNeutral      Tone = "neutral"
	ToneFriendly     Tone = "friendly"
	ToneProfessional Tone = "professional"
)

// GenerationOptions are shared by every image in a batch.
type GenerationOptions struct {
	Lang     Language `json:"lang"`
	Tone     Tone     `json:"tone,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}
