package models

type GenerateRequest struct {
	Images   []ImagePayload `json:"images" binding:"required,min=1,dive"`
	Lang     Language       `json:"lang" binding:"required,oneof=en ja"`
	Tone     Tone           `json:"tone,omitempty" binding:"omitempty,oneof=neutral friendly professional"`
	Keywords []string       `json:"keywords,omitempty"`
}

func (r *GenerateRequest) Options() GenerationOptions {
	return GenerationOptions{
		Lang:     r.Lang,
		Tone:     r.Tone,
		Keywords: r.Keywords,
	}
}

type BatchItem struct {
	Filename string       `json:"filename"`
	SHA256   string       `json:"sha256"`
	Metrics  ImageMetrics `json:"metrics"`
	Result   Result       `json:"result"`
}

// ItemFailure reports an image whose retries were exhausted.
type ItemFailure struct {
	Filename string `json:"filename"`
	SHA256   string `json:"sha256"`
	Error    string `json:"error"`
}

type BatchResponse struct {
	GeneratedAt string        `json:"generated_at"`
	Lang        Language      `json:"lang"`
	Items       []BatchItem   `json:"items"`
	Failures    []ItemFailure `json:"failures,omitempty"`
}
