package models

// ImageMetrics describes the pixel dimensions and raw size of an uploaded image.
type ImageMetrics struct {
	Width  int   `json:"width" binding:"min=0"`
	Height int   `json:"height" binding:"min=0"`
	Bytes  int64 `json:"bytes" binding:"min=0"`
}

// ImageDescriptor identifies an image by the SHA-256 of its bytes.
type ImageDescriptor struct {
	Filename string       `json:"filename"`
	SHA256   string       `json:"sha256"`
	Metrics  ImageMetrics `json:"metrics"`
}

// ImagePayload is a descriptor together with its data URL, as submitted to the API.
type ImagePayload struct {
	DataURL  string       `json:"dataUrl" binding:"required"`
	Filename string       `json:"filename" binding:"required"`
	SHA256   string       `json:"sha256" binding:"required"`
	Metrics  ImageMetrics `json:"metrics"`
}
