package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/phambaophuc/visionprep/internal/models"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeError reports bytes that could not be interpreted as an image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var ErrEmptyImage = errors.New("empty image data")

type ImageProcessor struct {
	maxDimension int
	quality      int
}

// NewImageProcessor returns a processor that downscales images whose longer
// side exceeds maxDimension before they are sent to the model. Zero disables
// downscaling.
func NewImageProcessor(maxDimension int) *ImageProcessor {
	return &ImageProcessor{
		maxDimension: maxDimension,
		quality:      85,
	}
}

// ExtractMetadata reads pixel dimensions from the image header.
func (p *ImageProcessor) ExtractMetadata(data []byte) (models.ImageMetrics, error) {
	if len(data) == 0 {
		return models.ImageMetrics{}, &DecodeError{Err: ErrEmptyImage}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.ImageMetrics{}, &DecodeError{Err: err}
	}

	return models.ImageMetrics{
		Width:  cfg.Width,
		Height: cfg.Height,
		Bytes:  int64(len(data)),
	}, nil
}
