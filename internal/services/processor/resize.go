package processor

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// PrepareForModel shrinks oversized images to fit within the configured
// dimension and re-encodes them as JPEG. Images already within bounds are
// returned untouched.
func (p *ImageProcessor) PrepareForModel(data []byte, contentType string) ([]byte, string, error) {
	if p.maxDimension <= 0 {
		return data, contentType, nil
	}

	metrics, err := p.ExtractMetadata(data)
	if err != nil {
		return nil, "", err
	}
	if metrics.Width <= p.maxDimension && metrics.Height <= p.maxDimension {
		return data, contentType, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", &DecodeError{Err: err}
	}

	resized := imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)

	buffer := &bytes.Buffer{}
	if err := p.encodeJPEG(buffer, resized); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}

	return buffer.Bytes(), "image/jpeg", nil
}
