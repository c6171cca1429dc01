package client

import (
	"fmt"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/pkg/utils"
)

// MetadataExtractor reads pixel dimensions from image bytes.
type MetadataExtractor interface {
	ExtractMetadata(data []byte) (models.ImageMetrics, error)
}

// PreparedImage is a local file ready to be added to a batch.
type PreparedImage struct {
	Descriptor models.ImageDescriptor
	DataURL    string
}

// Prepare fingerprints data, extracts its metrics and encodes it as a data
// URL. Files that are not images fail with the extractor's error.
func Prepare(extractor MetadataExtractor, filename string, data []byte) (PreparedImage, error) {
	contentType := utils.DetectContentType(data)
	if !utils.IsValidImageType(contentType) {
		return PreparedImage{}, fmt.Errorf("%s: unsupported file type %s", filename, contentType)
	}

	metrics, err := extractor.ExtractMetadata(data)
	if err != nil {
		return PreparedImage{}, fmt.Errorf("%s: %w", filename, err)
	}

	return PreparedImage{
		Descriptor: models.ImageDescriptor{
			Filename: filename,
			SHA256:   utils.Fingerprint(data),
			Metrics:  metrics,
		},
		DataURL: utils.ToDataURL(contentType, data),
	}, nil
}
