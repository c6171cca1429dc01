package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/pkg/utils"
	storage_go "github.com/supabase-community/storage-go"
)

// UploadExport stores an export artifact and returns its public URL.
func (s *StorageService) UploadExport(ctx context.Context, file models.ExportFile) (string, error) {
	if s.sbClient == nil {
		return "", ErrUploadsDisabled
	}

	key := utils.GenerateStorageKey("exports", file.Filename)
	contentType := file.ContentType

	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(file.Data), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}
