package utils

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DownloadImage fetches an image over HTTP, reading at most maxSize bytes.
func DownloadImage(ctx context.Context, imageURL string, maxSize int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	if len(imageData) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}

	contentType := DetectContentType(imageData)
	if !IsValidImageType(contentType) {
		return nil, "", fmt.Errorf("invalid content type: %s", contentType)
	}

	return imageData, contentType, nil
}

// DetectContentType sniffs the MIME type of data from its content.
func DetectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// IsValidImageType checks if content type is a valid image type
func IsValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/bmp",
		"image/tiff",
	}

	ct := strings.ToLower(contentType)
	for _, validType := range validTypes {
		if strings.Contains(ct, validType) {
			return true
		}
	}
	return false
}

// Fingerprint returns the lower-case hex SHA-256 digest of data.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ToDataURL encodes data as a base64 data URL.
func ToDataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL decodes a base64 data URL into its MIME type and bytes. A bare
// base64 string is accepted and its type sniffed from the content.
func ParseDataURL(dataURL string) (string, []byte, error) {
	contentType := ""
	payload := dataURL

	if strings.HasPrefix(dataURL, "data:") {
		comma := strings.IndexByte(dataURL, ',')
		if comma < 0 {
			return "", nil, fmt.Errorf("malformed data URL: missing comma")
		}
		meta := dataURL[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return "", nil, fmt.Errorf("malformed data URL: only base64 payloads are supported")
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		payload = dataURL[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, fmt.Errorf("malformed base64 payload: %w", err)
	}

	if contentType == "" {
		contentType = DetectContentType(data)
	}

	return contentType, data, nil
}

func GenerateStorageKey(prefix, filename string) string {
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	timestamp := time.Now().Unix()
	uuid := uuid.New().String()[:8]

	return fmt.Sprintf("%s/%s_%d_%s%s", prefix, name, timestamp, uuid, ext)
}
