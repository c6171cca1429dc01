// Package uploadlimits holds the upload budgets shared by the API server and
// its clients, together with the helpers that enforce them.
package uploadlimits

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultMaxUploadMB = 10
	DefaultMaxFileMB   = 2
	DefaultMaxFiles    = 10
)

var ErrPayloadTooLarge = errors.New("payload too large")

// Limits bounds one batch of images.
type Limits struct {
	MaxFiles      int
	MaxFileBytes  int64
	MaxTotalBytes int64
}

var DefaultLimits = Limits{
	MaxFiles:      DefaultMaxFiles,
	MaxFileBytes:  ToBytes(DefaultMaxFileMB),
	MaxTotalBytes: ToBytes(DefaultMaxUploadMB),
}

// ToBytes converts megabytes to bytes, rounding to the nearest byte.
func ToBytes(megabytes float64) int64 {
	return int64(math.Round(megabytes * 1024 * 1024))
}

// PayloadTooLargeHint is shown to callers whose batch exceeds the budget.
func PayloadTooLargeHint(maxUploadMB float64) string {
	return fmt.Sprintf("Try smaller files or fewer images (max %s MB total)", formatMB(maxUploadMB))
}

func formatMB(mb float64) string {
	if mb == math.Trunc(mb) {
		return fmt.Sprintf("%d", int64(mb))
	}
	return fmt.Sprintf("%g", mb)
}

type PayloadTooLargeError struct {
	Filename string
	Bytes    int64
	Limit    int64
	Hint     string
}

func (e *PayloadTooLargeError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s: %d bytes exceeds per-file limit of %d bytes", e.Filename, e.Bytes, e.Limit)
	}
	return fmt.Sprintf("batch of %d bytes exceeds total limit of %d bytes", e.Bytes, e.Limit)
}

func (e *PayloadTooLargeError) Unwrap() error {
	return ErrPayloadTooLarge
}
