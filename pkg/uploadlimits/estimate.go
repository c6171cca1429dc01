package uploadlimits

import "strings"

// EstimateBase64Bytes returns the decoded size of a base64 string or data URL
// without decoding it. Anything up to the first comma is treated as a prefix.
func EstimateBase64Bytes(encoded string) int64 {
	if i := strings.IndexByte(encoded, ','); i >= 0 {
		encoded = encoded[i+1:]
	}
	encoded = strings.TrimSpace(encoded)

	length := int64(len(encoded))
	if length == 0 {
		return 0
	}

	var padding int64
	switch {
	case strings.HasSuffix(encoded, "=="):
		padding = 2
	case strings.HasSuffix(encoded, "="):
		padding = 1
	}

	estimate := length*3/4 - padding
	if estimate < 0 {
		return 0
	}
	return estimate
}

// EncodedFile is a named base64 payload awaiting a budget check.
type EncodedFile struct {
	Name string
	Data string
}

// CheckEncoded estimates every payload and fails with a PayloadTooLargeError
// when a single file or the batch total exceeds the limits.
func (l Limits) CheckEncoded(files []EncodedFile, hint string) error {
	var total int64
	for _, f := range files {
		size := EstimateBase64Bytes(f.Data)
		if size > l.MaxFileBytes {
			return &PayloadTooLargeError{Filename: f.Name, Bytes: size, Limit: l.MaxFileBytes, Hint: hint}
		}
		total += size
	}
	if total > l.MaxTotalBytes {
		return &PayloadTooLargeError{Bytes: total, Limit: l.MaxTotalBytes, Hint: hint}
	}
	return nil
}
