package models

// HistoryImage is a completed image summary kept in the history log.
type HistoryImage struct {
	Filename string       `json:"filename"`
	SHA256   string       `json:"sha256"`
	Metrics  ImageMetrics `json:"metrics"`
	Result   *Result      `json:"result,omitempty"`
}

type HistoryEntry struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Lang      Language       `json:"lang"`
	Images    []HistoryImage `json:"images"`
}
