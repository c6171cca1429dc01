// Package export renders completed results as CSV or JSON artifacts.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phambaophuc/visionprep/internal/models"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"

	dateLayout = "2006-01-02"
	isoMillis  = "2006-01-02T15:04:05.000Z07:00"
)

var csvHeader = []string{
	"filename", "lang", "alt", "keywords_used", "tags",
	"placement_hint", "width", "height", "bytes", "sha256",
}

// Document is the JSON export: the batch response shape plus the export time.
type Document struct {
	ExportedAt  string               `json:"exported_at"`
	GeneratedAt string               `json:"generated_at,omitempty"`
	Lang        models.Language      `json:"lang"`
	Items       []models.BatchItem   `json:"items"`
	Failures    []models.ItemFailure `json:"failures,omitempty"`
}

func CSVFilename(t time.Time) string {
	return fmt.Sprintf("image-analysis-%s.csv", t.Format(dateLayout))
}

func JSONFilename(t time.Time) string {
	return fmt.Sprintf("image-analysis-%s.json", t.Format(dateLayout))
}

// CSV renders one row per item. Every value is quoted and embedded quotes
// are doubled.
func CSV(resp models.BatchResponse) []byte {
	var buf bytes.Buffer
	writeRow(&buf, csvHeader)

	for _, item := range resp.Items {
		buf.WriteByte('\n')
		writeRow(&buf, []string{
			item.Filename,
			string(resp.Lang),
			item.Result.Alt,
			strings.Join(item.Result.KeywordsUsed, ","),
			strings.Join(item.Result.Tags, ","),
			string(item.Result.PlacementHint),
			strconv.Itoa(item.Metrics.Width),
			strconv.Itoa(item.Metrics.Height),
			strconv.FormatInt(item.Metrics.Bytes, 10),
			item.SHA256,
		})
	}
	return buf.Bytes()
}

func writeRow(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
}

// JSON renders the response with two-space indentation.
func JSON(resp models.BatchResponse, exportedAt time.Time) ([]byte, error) {
	items := resp.Items
	if items == nil {
		items = []models.BatchItem{}
	}
	doc := Document{
		ExportedAt:  exportedAt.UTC().Format(isoMillis),
		GeneratedAt: resp.GeneratedAt,
		Lang:        resp.Lang,
		Items:       items,
		Failures:    resp.Failures,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// Render produces the export artifact for format.
func Render(format string, resp models.BatchResponse, t time.Time) (models.ExportFile, error) {
	switch format {
	case FormatCSV:
		return models.ExportFile{
			Filename:    CSVFilename(t),
			ContentType: "text/csv; charset=utf-8",
			Data:        CSV(resp),
		}, nil
	case FormatJSON:
		data, err := JSON(resp, t)
		if err != nil {
			return models.ExportFile{}, err
		}
		return models.ExportFile{
			Filename:    JSONFilename(t),
			ContentType: "application/json",
			Data:        data,
		}, nil
	default:
		return models.ExportFile{}, fmt.Errorf("unsupported export format: %q", format)
	}
}

// FromHistory flattens history images into a response suitable for export.
func FromHistory(entry models.HistoryEntry) models.BatchResponse {
	resp := models.BatchResponse{
		GeneratedAt: entry.Timestamp,
		Lang:        entry.Lang,
		Items:       make([]models.BatchItem, 0, len(entry.Images)),
	}
	for _, img := range entry.Images {
		if img.Result == nil {
			continue
		}
		resp.Items = append(resp.Items, models.BatchItem{
			Filename: img.Filename,
			SHA256:   img.SHA256,
			Metrics:  img.Metrics,
			Result:   *img.Result,
		})
	}
	return resp
}
