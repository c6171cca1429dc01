package orchestrator

import (
	"time"

	"github.com/phambaophuc/visionprep/internal/models"
)

// isoMillis matches the millisecond ISO-8601 form used by browsers.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// BuildResponse converts outcomes into the API batch response. Failed items
// are left out of Items and reported under Failures.
func BuildResponse(lang models.Language, outcomes []Outcome, generatedAt time.Time) models.BatchResponse {
	resp := models.BatchResponse{
		GeneratedAt: generatedAt.UTC().Format(isoMillis),
		Lang:        lang,
		Items:       make([]models.BatchItem, 0, len(outcomes)),
	}

	for _, out := range outcomes {
		if out.Err != nil || out.Result == nil {
			msg := "no result returned"
			if out.Err != nil {
				msg = out.Err.Error()
			}
			resp.Failures = append(resp.Failures, models.ItemFailure{
				Filename: out.Item.Filename,
				SHA256:   out.Item.SHA256,
				Error:    msg,
			})
			continue
		}

		resp.Items = append(resp.Items, models.BatchItem{
			Filename: out.Item.Filename,
			SHA256:   out.Item.SHA256,
			Metrics:  out.Item.Metrics,
			Result:   *out.Result,
		})
	}

	return resp
}
