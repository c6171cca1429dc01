package models

import "time"

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// GenerationJob is an asynchronous batch submitted through the queue.
type GenerationJob struct {
	ID        string          `json:"id"`
	Request   GenerateRequest `json:"request"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Result    *BatchResponse  `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// JobStatus is what pollers see of a job. The submitted images stay on the
// server.
type JobStatus struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Result    *BatchResponse `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func (j *GenerationJob) StatusView() JobStatus {
	return JobStatus{
		ID:        j.ID,
		Status:    j.Status,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
		Result:    j.Result,
		Error:     j.Error,
	}
}
