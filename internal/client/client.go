// Package client talks to the VisionPrep API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phambaophuc/visionprep/internal/models"
	"golang.org/x/time/rate"
)

const defaultTimeout = 5 * time.Minute

// FieldError is one entry of a 400 response's details.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
	Hint    string
	Details []FieldError
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	if len(e.Details) > 0 {
		parts := make([]string, len(e.Details))
		for i, d := range e.Details {
			parts[i] = strings.TrimPrefix(d.Field+" "+d.Message, " ")
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	return msg
}

// RequestRejected reports whether the whole request was refused before any
// image was processed.
func (e *APIError) RequestRejected() bool {
	return e.Status == http.StatusBadRequest || e.Status == http.StatusRequestEntityTooLarge
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the API at baseURL. A nil httpClient gets a
// client with a generous timeout, since batches wait on the model.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Generate submits a batch and waits for the results.
func (c *Client) Generate(ctx context.Context, req models.GenerateRequest) (*models.BatchResponse, error) {
	var resp models.BatchResponse
	if err := c.do(ctx, http.MethodPost, "/api/generate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitJob queues a batch and returns the job id.
func (c *Client) SubmitJob(ctx context.Context, req models.GenerateRequest) (string, error) {
	var envelope struct {
		Data struct {
			JobID string `json:"job_id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/jobs", req, &envelope); err != nil {
		return "", err
	}
	return envelope.Data.JobID, nil
}

func (c *Client) GetJob(ctx context.Context, id string) (*models.JobStatus, error) {
	var envelope struct {
		Data models.JobStatus `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+id, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// WaitForJob polls a job at most once per interval until it completes or
// fails.
func (c *Client) WaitForJob(ctx context.Context, id string, interval time.Duration) (*models.JobStatus, error) {
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		job, err := c.GetJob(ctx, id)
		if err != nil {
			return nil, err
		}
		switch job.Status {
		case models.StatusCompleted, models.StatusFailed:
			return job, nil
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) *APIError {
	var body struct {
		Error   string       `json:"error"`
		Message string       `json:"message"`
		Hint    string       `json:"hint"`
		Details []FieldError `json:"details"`
	}
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}

	switch {
	case body.Message != "":
		apiErr.Message = body.Message
	case body.Error != "":
		apiErr.Message = body.Error
	}
	apiErr.Hint = body.Hint
	apiErr.Details = body.Details
	return apiErr
}
