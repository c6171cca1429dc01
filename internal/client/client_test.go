package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() models.GenerateRequest {
	return models.GenerateRequest{
		Images: []models.ImagePayload{{DataURL: "data:image/png;base64,AAAA", Filename: "a.png", SHA256: "a"}},
		Lang:   models.LanguageEN,
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.GenerateRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.Len(t, req.Images, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		json.NewEncoder(w).Encode(models.BatchResponse{
			GeneratedAt: "2026-10-15T00:30:00.000Z",
			Lang:        req.Lang,
			Items: []models.BatchItem{{
				Filename: req.Images[0].Filename,
				SHA256:   req.Images[0].SHA256,
				Result:   models.Result{Alt: "a cat", PlacementHint: models.PlacementHero},
			}},
		})
	}))
	defer srv.Close()

	resp, err := New(srv.URL+"/", nil).Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "a cat", resp.Items[0].Result.Alt)
}

func TestGenerate_APIErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantMessage  string
		wantHint     string
		wantRejected bool
	}{
		{
			name:         "payload too large",
			status:       http.StatusRequestEntityTooLarge,
			body:         `{"error":"payload_too_large","hint":"Try smaller files or fewer images (max 10 MB total)"}`,
			wantMessage:  "payload_too_large",
			wantHint:     "Try smaller files or fewer images (max 10 MB total)",
			wantRejected: true,
		},
		{
			name:         "validation",
			status:       http.StatusBadRequest,
			body:         `{"error":"Validation error","details":[{"field":"lang","message":"is required"}]}`,
			wantMessage:  "Validation error",
			wantRejected: true,
		},
		{
			name:        "processing failed",
			status:      http.StatusInternalServerError,
			body:        `{"error":"Processing failed","message":"model quota exhausted"}`,
			wantMessage: "model quota exhausted",
		},
		{
			name:        "not json",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			wantMessage: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, nil).Generate(context.Background(), sampleRequest())

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantHint, apiErr.Hint)
			assert.Equal(t, tt.wantRejected, apiErr.RequestRejected())
		})
	}
}

func TestGenerate_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := New(srv.URL, nil).Generate(context.Background(), sampleRequest())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestJobs(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/jobs":
			w.WriteHeader(http.StatusAccepted)
			w.Write([]byte(`{"success":true,"data":{"job_id":"job-1","status":"queued"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/jobs/job-1":
			status := models.StatusProcessing
			if atomic.AddInt32(&polls, 1) >= 3 {
				status = models.StatusCompleted
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    models.JobStatus{ID: "job-1", Status: status},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil)

	id, err := c.SubmitJob(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)

	job, err := c.WaitForJob(context.Background(), id, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, job.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestWaitForJob_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"id":"job-1","status":"processing"}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL, nil).WaitForJob(ctx, "job-1", 10*time.Millisecond)
	assert.Error(t, err)
}
