package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/phambaophuc/visionprep/internal/models"
)

const noResultMessage = "No result returned for this image"

// ProcessingImage is an image held in the session with its current state.
type ProcessingImage struct {
	ID         string
	Descriptor models.ImageDescriptor
	DataURL    string
	State      State
}

func (p ProcessingImage) Payload() models.ImagePayload {
	return models.ImagePayload{
		DataURL:  p.DataURL,
		Filename: p.Descriptor.Filename,
		SHA256:   p.Descriptor.SHA256,
		Metrics:  p.Descriptor.Metrics,
	}
}

// ResultStore is the in-memory session list of images.
type ResultStore struct {
	mu      sync.RWMutex
	images  []*ProcessingImage
	pending map[string]State
	history *HistoryStore
}

// NewResultStore returns an empty store. history may be nil, in which case
// completed batches are not recorded.
func NewResultStore(history *HistoryStore) *ResultStore {
	return &ResultStore{
		pending: make(map[string]State),
		history: history,
	}
}

// Add queues an image. Images whose fingerprint is already present are
// rejected as duplicates.
func (s *ResultStore) Add(desc models.ImageDescriptor, dataURL string) (ProcessingImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, img := range s.images {
		if img.Descriptor.SHA256 == desc.SHA256 {
			return *img, false
		}
	}

	img := &ProcessingImage{
		ID:         uuid.New().String(),
		Descriptor: desc,
		DataURL:    dataURL,
		State:      Queued(),
	}
	s.images = append(s.images, img)
	return *img, true
}

func (s *ResultStore) Get(id string) (ProcessingImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img := s.find(id)
	if img == nil {
		return ProcessingImage{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *img, nil
}

// Images returns a snapshot of every image in insertion order.
func (s *ResultStore) Images() []ProcessingImage {
	return s.filter(func(ProcessingImage) bool { return true })
}

// Submittable returns images that a new batch should include: queued or failed.
func (s *ResultStore) Submittable() []ProcessingImage {
	return s.filter(func(img ProcessingImage) bool {
		st := img.State.Status()
		return st == StatusQueued || st == StatusFailed
	})
}

// CompletedImages returns images with a result, for regenerate-all and export.
func (s *ResultStore) CompletedImages() []ProcessingImage {
	return s.filter(func(img ProcessingImage) bool {
		return img.State.Status() == StatusCompleted
	})
}

func (s *ResultStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

// TotalBytes sums the raw size of every image held.
func (s *ResultStore) TotalBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, img := range s.images {
		total += img.Descriptor.Metrics.Bytes
	}
	return total
}

// BeginBatch moves the given images to processing, clearing any previous
// error, and returns their payloads for submission. Nothing changes if any
// id is unknown or cannot start processing.
func (s *ResultStore) BeginBatch(ids []string) ([]models.ImagePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make([]*ProcessingImage, 0, len(ids))
	for _, id := range ids {
		img := s.find(id)
		if img == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if !img.State.canMoveTo(StatusProcessing) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, img.State.Status(), StatusProcessing)
		}
		targets = append(targets, img)
	}

	payloads := make([]models.ImagePayload, 0, len(targets))
	for _, img := range targets {
		s.pending[img.ID] = img.State
		img.State = Processing()
		payloads = append(payloads, img.Payload())
	}
	return payloads, nil
}

// Regenerate restarts processing for a single failed or completed image.
func (s *ResultStore) Regenerate(id string) (models.ImagePayload, error) {
	payloads, err := s.BeginBatch([]string{id})
	if err != nil {
		return models.ImagePayload{}, err
	}
	return payloads[0], nil
}

// ApplyResponse settles a submitted batch. Returned items complete; every
// other submitted image fails with the server's message for it, if any.
// Completed images are recorded as one history entry.
func (s *ResultStore) ApplyResponse(ids []string, resp *models.BatchResponse) (*models.HistoryEntry, error) {
	results := make(map[string]models.Result, len(resp.Items))
	for _, item := range resp.Items {
		results[item.SHA256] = item.Result
	}
	failures := make(map[string]string, len(resp.Failures))
	for _, f := range resp.Failures {
		failures[f.SHA256] = f.Error
	}

	var completed []models.HistoryImage

	s.mu.Lock()
	for _, id := range ids {
		img := s.find(id)
		if img == nil || img.State.Status() != StatusProcessing {
			continue
		}
		delete(s.pending, id)

		if result, ok := results[img.Descriptor.SHA256]; ok {
			img.State, _ = img.State.transition(Completed(result))
			r := result
			completed = append(completed, models.HistoryImage{
				Filename: img.Descriptor.Filename,
				SHA256:   img.Descriptor.SHA256,
				Metrics:  img.Descriptor.Metrics,
				Result:   &r,
			})
			continue
		}

		msg := failures[img.Descriptor.SHA256]
		if msg == "" {
			msg = noResultMessage
		}
		img.State, _ = img.State.transition(Failed(msg))
	}
	s.mu.Unlock()

	if s.history == nil || len(completed) == 0 {
		return nil, nil
	}
	return s.history.Save(completed, resp.Lang)
}

// FailBatch marks every processing image in ids failed, for transport errors.
func (s *ResultStore) FailBatch(ids []string, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		img := s.find(id)
		if img == nil || img.State.Status() != StatusProcessing {
			continue
		}
		delete(s.pending, id)
		img.State, _ = img.State.transition(Failed(message))
	}
}

// RevertBatch restores the state each image had before BeginBatch, for
// request-level rejections where nothing was processed.
func (s *ResultStore) RevertBatch(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		img := s.find(id)
		prev, ok := s.pending[id]
		if img == nil || !ok {
			continue
		}
		delete(s.pending, id)
		img.State = prev
	}
}

func (s *ResultStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, img := range s.images {
		if img.ID == id {
			s.images = append(s.images[:i], s.images[i+1:]...)
			delete(s.pending, id)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Clear drops every image from the session.
func (s *ResultStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = nil
	s.pending = make(map[string]State)
}

func (s *ResultStore) find(id string) *ProcessingImage {
	for _, img := range s.images {
		if img.ID == id {
			return img
		}
	}
	return nil
}

func (s *ResultStore) filter(keep func(ProcessingImage) bool) []ProcessingImage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProcessingImage, 0, len(s.images))
	for _, img := range s.images {
		if keep(*img) {
			out = append(out, *img)
		}
	}
	return out
}
