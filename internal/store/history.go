package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/visionprep/internal/models"
	"go.uber.org/zap"
)

const MaxHistoryEntries = 50

// Backend persists the history log as a single record.
type Backend interface {
	Load() ([]models.HistoryEntry, error)
	Save(entries []models.HistoryEntry) error
	// OnChange registers fn to run after every successful Save, whichever
	// store performed it.
	OnChange(fn func())
}

// HistoryStore is the bounded, newest-first log of completed batches.
type HistoryStore struct {
	// writeMu serialises read-modify-write cycles; mu guards observers.
	writeMu   sync.Mutex
	mu        sync.Mutex
	backend   Backend
	logger    *zap.Logger
	observers map[int]func([]models.HistoryEntry)
	nextID    int
	now       func() time.Time
}

func NewHistoryStore(backend Backend, logger *zap.Logger) *HistoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &HistoryStore{
		backend:   backend,
		logger:    logger,
		observers: make(map[int]func([]models.HistoryEntry)),
		now:       time.Now,
	}
	backend.OnChange(h.notify)
	return h
}

// Entries returns the log, newest first. A log that cannot be read is
// reported as empty.
func (h *HistoryStore) Entries() []models.HistoryEntry {
	entries, err := h.backend.Load()
	if err != nil {
		h.logger.Error("Failed to load history", zap.Error(err))
		return []models.HistoryEntry{}
	}
	if entries == nil {
		return []models.HistoryEntry{}
	}
	return entries
}

// Save records the images that have a result as a new entry at the head of
// the log. Nothing is written when no image has a result.
func (h *HistoryStore) Save(images []models.HistoryImage, lang models.Language) (*models.HistoryEntry, error) {
	entry := models.HistoryEntry{
		ID:        fmt.Sprintf("%d-%s", h.now().UnixMilli(), uuid.New().String()[:8]),
		Timestamp: h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Lang:      lang,
	}
	for _, img := range images {
		if img.Result != nil {
			entry.Images = append(entry.Images, img)
		}
	}
	if len(entry.Images) == 0 {
		return nil, nil
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	entries := append([]models.HistoryEntry{entry}, h.Entries()...)
	if len(entries) > MaxHistoryEntries {
		entries = entries[:MaxHistoryEntries]
	}

	if err := h.backend.Save(entries); err != nil {
		return nil, fmt.Errorf("failed to save history: %w", err)
	}
	return &entry, nil
}

// Delete removes the entry with id. Unknown ids are not an error.
func (h *HistoryStore) Delete(id string) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	current := h.Entries()
	kept := make([]models.HistoryEntry, 0, len(current))
	for _, e := range current {
		if e.ID != id {
			kept = append(kept, e)
		}
	}

	if err := h.backend.Save(kept); err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return nil
}

func (h *HistoryStore) Clear() error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if err := h.backend.Save([]models.HistoryEntry{}); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// ProcessedFingerprints returns every fingerprint present in the log.
func (h *HistoryStore) ProcessedFingerprints() map[string]struct{} {
	set := make(map[string]struct{})
	for _, entry := range h.Entries() {
		for _, img := range entry.Images {
			set[img.SHA256] = struct{}{}
		}
	}
	return set
}

// Subscribe registers fn to receive the log after every change and returns a
// function that unregisters it.
func (h *HistoryStore) Subscribe(fn func([]models.HistoryEntry)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.observers[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.observers, id)
		h.mu.Unlock()
	}
}

func (h *HistoryStore) notify() {
	entries := h.Entries()

	h.mu.Lock()
	fns := make([]func([]models.HistoryEntry), 0, len(h.observers))
	for _, fn := range h.observers {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(entries)
	}
}
