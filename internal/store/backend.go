package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/phambaophuc/visionprep/internal/models"
)

type listeners struct {
	mu  sync.Mutex
	fns []func()
}

func (l *listeners) add(fn func()) {
	l.mu.Lock()
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

func (l *listeners) fire() {
	l.mu.Lock()
	fns := append([]func(){}, l.fns...)
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// MemoryBackend keeps the log in process memory. Sharing one MemoryBackend
// between several stores lets each observe the others' writes.
type MemoryBackend struct {
	mu        sync.RWMutex
	data      []byte
	listeners listeners
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Load() ([]models.HistoryEntry, error) {
	m.mu.RLock()
	data := m.data
	m.mu.RUnlock()

	return decodeEntries(data)
}

func (m *MemoryBackend) Save(entries []models.HistoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.data = data
	m.mu.Unlock()

	m.listeners.fire()
	return nil
}

func (m *MemoryBackend) OnChange(fn func()) {
	m.listeners.add(fn)
}

// FileBackend stores the log as a JSON array in a single file.
type FileBackend struct {
	path      string
	mu        sync.Mutex
	listeners listeners
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// DefaultHistoryPath is the per-user history file.
func DefaultHistoryPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "visionprep", "history.json"), nil
}

func (f *FileBackend) Load() ([]models.HistoryEntry, error) {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		return []models.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return decodeEntries(data)
}

// Save writes to a temporary file and renames it over the log so readers
// never observe a partial write.
func (f *FileBackend) Save(entries []models.HistoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	f.mu.Lock()
	err = f.writeFile(data)
	f.mu.Unlock()
	if err != nil {
		return err
	}

	f.listeners.fire()
	return nil
}

func (f *FileBackend) writeFile(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileBackend) OnChange(fn func()) {
	f.listeners.add(fn)
}

func decodeEntries(data []byte) ([]models.HistoryEntry, error) {
	if len(data) == 0 {
		return []models.HistoryEntry{}, nil
	}
	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return entries, nil
}
