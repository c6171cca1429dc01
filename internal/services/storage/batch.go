package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/phambaophuc/visionprep/internal/models"
)

// UploadExports uploads every file concurrently and returns URLs keyed by
// filename. Successful uploads are returned even when some fail.
func (s *StorageService) UploadExports(ctx context.Context, files []models.ExportFile) (map[string]string, error) {
	if len(files) == 0 {
		return map[string]string{}, nil
	}
	if s.sbClient == nil {
		return nil, ErrUploadsDisabled
	}

	urls := make([]string, len(files))
	errors := make([]error, len(files))

	numWorkers := 5
	if len(files) < numWorkers {
		numWorkers = len(files)
	}

	jobs := make(chan int, len(files))
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				urls[i], errors[i] = s.UploadExport(ctx, files[i])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	var failedUploads []string
	result := make(map[string]string, len(files))

	for i, err := range errors {
		if err != nil {
			failedUploads = append(failedUploads, fmt.Sprintf("%s: %v", files[i].Filename, err))
		} else {
			result[files[i].Filename] = urls[i]
		}
	}

	if len(failedUploads) > 0 {
		return result, fmt.Errorf("failed to upload %d files: %s",
			len(failedUploads), strings.Join(failedUploads, "; "))
	}

	return result, nil
}
