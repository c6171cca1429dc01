package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/phambaophuc/visionprep/internal/client"
	"github.com/phambaophuc/visionprep/internal/export"
	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/internal/services/processor"
	"github.com/phambaophuc/visionprep/internal/store"
	"github.com/phambaophuc/visionprep/pkg/uploadlimits"
	"github.com/phambaophuc/visionprep/pkg/utils"
	"go.uber.org/zap"
)

const jobPollInterval = 2 * time.Second

type candidate struct {
	name string
	data []byte
}

func (c candidate) Size() int64 { return int64(len(c.data)) }

type pipeline struct {
	api     *client.Client
	images  *store.ResultStore
	history *store.HistoryStore
	limits  uploadlimits.Limits
	logger  *zap.Logger
	async   bool
}

// load reads every source, applies the upload limits and queues the images
// that are new to this session and to history.
func (p *pipeline) load(ctx context.Context, sources []string, force bool) error {
	candidates := make([]candidate, 0, len(sources))
	for _, src := range sources {
		c, err := p.read(ctx, src)
		if err != nil {
			p.logger.Warn("Skipping unreadable source", zap.String("source", src), zap.Error(err))
			continue
		}
		candidates = append(candidates, c)
	}

	v := uploadlimits.Enforce(candidates, p.images.Count(), p.images.TotalBytes(), p.limits)
	for _, c := range v.Oversized {
		p.logger.Warn("Skipping oversized image",
			zap.String("file", c.name),
			zap.String("size", humanize.IBytes(uint64(c.Size()))),
			zap.String("limit", humanize.IBytes(uint64(p.limits.MaxFileBytes))))
	}
	if v.ExtraFilesIgnored {
		p.logger.Warn("Too many images, extra files ignored", zap.Int("max_files", p.limits.MaxFiles))
	}
	if v.TotalSizeExceeded {
		p.logger.Warn("Total size budget reached, remaining files ignored",
			zap.String("limit", humanize.IBytes(uint64(p.limits.MaxTotalBytes))))
	}

	var processed map[string]struct{}
	if !force {
		processed = p.history.ProcessedFingerprints()
	}

	extractor := processor.NewImageProcessor(0)
	for _, c := range v.Accepted {
		prepared, err := client.Prepare(extractor, c.name, c.data)
		if err != nil {
			p.logger.Warn("Skipping invalid image", zap.Error(err))
			continue
		}
		if _, seen := processed[prepared.Descriptor.SHA256]; seen {
			p.logger.Info("Skipping image already in history",
				zap.String("file", c.name),
				zap.String("sha256", prepared.Descriptor.SHA256))
			continue
		}
		if _, added := p.images.Add(prepared.Descriptor, prepared.DataURL); !added {
			p.logger.Info("Skipping duplicate image", zap.String("file", c.name))
		}
	}
	return nil
}

func (p *pipeline) read(ctx context.Context, src string) (candidate, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		// One byte over the cap is enough for enforcement to reject it.
		data, _, err := utils.DownloadImage(ctx, src, p.limits.MaxFileBytes+1)
		if err != nil {
			return candidate{}, err
		}
		name := filepath.Base(strings.SplitN(src, "?", 2)[0])
		return candidate{name: name, data: data}, nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return candidate{}, err
	}
	return candidate{name: filepath.Base(src), data: data}, nil
}

// submit sends one batch and settles every image in it.
func (p *pipeline) submit(ctx context.Context, batch []store.ProcessingImage, opts models.GenerationOptions) error {
	ids := make([]string, len(batch))
	for i, img := range batch {
		ids[i] = img.ID
	}

	payloads, err := p.images.BeginBatch(ids)
	if err != nil {
		return err
	}

	req := models.GenerateRequest{
		Images:   payloads,
		Lang:     opts.Lang,
		Tone:     opts.Tone,
		Keywords: opts.Keywords,
	}

	p.logger.Info("Submitting batch", zap.Int("images", len(payloads)), zap.String("lang", string(opts.Lang)))
	resp, err := p.send(ctx, req)

	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.RequestRejected():
		p.images.RevertBatch(ids)
		return fmt.Errorf("batch rejected: %w", apiErr)
	case err != nil:
		p.logger.Error("Batch failed", zap.Error(err))
		p.images.FailBatch(ids, err.Error())
		return nil
	}

	entry, err := p.images.ApplyResponse(ids, resp)
	if err != nil {
		p.logger.Warn("Failed to save history", zap.Error(err))
	} else if entry != nil {
		p.logger.Info("Saved to history", zap.String("id", entry.ID), zap.Int("images", len(entry.Images)))
	}
	return nil
}

func (p *pipeline) send(ctx context.Context, req models.GenerateRequest) (*models.BatchResponse, error) {
	if !p.async {
		return p.api.Generate(ctx, req)
	}

	jobID, err := p.api.SubmitJob(ctx, req)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Job queued", zap.String("job_id", jobID))

	job, err := p.api.WaitForJob(ctx, jobID, jobPollInterval)
	if err != nil {
		return nil, err
	}
	if job.Result != nil {
		return job.Result, nil
	}
	return nil, fmt.Errorf("job %s failed: %s", job.ID, job.Error)
}

func (p *pipeline) report() {
	for _, img := range p.images.Images() {
		fields := []zap.Field{
			zap.String("file", img.Descriptor.Filename),
			zap.String("size", humanize.IBytes(uint64(img.Descriptor.Metrics.Bytes))),
			zap.String("status", string(img.State.Status())),
		}
		if result, ok := img.State.Result(); ok {
			fields = append(fields,
				zap.String("alt", result.Alt),
				zap.String("placement", string(result.PlacementHint)),
				zap.Strings("tags", result.Tags))
		}
		if msg, ok := img.State.Error(); ok {
			fields = append(fields, zap.String("error", msg))
		}
		p.logger.Info("Image", fields...)
	}
}

// export writes the completed images of this session.
func (p *pipeline) export(dir, format string, lang models.Language) error {
	var formats []string
	switch format {
	case "none":
		return nil
	case "both":
		formats = []string{export.FormatCSV, export.FormatJSON}
	default:
		formats = []string{format}
	}

	completed := p.images.CompletedImages()
	if len(completed) == 0 {
		return nil
	}

	now := time.Now()
	resp := models.BatchResponse{
		GeneratedAt: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Lang:        lang,
		Items:       make([]models.BatchItem, 0, len(completed)),
	}
	for _, img := range completed {
		result, _ := img.State.Result()
		resp.Items = append(resp.Items, models.BatchItem{
			Filename: img.Descriptor.Filename,
			SHA256:   img.Descriptor.SHA256,
			Metrics:  img.Descriptor.Metrics,
			Result:   result,
		})
	}

	return writeExports(dir, formats, resp, now, p.logger)
}

func writeExports(dir string, formats []string, resp models.BatchResponse, now time.Time, logger *zap.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, format := range formats {
		file, err := export.Render(format, resp, now)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, file.Filename)
		if err := os.WriteFile(path, file.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		logger.Info("Exported", zap.String("path", path), zap.Int("images", len(resp.Items)))
	}
	return nil
}
