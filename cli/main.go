package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/phambaophuc/visionprep/internal/client"
	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/internal/store"
	"github.com/phambaophuc/visionprep/pkg/uploadlimits"
	"go.uber.org/zap"
)

const usage = `Usage:
  visionprep [flags] <image file or URL>...
  visionprep history list|clear|delete <id>|export <id> [flags]

Flags:
`

type options struct {
	server      string
	lang        string
	tone        string
	keywords    string
	outDir      string
	format      string
	historyPath string
	force       bool
	async       bool
	retries     int
	timeout     time.Duration
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "history" {
		err = runHistory(ctx, args[1:], logger)
	} else {
		err = run(ctx, args, logger)
	}
	if err != nil {
		logger.Error("visionprep failed", zap.Error(err))
		os.Exit(1)
	}
}

func newFlagSet(name string, opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	defaultServer := os.Getenv("VISIONPREP_API_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}

	fs.StringVar(&opts.server, "server", defaultServer, "API base URL")
	fs.StringVar(&opts.lang, "lang", string(models.LanguageEN), "target language: en or ja")
	fs.StringVar(&opts.tone, "tone", "", "optional tone: neutral, friendly or professional")
	fs.StringVar(&opts.keywords, "keywords", "", "comma-separated keywords the model may use")
	fs.StringVar(&opts.outDir, "out", ".", "directory for export files")
	fs.StringVar(&opts.format, "format", "csv", "export format: csv, json, both or none")
	fs.StringVar(&opts.historyPath, "history", "", "history file (defaults to the user config directory)")
	fs.BoolVar(&opts.force, "force", false, "process images already present in history")
	fs.BoolVar(&opts.async, "async", false, "submit through the job queue and poll for the result")
	fs.IntVar(&opts.retries, "retries", 1, "times to resubmit images that failed")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Minute, "overall deadline")
	return fs
}

func (o *options) generationOptions() (models.GenerationOptions, error) {
	lang := models.Language(o.lang)
	if lang != models.LanguageEN && lang != models.LanguageJA {
		return models.GenerationOptions{}, fmt.Errorf("unsupported language %q", o.lang)
	}

	opts := models.GenerationOptions{Lang: lang, Tone: models.Tone(o.tone)}
	for _, k := range strings.Split(o.keywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			opts.Keywords = append(opts.Keywords, k)
		}
	}
	return opts, nil
}

func openHistory(path string, logger *zap.Logger) (*store.HistoryStore, error) {
	if path == "" {
		var err error
		path, err = store.DefaultHistoryPath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate history file: %w", err)
		}
	}
	return store.NewHistoryStore(store.NewFileBackend(path), logger), nil
}

func run(ctx context.Context, args []string, logger *zap.Logger) error {
	var opts options
	fs := newFlagSet("visionprep", &opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no images given")
	}

	genOpts, err := opts.generationOptions()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	history, err := openHistory(opts.historyPath, logger)
	if err != nil {
		return err
	}
	unsubscribe := history.Subscribe(func(entries []models.HistoryEntry) {
		logger.Debug("History updated", zap.Int("entries", len(entries)))
	})
	defer unsubscribe()

	p := &pipeline{
		api:     client.New(opts.server, nil),
		images:  store.NewResultStore(history),
		history: history,
		limits:  uploadlimits.DefaultLimits,
		logger:  logger,
		async:   opts.async,
	}

	if err := p.load(ctx, fs.Args(), opts.force); err != nil {
		return err
	}
	if len(p.images.Submittable()) == 0 {
		logger.Info("Nothing to process")
		return nil
	}

	for round := 0; round <= opts.retries; round++ {
		pending := p.images.Submittable()
		if len(pending) == 0 {
			break
		}
		if round > 0 {
			logger.Info("Retrying failed images", zap.Int("round", round), zap.Int("images", len(pending)))
		}
		if err := p.submit(ctx, pending, genOpts); err != nil {
			return err
		}
	}

	p.report()
	return p.export(opts.outDir, opts.format, genOpts.Lang)
}
