package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/phambaophuc/visionprep/internal/export"
	"github.com/phambaophuc/visionprep/internal/models"
	"go.uber.org/zap"
)

func runHistory(ctx context.Context, args []string, logger *zap.Logger) error {
	var opts options
	fs := newFlagSet("visionprep history", &opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	history, err := openHistory(opts.historyPath, logger)
	if err != nil {
		return err
	}

	cmd := fs.Arg(0)
	switch cmd {
	case "", "list":
		for _, entry := range history.Entries() {
			logger.Info("History entry",
				zap.String("id", entry.ID),
				zap.String("timestamp", entry.Timestamp),
				zap.String("lang", string(entry.Lang)),
				zap.Int("images", len(entry.Images)))
		}
		return nil

	case "clear":
		return history.Clear()

	case "delete":
		if fs.NArg() < 2 {
			return errors.New("history delete needs an entry id")
		}
		return history.Delete(fs.Arg(1))

	case "export":
		if fs.NArg() < 2 {
			return errors.New("history export needs an entry id")
		}
		entry, ok := findEntry(history.Entries(), fs.Arg(1))
		if !ok {
			return fmt.Errorf("history entry %s not found", fs.Arg(1))
		}
		formats := []string{opts.format}
		if opts.format == "both" {
			formats = []string{export.FormatCSV, export.FormatJSON}
		}
		return writeExports(opts.outDir, formats, export.FromHistory(entry), time.Now(), logger)

	default:
		fs.Usage()
		return fmt.Errorf("unknown history command %q", cmd)
	}
}

func findEntry(entries []models.HistoryEntry, id string) (models.HistoryEntry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.HistoryEntry{}, false
}
