package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ignite/beehiiv-forecast/internal/config"
)

const (
	reportFile = "report.txt"
	dataFile   = "data.json"
)

// Output is one rendered forecast run
type Output struct {
	RunID       string
	GeneratedAt time.Time
	Text        string
	JSON        []byte
}

// ReportWriter persists the output of a run and returns where it went
type ReportWriter interface {
	Write(ctx context.Context, out Output) ([]string, error)
}

// New creates the report writer selected by cfg.Type
func New(ctx context.Context, cfg config.StorageConfig) (ReportWriter, error) {
	switch cfg.Type {
	case "s3":
		w, err := NewS3Writer(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing S3 storage: %w", err)
		}
		return w, nil
	case "local", "":
		return NewLocalWriter(cfg.LocalPath), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// LocalWriter writes report.txt and data.json into a directory
type LocalWriter struct {
	dir string
}

// NewLocalWriter creates a writer for dir. The directory is created on write.
func NewLocalWriter(dir string) *LocalWriter {
	return &LocalWriter{dir: dir}
}

// Write overwrites the report files in the output directory
func (w *LocalWriter) Write(ctx context.Context, out Output) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	textPath := filepath.Join(w.dir, reportFile)
	if err := os.WriteFile(textPath, []byte(out.Text), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", reportFile, err)
	}

	dataPath := filepath.Join(w.dir, dataFile)
	if err := os.WriteFile(dataPath, out.JSON, 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", dataFile, err)
	}

	return []string{textPath, dataPath}, nil
}
