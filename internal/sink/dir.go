package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BartekS5/snapetl/pkg/models"
)

// DirSink writes parquet files under a local directory using the bucket key
// layout, for local runs.
type DirSink struct {
	log  *slog.Logger
	root string
}

func NewDirSink(log *slog.Logger, root string) *DirSink {
	return &DirSink{log: log, root: root}
}

func (d *DirSink) Write(ctx context.Context, table *models.Table, runTimestamp string) error {
	path := filepath.Join(d.root, filepath.FromSlash(ObjectKey(table.Name, runTimestamp)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.parquet")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if err := EncodeParquet(f, table); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", table.Name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return err
	}
	d.log.Info("parquet file written", "table", table.Name, "path", path, "rows", table.Len())
	return nil
}
