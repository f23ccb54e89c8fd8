package etl

import (
	"context"

	"github.com/BartekS5/snapetl/internal/dimension"
	"github.com/BartekS5/snapetl/internal/watermark"
	"github.com/BartekS5/snapetl/pkg/models"
)

// Extractor copies changed source rows into the snapshot store.
type Extractor interface {
	Run(ctx context.Context, w watermark.Window) (models.RunEvent, error)
}

// Transformer builds the destination tables of a run.
type Transformer interface {
	Build(ctx context.Context, event models.RunEvent) (dimension.Outputs, error)
	Report(out dimension.Outputs, runTimestamp string) models.RunEvent
}

// Loader persists one built table.
type Loader interface {
	Write(ctx context.Context, table *models.Table, runTimestamp string) error
}
