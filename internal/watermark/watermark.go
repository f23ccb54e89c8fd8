// Package watermark tracks the last-processed timestamp that bounds each
// incremental extraction. The watermark is passed into a run explicitly and
// the advanced value is returned; nothing here is a global.
//
// Reading and advancing the watermark is not locked. Concurrent runs against
// the same bucket may overlap or skip rows.
package watermark

import (
	"context"
	"time"

	"github.com/BartekS5/snapetl/pkg/models"
)

// Epoch is the watermark of a bucket that has never been extracted.
const Epoch = "2020-01-01 00:00:00.000000"

// Window is the extraction range of one run: rows updated at or after
// LastUpdate. CurrentUpdate becomes the next watermark and the run
// timestamp of every snapshot written by the run.
type Window struct {
	LastUpdate    string
	CurrentUpdate string
}

// Store persists the watermark between runs.
type Store interface {
	// Load returns the stored watermark. found is false if none exists yet.
	Load(ctx context.Context) (ts string, found bool, err error)
	Save(ctx context.Context, ts string) error
}

// Advance computes the window of a run from the previous watermark. Run
// timestamps are always UTC.
func Advance(prev string, found bool, now time.Time) Window {
	if !found || prev == "" {
		prev = Epoch
	}
	return Window{
		LastUpdate:    prev,
		CurrentUpdate: now.UTC().Format(models.TimestampLayout),
	}
}

// Open loads the watermark and computes the run window. The store is not
// modified; call Save with the window's CurrentUpdate once the run ends.
func Open(ctx context.Context, store Store, now time.Time) (Window, error) {
	prev, found, err := store.Load(ctx)
	if err != nil {
		return Window{}, err
	}
	return Advance(prev, found, now), nil
}

type payload struct {
	LastUpdate string `json:"last_update"`
}
