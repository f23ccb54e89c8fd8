// Package resolver reconstructs the latest known state of source rows from
// the append-only snapshot history.
package resolver

import (
	"context"
	"fmt"

	"github.com/BartekS5/snapetl/internal/snapshot"
	"github.com/BartekS5/snapetl/pkg/metrics"
	"github.com/BartekS5/snapetl/pkg/models"
)

// Version orders row mentions in the snapshot history. A row in a later run
// is newer; within a run, a row appended later is newer.
type Version struct {
	RunTimestamp string
	Seq          int
}

// Less reports whether v is older than o.
func (v Version) Less(o Version) bool {
	if v.RunTimestamp != o.RunTimestamp {
		return v.RunTimestamp < o.RunTimestamp
	}
	return v.Seq < o.Seq
}

// VisitFunc is called for each row of the history, newest first. Returning
// false stops the walk.
type VisitFunc func(v Version, row models.Row) bool

// WalkHistory visits every snapshot row of a table from the newest file to
// the oldest and, within a file, from the last appended row to the first.
func WalkHistory(ctx context.Context, store snapshot.Store, table string, visit VisitFunc) error {
	refs, err := store.List(ctx, table)
	if err != nil {
		return err
	}

	for i := len(refs) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := store.Fetch(ctx, refs[i])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", refs[i].Key, err)
		}
		metrics.SnapshotFilesScannedTotal.WithLabelValues(table).Inc()

		for j := len(rows) - 1; j >= 0; j-- {
			if !visit(Version{RunTimestamp: refs[i].RunTimestamp, Seq: j}, rows[j]) {
				return nil
			}
		}
	}
	return nil
}
