// Package snapshot reads and writes the append-only, timestamp-partitioned
// JSON snapshots produced by each extraction run.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/BartekS5/snapetl/pkg/models"
)

const fileExt = ".json"

// ErrNotFound is returned by Fetch when the object does not exist.
var ErrNotFound = errors.New("snapshot not found")

// ObjectRef identifies one snapshot file: all changed rows of one table from
// one extraction run.
type ObjectRef struct {
	Table        string
	RunTimestamp string
	Key          string
}

// Store is the snapshot object store. Existing objects are never mutated.
type Store interface {
	// List returns the snapshot files of a table ordered oldest first.
	List(ctx context.Context, table string) ([]ObjectRef, error)
	Fetch(ctx context.Context, ref ObjectRef) ([]models.Row, error)
	Put(ctx context.Context, table, runTimestamp string, rows []models.Row) error
}

// ObjectKey returns the key of a table's snapshot for a run.
func ObjectKey(table, runTimestamp string) string {
	return table + "/" + runTimestamp + fileExt
}

// Ref builds the reference of a table's snapshot for a run.
func Ref(table, runTimestamp string) ObjectRef {
	return ObjectRef{Table: table, RunTimestamp: runTimestamp, Key: ObjectKey(table, runTimestamp)}
}

// ParseKey parses "{table}/{run_timestamp}.json". Keys of any other shape
// are rejected.
func ParseKey(key string) (ObjectRef, bool) {
	dir, file := path.Split(key)
	table := strings.TrimSuffix(dir, "/")
	if table == "" || strings.Contains(table, "/") || !strings.HasSuffix(file, fileExt) {
		return ObjectRef{}, false
	}
	ts := strings.TrimSuffix(file, fileExt)
	if ts == "" {
		return ObjectRef{}, false
	}
	return ObjectRef{Table: table, RunTimestamp: ts, Key: key}, true
}

// SortRefs orders refs by run timestamp, oldest first. Run timestamps share a
// fixed-width layout so string order is chronological order.
func SortRefs(refs []ObjectRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].RunTimestamp != refs[j].RunTimestamp {
			return refs[i].RunTimestamp < refs[j].RunTimestamp
		}
		return refs[i].Key < refs[j].Key
	})
}

// Load fetches the snapshot of a table for a given run.
func Load(ctx context.Context, store Store, table, runTimestamp string) ([]models.Row, error) {
	rows, err := store.Fetch(ctx, Ref(table, runTimestamp))
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", ObjectKey(table, runTimestamp), err)
	}
	return rows, nil
}
