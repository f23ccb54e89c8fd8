package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BartekS5/snapetl/internal/snapshot"
	"github.com/BartekS5/snapetl/pkg/models"
	"github.com/BartekS5/snapetl/pkg/utils"
)

// Status tags the outcome of a key lookup.
type Status int

const (
	NotFound Status = iota
	Found
)

func (s Status) String() string {
	if s == Found {
		return "found"
	}
	return "not_found"
}

// Result is the latest known version of one natural key.
type Result struct {
	Status  Status
	Row     models.Row
	Version Version
}

// Resolution holds the outcome of ResolveLatest for one table.
type Resolution struct {
	Table string
	found map[string]Result
}

// Lookup returns the latest row for a key. A key never seen in the history
// is reported as NotFound.
func (r Resolution) Lookup(key interface{}) Result {
	if res, ok := r.found[utils.KeyString(key)]; ok {
		return res
	}
	return Result{Status: NotFound}
}

func (r Resolution) Len() int {
	return len(r.found)
}

// VersionResolver answers "latest known state" lookups against the snapshot
// history. It never writes to the store.
type VersionResolver struct {
	log   *slog.Logger
	store snapshot.Store
}

func New(log *slog.Logger, store snapshot.Store) *VersionResolver {
	return &VersionResolver{log: log, store: store}
}

// KeyColumn returns the natural key column of a source table.
func KeyColumn(table string) string {
	return table + "_id"
}

// ResolveLatest returns the most recent snapshot row for each requested key
// of table. Duplicate and null keys are ignored. Keys that are never found
// are absent from the result.
func (r *VersionResolver) ResolveLatest(ctx context.Context, table string, keys []interface{}) (Resolution, error) {
	res := Resolution{Table: table, found: map[string]Result{}}

	outstanding := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == nil {
			continue
		}
		outstanding[utils.KeyString(k)] = struct{}{}
	}
	if len(outstanding) == 0 {
		return res, nil
	}
	requested := len(outstanding)

	keyCol := KeyColumn(table)
	err := WalkHistory(ctx, r.store, table, func(v Version, row models.Row) bool {
		k := utils.KeyString(row[keyCol])
		if _, ok := outstanding[k]; ok {
			res.found[k] = Result{Status: Found, Row: row, Version: v}
			delete(outstanding, k)
		}
		return len(outstanding) > 0
	})
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to resolve %s keys: %w", table, err)
	}

	r.log.Debug("resolved latest row versions",
		"table", table, "requested", requested, "found", len(res.found), "missing", len(outstanding))
	return res, nil
}
