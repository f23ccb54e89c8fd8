// Package dimension builds the star-schema tables from snapshot data.
//
// Each destination table has a Policy. Rebuild runs when the policy's
// primary source table has new rows in the run; Patch runs when its
// secondary (referenced) table has new rows and retroactively updates
// dependent rows built in earlier runs.
package dimension

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BartekS5/snapetl/internal/resolver"
	"github.com/BartekS5/snapetl/internal/snapshot"
	"github.com/BartekS5/snapetl/pkg/models"
)

// Policy is the merge policy of one destination table.
type Policy interface {
	// Name is the destination table.
	Name() string
	// Primary is the source table whose new rows trigger Rebuild.
	Primary() string
	// Secondary is the referenced source table whose new rows trigger Patch.
	// Empty when the policy has no retroactive patch.
	Secondary() string

	Rebuild(ctx context.Context, run *Run, rows []models.Row) (*models.Table, error)
	// Patch appends dependent rows affected by the new secondary rows to
	// prior, which may be nil. Rows already in prior are never altered.
	Patch(ctx context.Context, run *Run, rows []models.Row, prior *models.Table) (*models.Table, error)
}

// noPatch is embedded by policies without a referenced table.
type noPatch struct{}

func (noPatch) Secondary() string { return "" }

func (noPatch) Patch(_ context.Context, _ *Run, _ []models.Row, prior *models.Table) (*models.Table, error) {
	return prior, nil
}

// Run carries the state shared by all policies during one build.
type Run struct {
	Timestamp string

	log      *slog.Logger
	store    snapshot.Store
	resolver *resolver.VersionResolver
	loaded   map[string][]models.Row
}

func newRun(log *slog.Logger, store snapshot.Store, timestamp string) *Run {
	return &Run{
		Timestamp: timestamp,
		log:       log,
		store:     store,
		resolver:  resolver.New(log, store),
		loaded:    map[string][]models.Row{},
	}
}

// Snapshot returns the rows extracted for table in this run. Each snapshot
// is fetched at most once per run.
func (r *Run) Snapshot(ctx context.Context, table string) ([]models.Row, error) {
	if rows, ok := r.loaded[table]; ok {
		return rows, nil
	}
	rows, err := snapshot.Load(ctx, r.store, table, r.Timestamp)
	if err != nil {
		return nil, err
	}
	r.loaded[table] = rows
	return rows, nil
}

// Resolve looks up the latest known rows of table for the given keys.
func (r *Run) Resolve(ctx context.Context, table string, keys []interface{}) (resolver.Resolution, error) {
	return r.resolver.ResolveLatest(ctx, table, keys)
}

// History walks all snapshots of table newest first.
func (r *Run) History(ctx context.Context, table string, visit resolver.VisitFunc) error {
	return resolver.WalkHistory(ctx, r.store, table, visit)
}

// Registry holds the policies of all destination tables in build order.
type Registry struct {
	order    []string
	policies map[string]Policy
}

func NewRegistry(policies ...Policy) (*Registry, error) {
	r := &Registry{policies: make(map[string]Policy, len(policies))}
	for _, p := range policies {
		if _, dup := r.policies[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate policy for table %s", p.Name())
		}
		r.order = append(r.order, p.Name())
		r.policies[p.Name()] = p
	}
	return r, nil
}

// DefaultRegistry returns the policies of the sales star schema.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		CounterpartyPolicy{},
		CurrencyPolicy{},
		DesignPolicy{},
		StaffPolicy{},
		LocationPolicy{},
		SalesOrderPolicy{},
	)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Policies() []Policy {
	out := make([]Policy, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.policies[name])
	}
	return out
}
