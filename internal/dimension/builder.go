package dimension

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BartekS5/snapetl/internal/snapshot"
	"github.com/BartekS5/snapetl/pkg/metrics"
	"github.com/BartekS5/snapetl/pkg/models"
)

// Outputs holds the tables built in one run, keyed by destination table.
// Tables with no new data are absent.
type Outputs map[string]*models.Table

// Builder runs the registered policies for one run event.
type Builder struct {
	log      *slog.Logger
	store    snapshot.Store
	registry *Registry
}

func NewBuilder(log *slog.Logger, store snapshot.Store, registry *Registry) *Builder {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Builder{log: log, store: store, registry: registry}
}

// Build runs every policy whose primary or secondary table has new rows.
// Rebuild runs first so that Patch sees this run's rebuilt rows and never
// duplicates them.
func (b *Builder) Build(ctx context.Context, event models.RunEvent) (Outputs, error) {
	if event.LastCheckedTime == "" {
		return nil, fmt.Errorf("run event has no LastCheckedTime: %w", models.ErrMissingConfig)
	}

	run := newRun(b.log, b.store, event.LastCheckedTime)
	out := Outputs{}

	for _, p := range b.registry.Policies() {
		t, err := b.buildTable(ctx, run, p, event.HasNewRows)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s: %w", p.Name(), err)
		}
		if t == nil {
			b.log.Debug("no new rows for table", "table", p.Name())
			continue
		}
		if err := checkUnique(t); err != nil {
			return nil, err
		}
		out[p.Name()] = t
		metrics.RowsBuiltTotal.WithLabelValues(p.Name()).Add(float64(t.Len()))
	}
	return out, nil
}

func (b *Builder) buildTable(ctx context.Context, run *Run, p Policy, hasNewRows map[string]bool) (*models.Table, error) {
	var t *models.Table

	if hasNewRows[p.Primary()] {
		rows, err := run.Snapshot(ctx, p.Primary())
		if err != nil {
			return nil, err
		}
		if t, err = p.Rebuild(ctx, run, rows); err != nil {
			return nil, err
		}
	}

	if sec := p.Secondary(); sec != "" && hasNewRows[sec] {
		rows, err := run.Snapshot(ctx, sec)
		if err != nil {
			return nil, err
		}
		if t, err = p.Patch(ctx, run, rows, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Report builds the downstream run event: one flag per registered
// destination table, true when the table was built.
func (b *Builder) Report(out Outputs, runTimestamp string) models.RunEvent {
	event := models.RunEvent{
		HasNewRows:      make(map[string]bool, len(b.registry.order)),
		LastCheckedTime: runTimestamp,
	}
	for _, name := range b.registry.Names() {
		_, ok := out[name]
		event.HasNewRows[name] = ok
	}
	return event
}
