// Package etl wires extraction, dimension building and loading into runs.
// Each stage is one error boundary: failures are logged once and returned as
// a *models.RunError.
package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/BartekS5/snapetl/internal/watermark"
	"github.com/BartekS5/snapetl/pkg/metrics"
	"github.com/BartekS5/snapetl/pkg/models"
)

const (
	StageIngest  = "ingest"
	StageProcess = "process"
)

type Pipeline struct {
	Log         *slog.Logger
	Clock       clockwork.Clock
	Watermarks  watermark.Store
	Extractor   Extractor
	Transformer Transformer
	Loader      Loader
	DryRun      bool
}

// Ingest extracts every row changed since the stored watermark, then saves
// the run timestamp as the new watermark. The watermark is saved even when
// no table changed.
func (p *Pipeline) Ingest(ctx context.Context) (event models.RunEvent, err error) {
	start := p.clock().Now()
	defer p.guard(StageIngest, start, &err)

	if p.Watermarks == nil || p.Extractor == nil {
		return models.RunEvent{}, fmt.Errorf("ingest needs a watermark store and an extractor: %w", models.ErrMissingConfig)
	}

	w, err := watermark.Open(ctx, p.Watermarks, start)
	if err != nil {
		return models.RunEvent{}, fmt.Errorf("failed to load watermark: %w", err)
	}
	p.Log.Info("starting ingestion", "last_update", w.LastUpdate, "current_update", w.CurrentUpdate)

	event, err = p.Extractor.Run(ctx, w)
	if err != nil {
		return models.RunEvent{}, err
	}
	if err := p.Watermarks.Save(ctx, w.CurrentUpdate); err != nil {
		return models.RunEvent{}, fmt.Errorf("failed to save watermark: %w", err)
	}

	p.logEvent("ingestion finished", event)
	return event, nil
}

// Process builds the destination tables flagged by an ingestion event and
// hands each one to the loader. It returns the downstream event, which has
// one flag per destination table.
func (p *Pipeline) Process(ctx context.Context, in models.RunEvent) (event models.RunEvent, err error) {
	defer p.guard(StageProcess, p.clock().Now(), &err)

	if p.Transformer == nil || (p.Loader == nil && !p.DryRun) {
		return models.RunEvent{}, fmt.Errorf("process needs a transformer and a loader: %w", models.ErrMissingConfig)
	}
	if err := ValidateEvent(in); err != nil {
		return models.RunEvent{}, err
	}

	out, err := p.Transformer.Build(ctx, in)
	if err != nil {
		return models.RunEvent{}, err
	}

	names := make([]string, 0, len(out))
	for name := range out {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := out[name]
		if p.DryRun {
			p.Log.Info("[DRY RUN] would write table", "table", name, "rows", t.Len())
			continue
		}
		if err := p.Loader.Write(ctx, t, in.LastCheckedTime); err != nil {
			return models.RunEvent{}, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	event = p.Transformer.Report(out, in.LastCheckedTime)
	p.logEvent("processing finished", event)
	return event, nil
}

// Run ingests and then processes the resulting event.
func (p *Pipeline) Run(ctx context.Context) (models.RunEvent, error) {
	event, err := p.Ingest(ctx)
	if err != nil {
		return models.RunEvent{}, err
	}
	return p.Process(ctx, event)
}

func (p *Pipeline) guard(stage string, start time.Time, errp *error) {
	if r := recover(); r != nil {
		*errp = fmt.Errorf("panic: %v", r)
	}

	status := "success"
	if *errp != nil {
		status = "error"
		var runErr *models.RunError
		if !errors.As(*errp, &runErr) {
			runErr = &models.RunError{Stage: stage, Err: *errp}
			*errp = runErr
		}
		p.Log.Error("run failed", "stage", stage, "error", runErr.Err)
	}

	metrics.RunsTotal.WithLabelValues(stage, status).Inc()
	metrics.RunDuration.WithLabelValues(stage).Observe(p.clock().Since(start).Seconds())
}

func (p *Pipeline) clock() clockwork.Clock {
	if p.Clock == nil {
		return clockwork.NewRealClock()
	}
	return p.Clock
}

func (p *Pipeline) logEvent(msg string, event models.RunEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.Log.Warn("failed to encode run event", "error", err)
		return
	}
	p.Log.Info(msg, "event", string(data))
}
