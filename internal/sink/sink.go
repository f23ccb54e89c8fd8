// Package sink persists the tables built by a run.
package sink

import (
	"context"

	"github.com/BartekS5/snapetl/pkg/models"
)

// Sink writes one built table for a run.
type Sink interface {
	Write(ctx context.Context, table *models.Table, runTimestamp string) error
}

// Multi writes every table to each sink in turn, stopping at the first error.
type Multi []Sink

func (m Multi) Write(ctx context.Context, table *models.Table, runTimestamp string) error {
	for _, s := range m {
		if err := s.Write(ctx, table, runTimestamp); err != nil {
			return err
		}
	}
	return nil
}
