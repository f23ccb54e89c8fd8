package dimension

import (
	"context"

	"github.com/BartekS5/snapetl/pkg/models"
)

// DesignPolicy builds dim_design: design rows without audit columns.
type DesignPolicy struct {
	noPatch
}

func (DesignPolicy) Name() string    { return "dim_design" }
func (DesignPolicy) Primary() string { return "design" }

func (p DesignPolicy) Rebuild(_ context.Context, run *Run, rows []models.Row) (*models.Table, error) {
	rows = latestByKey(rows, "design_id")
	out := models.NewTable(p.Name(), "design_id", passThroughColumns(rows, "design_id", auditColumns...))
	for _, r := range rows {
		out.Rows = append(out.Rows, project(r, out.Columns))
	}
	run.log.Info("dim_design built", "rows", out.Len())
	return out, nil
}
