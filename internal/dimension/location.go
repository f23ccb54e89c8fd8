package dimension

import (
	"context"

	"github.com/BartekS5/snapetl/pkg/models"
)

var locationColumns = []string{
	"location_id",
	"address_line_1",
	"address_line_2",
	"district",
	"city",
	"postal_code",
	"country",
	"phone",
}

// LocationPolicy builds dim_location from address rows.
type LocationPolicy struct {
	noPatch
}

func (LocationPolicy) Name() string    { return "dim_location" }
func (LocationPolicy) Primary() string { return "address" }

func (p LocationPolicy) Rebuild(_ context.Context, run *Run, rows []models.Row) (*models.Table, error) {
	out := models.NewTable(p.Name(), "location_id", locationColumns)
	for _, r := range latestByKey(rows, "address_id") {
		row := r.Clone()
		row["location_id"] = row["address_id"]
		out.Rows = append(out.Rows, project(row, locationColumns))
	}
	run.log.Info("dim_location built", "rows", out.Len())
	return out, nil
}
