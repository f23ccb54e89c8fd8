package dimension

import (
	"context"

	"github.com/BartekS5/snapetl/pkg/models"
	"github.com/BartekS5/snapetl/pkg/utils"
)

var salesOrderColumns = []string{
	"sales_order_id",
	"created_date",
	"created_time",
	"last_updated_date",
	"last_updated_time",
	"sales_staff_id",
	"counterparty_id",
	"units_sold",
	"unit_price",
	"currency_id",
	"design_id",
	"agreed_payment_date",
	"agreed_delivery_date",
	"agreed_delivery_location_id",
}

// SalesOrderPolicy builds fact_sales_order. It needs no lookups: the fact
// references dimensions by key only.
type SalesOrderPolicy struct {
	noPatch
}

func (SalesOrderPolicy) Name() string    { return "fact_sales_order" }
func (SalesOrderPolicy) Primary() string { return "sales_order" }

func (p SalesOrderPolicy) Rebuild(_ context.Context, run *Run, rows []models.Row) (*models.Table, error) {
	out := models.NewTable(p.Name(), "sales_order_id", salesOrderColumns)
	for _, r := range latestByKey(rows, "sales_order_id") {
		out.Rows = append(out.Rows, salesOrderRow(r))
	}
	run.log.Info("fact_sales_order built", "rows", out.Len())
	return out, nil
}

func salesOrderRow(r models.Row) models.Row {
	row := r.Clone()
	row["created_date"], row["created_time"] = utils.SplitDateTime(r["created_at"])
	row["last_updated_date"], row["last_updated_time"] = utils.SplitDateTime(r["last_updated"])
	row["sales_staff_id"] = r["staff_id"]
	return project(row, salesOrderColumns)
}
