package dimension

import (
	"context"
	"fmt"

	"github.com/BartekS5/snapetl/internal/resolver"
	"github.com/BartekS5/snapetl/pkg/models"
	"github.com/BartekS5/snapetl/pkg/utils"
)

// UndefinedLocation replaces a missing department location.
const UndefinedLocation = "Undefined"

var staffColumns = []string{
	"staff_id",
	"first_name",
	"last_name",
	"department_name",
	"location",
	"email_address",
}

// StaffPolicy builds dim_staff by joining each staff member with the latest
// version of their department.
type StaffPolicy struct{}

func (StaffPolicy) Name() string      { return "dim_staff" }
func (StaffPolicy) Primary() string   { return "staff" }
func (StaffPolicy) Secondary() string { return "department" }

func (p StaffPolicy) Rebuild(ctx context.Context, run *Run, rows []models.Row) (*models.Table, error) {
	rows = latestByKey(rows, "staff_id")

	departments, err := run.Resolve(ctx, "department", columnValues(rows, "department_id"))
	if err != nil {
		return nil, err
	}

	out := models.NewTable(p.Name(), "staff_id", staffColumns)
	missing := 0
	for _, r := range rows {
		res := departments.Lookup(r["department_id"])
		if res.Row == nil {
			missing++
		}
		out.Rows = append(out.Rows, staffRow(r, res.Row))
	}

	run.log.Info("dim_staff built", "rows", out.Len(), "departments_not_found", missing)
	return out, nil
}

// Patch re-joins every staff member whose latest known version references a
// department updated in this run, unless already in prior. Only the latest
// version is considered: staff who have since left the updated department are
// not resurrected from an older snapshot.
func (p StaffPolicy) Patch(ctx context.Context, run *Run, rows []models.Row, prior *models.Table) (*models.Table, error) {
	out := models.NewTable(p.Name(), "staff_id", staffColumns)
	if prior != nil {
		out = copyTable(prior)
	}
	updated := indexByKey(rows, "department_id")
	seen := keySet(out)

	added := 0
	err := run.History(ctx, "staff", func(_ resolver.Version, r models.Row) bool {
		k := utils.KeyString(r["staff_id"])
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
		if dept, ok := updated[utils.KeyString(r["department_id"])]; ok {
			out.Rows = append(out.Rows, staffRow(r, dept))
			added++
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to patch dim_staff: %w", err)
	}

	run.log.Info("dim_staff patched with updated departments", "added", added, "rows", out.Len())
	return out, nil
}

func staffRow(staff, dept models.Row) models.Row {
	row := models.Row{
		"staff_id":        staff["staff_id"],
		"first_name":      staff["first_name"],
		"last_name":       staff["last_name"],
		"email_address":   staff["email_address"],
		"department_name": dept["department_name"],
		"location":        dept["location"],
	}
	if row["location"] == nil {
		row["location"] = UndefinedLocation
	}
	return project(row, staffColumns)
}
