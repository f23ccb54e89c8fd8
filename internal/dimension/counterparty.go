package dimension

import (
	"context"
	"fmt"

	"github.com/BartekS5/snapetl/internal/resolver"
	"github.com/BartekS5/snapetl/pkg/models"
	"github.com/BartekS5/snapetl/pkg/utils"
)

var counterpartyColumns = []string{
	"counterparty_id",
	"counterparty_legal_name",
	"counterparty_legal_address_line_1",
	"counterparty_legal_address_line_2",
	"counterparty_legal_district",
	"counterparty_legal_city",
	"counterparty_legal_postal_code",
	"counterparty_legal_country",
	"counterparty_legal_phone_number",
}

// legalAddressColumns maps address columns to their dim_counterparty names.
var legalAddressColumns = map[string]string{
	"address_line_1": "counterparty_legal_address_line_1",
	"address_line_2": "counterparty_legal_address_line_2",
	"district":       "counterparty_legal_district",
	"city":           "counterparty_legal_city",
	"postal_code":    "counterparty_legal_postal_code",
	"country":        "counterparty_legal_country",
	"phone":          "counterparty_legal_phone_number",
}

// CounterpartyPolicy builds dim_counterparty by joining each counterparty
// with the latest version of its legal address.
type CounterpartyPolicy struct{}

func (CounterpartyPolicy) Name() string      { return "dim_counterparty" }
func (CounterpartyPolicy) Primary() string   { return "counterparty" }
func (CounterpartyPolicy) Secondary() string { return "address" }

func (p CounterpartyPolicy) Rebuild(ctx context.Context, run *Run, rows []models.Row) (*models.Table, error) {
	rows = latestByKey(rows, "counterparty_id")

	addresses, err := run.Resolve(ctx, "address", columnValues(rows, "legal_address_id"))
	if err != nil {
		return nil, err
	}

	out := models.NewTable(p.Name(), "counterparty_id", counterpartyColumns)
	missing := 0
	for _, r := range rows {
		res := addresses.Lookup(r["legal_address_id"])
		if res.Row == nil {
			missing++
		}
		out.Rows = append(out.Rows, counterpartyRow(r, res.Row))
	}

	run.log.Info("dim_counterparty built", "rows", out.Len(), "addresses_not_found", missing)
	return out, nil
}

// Patch re-joins every counterparty whose latest known version references
// an address updated in this run, unless it is already in prior. Only the
// latest version is considered: a counterparty that has since moved away from
// the updated address is not resurrected from an older snapshot.
func (p CounterpartyPolicy) Patch(ctx context.Context, run *Run, rows []models.Row, prior *models.Table) (*models.Table, error) {
	out := models.NewTable(p.Name(), "counterparty_id", counterpartyColumns)
	if prior != nil {
		out = copyTable(prior)
	}
	updated := indexByKey(rows, "address_id")
	seen := keySet(out)

	added := 0
	err := run.History(ctx, "counterparty", func(_ resolver.Version, r models.Row) bool {
		k := utils.KeyString(r["counterparty_id"])
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
		if addr, ok := updated[utils.KeyString(r["legal_address_id"])]; ok {
			out.Rows = append(out.Rows, counterpartyRow(r, addr))
			added++
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to patch dim_counterparty: %w", err)
	}

	run.log.Info("dim_counterparty patched with updated addresses", "added", added, "rows", out.Len())
	return out, nil
}

// counterpartyRow left-joins a counterparty with its address. A nil address
// yields null address columns.
func counterpartyRow(cp, addr models.Row) models.Row {
	merged := models.Row{
		"counterparty_id":         cp["counterparty_id"],
		"counterparty_legal_name": cp["counterparty_legal_name"],
	}
	for src, dst := range legalAddressColumns {
		merged[dst] = addr[src]
	}
	return project(merged, counterpartyColumns)
}
