package dimension

import (
	"context"
	"fmt"

	"golang.org/x/text/currency"

	"github.com/BartekS5/snapetl/pkg/models"
)

// CurrencyPolicy builds dim_currency, adding the ISO 4217 currency name.
// An unknown code fails the run rather than producing a null name.
type CurrencyPolicy struct {
	noPatch
}

func (CurrencyPolicy) Name() string    { return "dim_currency" }
func (CurrencyPolicy) Primary() string { return "currency" }

func (p CurrencyPolicy) Rebuild(_ context.Context, run *Run, rows []models.Row) (*models.Table, error) {
	rows = latestByKey(rows, "currency_id")
	columns := append(passThroughColumns(rows, "currency_id", "created_at", "last_updated", "currency_name"), "currency_name")

	out := models.NewTable(p.Name(), "currency_id", columns)
	for _, r := range rows {
		name, err := CurrencyName(r["currency_code"])
		if err != nil {
			return nil, err
		}
		row := project(r, columns)
		row["currency_name"] = name
		out.Rows = append(out.Rows, row)
	}
	run.log.Info("dim_currency built", "rows", out.Len())
	return out, nil
}

// CurrencyName returns the ISO 4217 name of a currency code. Unknown codes
// wrap models.ErrInvalid.
func CurrencyName(code interface{}) (string, error) {
	s, ok := code.(string)
	if !ok {
		return "", fmt.Errorf("currency code %v: %w", code, models.ErrInvalid)
	}
	if _, err := currency.ParseISO(s); err != nil {
		return "", fmt.Errorf("currency code %q is not a valid ISO 4217 code: %w", s, models.ErrInvalid)
	}
	name, ok := iso4217Names[s]
	if !ok {
		return "", fmt.Errorf("currency code %q has no ISO 4217 name: %w", s, models.ErrInvalid)
	}
	return name, nil
}
