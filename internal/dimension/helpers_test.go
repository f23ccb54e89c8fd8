package dimension

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BartekS5/snapetl/internal/snapshot"
	"github.com/BartekS5/snapetl/pkg/logger"
	"github.com/BartekS5/snapetl/pkg/models"
)

const (
	ts1 = "2024-11-18 09:00:00.000000"
	ts2 = "2024-11-19 09:00:00.000000"
	ts3 = "2024-11-20 09:00:00.000000"
	ts4 = "2024-11-21 09:00:00.000000"
)

func newStore(t *testing.T) *snapshot.DirStore {
	t.Helper()
	return snapshot.NewDirStore(t.TempDir())
}

func put(t *testing.T, store snapshot.Store, table, ts string, rows ...models.Row) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), table, ts, rows))
}

func testRun(store snapshot.Store, ts string) *Run {
	return newRun(logger.NewTest(), store, ts)
}

func num(n int) json.Number {
	return json.Number(strconv.Itoa(n))
}

func keysOf(t *models.Table) []string {
	var out []string
	for _, k := range t.KeyValues() {
		out = append(out, string(k.(json.Number)))
	}
	return out
}

func address(id int, city string) models.Row {
	return models.Row{
		"address_id":     id,
		"address_line_1": "1 Main Street",
		"address_line_2": nil,
		"district":       "Central",
		"city":           city,
		"postal_code":    "LS1 1AA",
		"country":        "United Kingdom",
		"phone":          "0113 000 0000",
		"created_at":     "2022-11-03 14:20:49.962000",
		"last_updated":   "2022-11-03 14:20:49.962000",
	}
}

func counterparty(id, addressID int, name string) models.Row {
	return models.Row{
		"counterparty_id":         id,
		"counterparty_legal_name": name,
		"legal_address_id":        addressID,
		"commercial_contact":      "Someone",
		"delivery_contact":        "Someone Else",
		"created_at":              "2022-11-03 14:20:51.563000",
		"last_updated":            "2022-11-03 14:20:51.563000",
	}
}

func staff(id, departmentID int, first string) models.Row {
	return models.Row{
		"staff_id":      id,
		"first_name":    first,
		"last_name":     "Smith",
		"department_id": departmentID,
		"email_address": first + "@example.com",
		"created_at":    "2022-11-03 14:20:51.563000",
		"last_updated":  "2022-11-03 14:20:51.563000",
	}
}

func department(id int, name string, location interface{}) models.Row {
	return models.Row{
		"department_id":   id,
		"department_name": name,
		"location":        location,
		"manager":         "Boss",
		"created_at":      "2022-11-03 14:20:49.962000",
		"last_updated":    "2022-11-03 14:20:49.962000",
	}
}
