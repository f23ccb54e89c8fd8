package dimension

import (
	"fmt"
	"sort"

	"github.com/BartekS5/snapetl/pkg/models"
	"github.com/BartekS5/snapetl/pkg/utils"
)

var auditColumns = []string{"created_at", "last_updated"}

// latestByKey drops earlier mentions of a key within one snapshot, keeping
// the last appended row at the position of the key's first mention.
func latestByKey(rows []models.Row, keyCol string) []models.Row {
	pos := make(map[string]int, len(rows))
	out := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		k := utils.KeyString(r[keyCol])
		if i, ok := pos[k]; ok {
			out[i] = r
			continue
		}
		pos[k] = len(out)
		out = append(out, r)
	}
	return out
}

func indexByKey(rows []models.Row, keyCol string) map[string]models.Row {
	idx := make(map[string]models.Row, len(rows))
	for _, r := range rows {
		idx[utils.KeyString(r[keyCol])] = r
	}
	return idx
}

func columnValues(rows []models.Row, col string) []interface{} {
	vals := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, r[col])
	}
	return vals
}

// passThroughColumns returns the key column followed by every other column
// seen in rows, sorted, minus the dropped ones.
func passThroughColumns(rows []models.Row, keyCol string, drop ...string) []string {
	skip := map[string]bool{keyCol: true}
	for _, d := range drop {
		skip[d] = true
	}
	seen := map[string]bool{}
	var rest []string
	for _, r := range rows {
		for c := range r {
			if skip[c] || seen[c] {
				continue
			}
			seen[c] = true
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append([]string{keyCol}, rest...)
}

// project keeps only columns, in order. Missing columns become null.
func project(src models.Row, columns []string) models.Row {
	out := make(models.Row, len(columns))
	for _, c := range columns {
		out[c] = src[c]
	}
	return out
}

// copyTable returns a table sharing rows with t but safe to append to.
func copyTable(t *models.Table) *models.Table {
	return &models.Table{
		Name:    t.Name,
		Key:     t.Key,
		Columns: t.Columns,
		Rows:    append([]models.Row(nil), t.Rows...),
	}
}

func keySet(t *models.Table) map[string]struct{} {
	set := make(map[string]struct{}, t.Len())
	for _, k := range t.KeyValues() {
		set[utils.KeyString(k)] = struct{}{}
	}
	return set
}

// checkUnique enforces one row per natural key in a built table.
func checkUnique(t *models.Table) error {
	seen := make(map[string]struct{}, t.Len())
	for _, k := range t.KeyValues() {
		ks := utils.KeyString(k)
		if _, dup := seen[ks]; dup {
			return fmt.Errorf("table %s: duplicate %s %s", t.Name, t.Key, ks)
		}
		seen[ks] = struct{}{}
	}
	return nil
}
