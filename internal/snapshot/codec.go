package snapshot

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/BartekS5/snapetl/pkg/models"
	"github.com/BartekS5/snapetl/pkg/utils"
)

// Encode renders rows as a JSON array of objects. Values without a JSON form
// are coerced to strings.
func Encode(rows []models.Row) ([]byte, error) {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		m := make(map[string]interface{}, len(r))
		for k, v := range r {
			m[k] = utils.ToJSONValue(v)
		}
		out = append(out, m)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a JSON array of row objects. Numbers are kept as
// json.Number so that keys and decimals survive unchanged.
func Decode(r io.Reader) ([]models.Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var rows []models.Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if rows == nil {
		rows = []models.Row{}
	}
	return rows, nil
}
