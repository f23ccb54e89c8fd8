package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/BartekS5/snapetl/pkg/models"
	"github.com/BartekS5/snapetl/pkg/utils"
)

type columnKind int

const (
	kindString columnKind = iota
	kindInt
	kindDouble
	kindBool
)

// inferKind picks the narrowest physical type that holds every non-null
// value of a column. Mixed or all-null columns are strings.
func inferKind(rows []models.Row, col string) columnKind {
	kind, seen := kindString, false
	for _, r := range rows {
		v := r[col]
		if v == nil {
			continue
		}
		k := valueKind(v)
		switch {
		case !seen:
			kind, seen = k, true
		case k == kind:
		case (k == kindInt && kind == kindDouble) || (k == kindDouble && kind == kindInt):
			kind = kindDouble
		default:
			return kindString
		}
	}
	return kind
}

func valueKind(v interface{}) columnKind {
	switch x := v.(type) {
	case bool:
		return kindBool
	case int, int32, int64:
		return kindInt
	case float32:
		return kindDouble
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return kindInt
		}
		return kindDouble
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return kindInt
		}
		if _, err := x.Float64(); err == nil {
			return kindDouble
		}
	}
	return kindString
}

// goType is the Go field type of a column of kind k. Pointers make every
// column optional.
func (k columnKind) goType() reflect.Type {
	switch k {
	case kindInt:
		return reflect.TypeOf((*int64)(nil))
	case kindDouble:
		return reflect.TypeOf((*float64)(nil))
	case kindBool:
		return reflect.TypeOf((*bool)(nil))
	default:
		return reflect.TypeOf((*string)(nil))
	}
}

func (k columnKind) value(v interface{}) (parquet.Value, error) {
	if v == nil {
		return parquet.NullValue(), nil
	}
	switch k {
	case kindInt:
		i, err := utils.ConvertToInt64(v)
		if err != nil {
			return parquet.Value{}, err
		}
		return parquet.Int64Value(i), nil
	case kindDouble:
		f, err := utils.ConvertToFloat64(v)
		if err != nil {
			return parquet.Value{}, err
		}
		return parquet.DoubleValue(f), nil
	case kindBool:
		return parquet.BooleanValue(v.(bool)), nil
	default:
		s, ok := v.(string)
		if !ok {
			s = utils.KeyString(v)
		}
		return parquet.ByteArrayValue([]byte(s)), nil
	}
}

// tableSchema builds a schema whose columns follow t.Columns. parquet.Group
// sorts its fields by name, so the schema is derived from a struct type
// instead, which keeps declaration order.
func tableSchema(t *models.Table) (*parquet.Schema, []columnKind) {
	kinds := make([]columnKind, len(t.Columns))
	fields := make([]reflect.StructField, len(t.Columns))
	for i, c := range t.Columns {
		kinds[i] = inferKind(t.Rows, c)
		fields[i] = reflect.StructField{
			Name: "F" + strconv.Itoa(i),
			Type: kinds[i].goType(),
			Tag:  reflect.StructTag(`parquet:"` + c + `"`),
		}
	}
	model := reflect.Zero(reflect.StructOf(fields)).Interface()
	return parquet.NewSchema(t.Name, parquet.SchemaOf(model)), kinds
}

// EncodeParquet writes a table as a parquet file with one optional column
// per table column, in table column order.
func EncodeParquet(w io.Writer, t *models.Table) error {
	cols := t.Columns
	schema, kinds := tableSchema(t)

	rows := make([]parquet.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make(parquet.Row, len(cols))
		for i, c := range cols {
			v, err := kinds[i].value(r[c])
			if err != nil {
				return fmt.Errorf("column %s: %w", c, err)
			}
			def := 1
			if r[c] == nil {
				def = 0
			}
			row[i] = v.Level(0, def, i)
		}
		rows = append(rows, row)
	}

	pw := parquet.NewWriter(w, schema)
	if _, err := pw.WriteRows(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
