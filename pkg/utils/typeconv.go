package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/BartekS5/snapetl/pkg/models"
)

// ToJSONValue coerces a value scanned from the source database into
// something encoding/json writes faithfully. Timestamps use the run timestamp
// layout, byte slices (SQL Server decimals, text) become strings and anything
// else without a JSON form falls back to its string representation.
func ToJSONValue(val interface{}) interface{} {
	switch v := val.(type) {
	case nil:
		return nil
	case string, bool, json.Number:
		return v
	case int:
		return int64(v)
	case int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		return v
	case float32:
		return float64(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(models.TimestampLayout)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// KeyString normalises a natural key value so that the same key decoded
// from different sources (json.Number, float64, int) compares equal.
func KeyString(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return v.String()
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SplitDateTime splits "YYYY-MM-DD hh:mm:ss.ffffff" at the first space.
// The time part is nil when the value has no space.
func SplitDateTime(val interface{}) (date interface{}, clock interface{}) {
	if val == nil {
		return nil, nil
	}
	s, isString := val.(string)
	if !isString {
		s = fmt.Sprintf("%v", val)
	}
	d, t, found := strings.Cut(s, " ")
	if !found {
		return d, nil
	}
	return d, t
}

// ConvertToInt64 converts integral numeric values to int64.
func ConvertToInt64(val interface{}) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("cannot convert %v to int64: not integral", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", val)
	}
}

// ConvertToFloat64 converts numeric values to float64.
func ConvertToFloat64(val interface{}) (float64, error) {
	switch v := val.(type) {
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", val)
	}
}
