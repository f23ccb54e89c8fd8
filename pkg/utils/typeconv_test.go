package utils

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSONValue(t *testing.T) {
	ts := time.Date(2022, 11, 3, 14, 20, 49, 962000000, time.UTC)

	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"nil", nil, nil},
		{"string", "GBP", "GBP"},
		{"int", 7, int64(7)},
		{"float32", float32(1.5), float64(1.5)},
		{"nan", math.NaN(), "NaN"},
		{"bytes", []byte("3.50"), "3.50"},
		{"time", ts, "2022-11-03 14:20:49.962000"},
		{"number", json.Number("12"), json.Number("12")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToJSONValue(tt.in))
		})
	}
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "12", KeyString(json.Number("12")))
	assert.Equal(t, "12", KeyString(float64(12)))
	assert.Equal(t, "12", KeyString(12))
	assert.Equal(t, "12", KeyString(int64(12)))
	assert.Equal(t, "1.5", KeyString(1.5))
	assert.Equal(t, "", KeyString(nil))
}

func TestSplitDateTime(t *testing.T) {
	d, c := SplitDateTime("2022-11-03 14:20:52.186000")
	assert.Equal(t, "2022-11-03", d)
	assert.Equal(t, "14:20:52.186000", c)

	d, c = SplitDateTime("2022-11-03")
	assert.Equal(t, "2022-11-03", d)
	assert.Nil(t, c)

	d, c = SplitDateTime(nil)
	assert.Nil(t, d)
	assert.Nil(t, c)
}

func TestConvertToInt64(t *testing.T) {
	i, err := ConvertToInt64(json.Number("42"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), i)

	_, err = ConvertToInt64(1.5)
	require.Error(t, err)

	_, err = ConvertToInt64(true)
	require.Error(t, err)
}

func TestConvertToFloat64(t *testing.T) {
	f, err := ConvertToFloat64(json.Number("3.25"))
	require.NoError(t, err)
	assert.Equal(t, 3.25, f)

	_, err = ConvertToFloat64("abc")
	require.Error(t, err)
}
