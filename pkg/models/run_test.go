package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRunEvent(t *testing.T) {
	e, err := LoadRunEvent([]byte(`{"HasNewRows": {"staff": false, "currency": true}, "LastCheckedTime": "2024-11-20 15:22:10.531518"}`))
	require.NoError(t, err)
	assert.True(t, e.AnyNewRows())
	assert.Equal(t, "2024-11-20 15:22:10.531518", e.LastCheckedTime)

	e, err = LoadRunEvent([]byte(`{"LastCheckedTime": "2024-11-20 15:22:10.531518"}`))
	require.NoError(t, err)
	assert.NotNil(t, e.HasNewRows)
	assert.False(t, e.AnyNewRows())

	_, err = LoadRunEvent([]byte(`[]`))
	require.Error(t, err)
}

func TestRunError(t *testing.T) {
	err := &RunError{Stage: "process", Err: errors.Join(ErrInvalid)}
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "process: invalid reference data", err.Error())

	data, mErr := json.Marshal(err)
	require.NoError(t, mErr)
	assert.JSONEq(t, `{"Error found": "invalid reference data"}`, string(data))
}

func TestTable(t *testing.T) {
	var nilTable *Table
	assert.Zero(t, nilTable.Len())
	assert.Nil(t, nilTable.KeyValues())

	tbl := NewTable("dim_design", "design_id", []string{"design_id", "design_name"})
	tbl.Rows = append(tbl.Rows, Row{"design_id": 8, "design_name": "Wooden"})
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, []interface{}{8}, tbl.KeyValues())

	r := tbl.Rows[0].Clone()
	r["design_name"] = "Steel"
	assert.Equal(t, "Wooden", tbl.Rows[0]["design_name"])
}
