package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/snapetl/pkg/logger"
	"github.com/BartekS5/snapetl/pkg/models"
)

func staffTable() *models.Table {
	t := models.NewTable("dim_staff", "staff_id", []string{"staff_id", "first_name", "location", "salary"})
	t.Rows = append(t.Rows,
		models.Row{"staff_id": json.Number("1"), "first_name": "Jeremie", "location": "Leeds", "salary": json.Number("1200.5")},
		models.Row{"staff_id": json.Number("2"), "first_name": nil, "location": "Undefined", "salary": json.Number("900")},
	)
	return t
}

func TestInferKind(t *testing.T) {
	rows := []models.Row{
		{"a": json.Number("1"), "b": json.Number("1"), "c": "x", "d": true, "e": nil, "f": 1},
		{"a": json.Number("2"), "b": json.Number("1.5"), "c": nil, "d": false, "e": nil, "f": "y"},
	}
	assert.Equal(t, kindInt, inferKind(rows, "a"))
	assert.Equal(t, kindDouble, inferKind(rows, "b"))
	assert.Equal(t, kindString, inferKind(rows, "c"))
	assert.Equal(t, kindBool, inferKind(rows, "d"))
	assert.Equal(t, kindString, inferKind(rows, "e"))
	assert.Equal(t, kindString, inferKind(rows, "f"))
}

func TestEncodeParquet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeParquet(&buf, staffTable()))

	f, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.NumRows())

	var names []string
	for _, path := range f.Schema().Columns() {
		names = append(names, path[0])
	}
	assert.Equal(t, []string{"staff_id", "first_name", "location", "salary"}, names)

	rows := make([]parquet.Row, 2)
	n, err := parquet.NewReader(bytes.NewReader(buf.Bytes())).ReadRows(rows)
	if err != nil {
		require.ErrorIs(t, err, io.EOF)
	}
	require.Equal(t, 2, n)
	assert.Equal(t, int64(1), rows[0][0].Int64())
	assert.Equal(t, "Jeremie", rows[0][1].String())
	assert.True(t, rows[1][1].IsNull())
	assert.Equal(t, "Undefined", rows[1][2].String())
	assert.Equal(t, 900.0, rows[1][3].Double())
}

func TestEncodeParquet_KeepsFixedColumnOrder(t *testing.T) {
	columns := []string{"sales_order_id", "created_date", "created_time", "last_updated_date", "units_sold"}
	table := models.NewTable("fact_sales_order", "sales_order_id", columns)
	table.Rows = append(table.Rows, models.Row{
		"sales_order_id":    json.Number("2"),
		"created_date":      "2024-12-11",
		"created_time":      "08:05:09.817000",
		"last_updated_date": "2024-12-11",
		"units_sold":        json.Number("42"),
	})

	var buf bytes.Buffer
	require.NoError(t, EncodeParquet(&buf, table))

	f, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var names []string
	for _, path := range f.Schema().Columns() {
		names = append(names, path[0])
	}
	assert.Equal(t, columns, names)
}

func TestEncodeParquet_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	table := models.NewTable("dim_design", "design_id", []string{"design_id"})
	require.NoError(t, EncodeParquet(&buf, table))

	f, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.NumRows())
}

type fakeUploader struct {
	keys   []string
	bodies [][]byte
	err    error
}

func (f *fakeUploader) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.keys = append(f.keys, aws.ToString(in.Key))
	f.bodies = append(f.bodies, data)
	return &s3.PutObjectOutput{}, nil
}

func TestParquetSink_UploadsAndRemovesTempFile(t *testing.T) {
	tmp := t.TempDir()
	up := &fakeUploader{}
	s := NewParquetSink(logger.NewTest(), up, "processing", tmp)

	require.NoError(t, s.Write(context.Background(), staffTable(), "2024-11-20 15:22:10.531518"))
	assert.Equal(t, []string{"dim_staff/2024-11-20 15:22:10.531518.parquet"}, up.keys)
	assert.NotEmpty(t, up.bodies[0])

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParquetSink_UploadFailureRemovesTempFile(t *testing.T) {
	tmp := t.TempDir()
	s := NewParquetSink(logger.NewTest(), &fakeUploader{err: errors.New("denied")}, "processing", tmp)

	require.Error(t, s.Write(context.Background(), staffTable(), "2024-11-20 15:22:10.531518"))
	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type recordingSink struct {
	tables []string
	err    error
}

func (r *recordingSink) Write(_ context.Context, t *models.Table, _ string) error {
	r.tables = append(r.tables, t.Name)
	return r.err
}

func TestMulti_StopsAtFirstError(t *testing.T) {
	first := &recordingSink{err: errors.New("boom")}
	second := &recordingSink{}

	err := Multi{first, second}.Write(context.Background(), staffTable(), "ts")
	require.Error(t, err)
	assert.Equal(t, []string{"dim_staff"}, first.tables)
	assert.Empty(t, second.tables)
}

func TestToDocument(t *testing.T) {
	table := staffTable()
	doc, err := toDocument(table, table.Rows[0], "2024-11-20 15:22:10.531518")
	require.NoError(t, err)
	assert.Equal(t, "1", doc["_id"])
	assert.Equal(t, int64(1), doc["staff_id"])
	assert.Equal(t, 1200.5, doc["salary"])
	assert.Equal(t, "Jeremie", doc["first_name"])
	assert.Equal(t, "2024-11-20 15:22:10.531518", doc["_run"])

	_, err = toDocument(table, models.Row{"first_name": "x"}, "ts")
	require.Error(t, err)
}

func TestDirSink_WritesBucketLayout(t *testing.T) {
	root := t.TempDir()
	s := NewDirSink(logger.NewTest(), root)

	require.NoError(t, s.Write(context.Background(), staffTable(), "2024-11-20 15:22:10.531518"))

	entries, err := os.ReadDir(filepath.Join(root, "dim_staff"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-11-20 15:22:10.531518.parquet", entries[0].Name())
}
