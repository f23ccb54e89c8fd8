package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/snapetl/pkg/models"
)

func TestDirStore_PutListFetch(t *testing.T) {
	ctx := context.Background()
	store := NewDirStore(t.TempDir())

	require.NoError(t, store.Put(ctx, "currency", "2024-11-21 10:00:00.000000", []models.Row{
		{"currency_id": 2, "currency_code": "USD"},
	}))
	require.NoError(t, store.Put(ctx, "currency", "2024-11-20 10:00:00.000000", []models.Row{
		{"currency_id": 1, "currency_code": "GBP"},
	}))

	refs, err := store.List(ctx, "currency")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "2024-11-20 10:00:00.000000", refs[0].RunTimestamp)
	assert.Equal(t, "2024-11-21 10:00:00.000000", refs[1].RunTimestamp)

	rows, err := store.Fetch(ctx, refs[0])
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("1"), rows[0]["currency_id"])
	assert.Equal(t, "GBP", rows[0]["currency_code"])
}

func TestDirStore_ListMissingTable(t *testing.T) {
	store := NewDirStore(t.TempDir())
	refs, err := store.List(context.Background(), "address")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestDirStore_FetchMissing(t *testing.T) {
	store := NewDirStore(t.TempDir())
	_, err := Load(context.Background(), store, "address", "2024-01-01 00:00:00.000000")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDirStore_IgnoresForeignFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "design"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "design", "notes.txt"), []byte("x"), 0o644))

	store := NewDirStore(root)
	require.NoError(t, store.Put(context.Background(), "design", "2024-01-01 00:00:00.000000", []models.Row{}))

	refs, err := store.List(context.Background(), "design")
	require.NoError(t, err)
	require.Len(t, refs, 1)
}

func TestEncode_CoercesNonJSONValues(t *testing.T) {
	ts := time.Date(2022, 11, 3, 14, 20, 49, 962000000, time.UTC)
	data, err := Encode([]models.Row{{
		"created_at": ts,
		"unit_price": []byte("3.94"),
		"units_sold": int64(42),
		"note":       nil,
	}})
	require.NoError(t, err)

	rows, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2022-11-03 14:20:49.962000", rows[0]["created_at"])
	assert.Equal(t, "3.94", rows[0]["unit_price"])
	assert.Equal(t, json.Number("42"), rows[0]["units_sold"])
	assert.Nil(t, rows[0]["note"])
}
