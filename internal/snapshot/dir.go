package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BartekS5/snapetl/pkg/models"
)

// DirStore keeps snapshots in a local directory, one sub-directory per
// table. It mirrors the bucket layout for local runs and backups.
type DirStore struct {
	Root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{Root: root}
}

func (d *DirStore) List(ctx context.Context, table string) ([]ObjectRef, error) {
	entries, err := os.ReadDir(filepath.Join(d.Root, table))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for %s: %w", table, err)
	}

	var refs []ObjectRef
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		if ref, ok := ParseKey(table + "/" + e.Name()); ok {
			refs = append(refs, ref)
		}
	}
	SortRefs(refs)
	return refs, nil
}

func (d *DirStore) Fetch(ctx context.Context, ref ObjectRef) ([]models.Row, error) {
	f, err := os.Open(filepath.Join(d.Root, filepath.FromSlash(ref.Key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", ref.Key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Put writes the snapshot through a temp file and rename so readers never
// observe a partial object.
func (d *DirStore) Put(ctx context.Context, table, runTimestamp string, rows []models.Row) error {
	data, err := Encode(rows)
	if err != nil {
		return err
	}
	dir := filepath.Join(d.Root, table)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, runTimestamp+fileExt))
}
