package watermark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileStore keeps the watermark in a local JSON file, for development runs
// against a DirStore.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Load(ctx context.Context) (string, bool, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read watermark file '%s': %w", f.Path, err)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", false, fmt.Errorf("failed to parse watermark file '%s': %w", f.Path, err)
	}
	return p.LastUpdate, p.LastUpdate != "", nil
}

func (f *FileStore) Save(ctx context.Context, ts string) error {
	data, err := json.Marshal(payload{LastUpdate: ts})
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o644)
}
