package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// TablesFile lists the source tables to extract.
type TablesFile struct {
	Version string   `json:"version"`
	Tables  []string `json:"tables"`
}

// LoadTables reads and parses a tables file from the given path.
func LoadTables(filePath string) (*TablesFile, error) {
	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file '%s': %w", filePath, err)
	}

	var tf TablesFile
	if err := json.Unmarshal(bytes, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse tables file '%s': %w", filePath, err)
	}
	if len(tf.Tables) == 0 {
		return nil, fmt.Errorf("tables file '%s' lists no tables", filePath)
	}
	return &tf, nil
}
