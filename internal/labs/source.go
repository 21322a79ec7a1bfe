package labs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// Source loads the full lab collection from wherever it is kept.
type Source interface {
	Load(ctx context.Context) ([]Lab, error)
}

// Load reads a source and wraps the result in a Dataset.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	records, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d labs", len(records))
	return NewDataset(records), nil
}

// Parse decodes a JSON array of lab objects. A document whose top level is
// not an array yields an empty collection.
func Parse(data []byte) ([]Lab, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] != '[' {
		log.Printf("Labs data is not a JSON array, ignoring")
		return nil, nil
	}
	var records []Lab
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("parsing labs JSON: %w", err)
	}
	return records, nil
}

// FileSource reads labs from a JSON file on disk.
type FileSource struct {
	Path string
}

// Load implements Source. A missing file is reported and treated as empty.
func (f FileSource) Load(_ context.Context) ([]Lab, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("Labs data not found at %s, starting with an empty directory", f.Path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading labs file: %w", err)
	}
	return Parse(data)
}

// WriteFile writes labs as an indented JSON array.
func WriteFile(path string, records []Lab) error {
	if records == nil {
		records = []Lab{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding labs: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating labs directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing labs file: %w", err)
	}
	return nil
}
