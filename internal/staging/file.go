package staging

import (
	"encoding/json"
	"fmt"

	"github.com/javanhut/cvs/internal/fsadapter"
)

// Load reads a staging area previously written by Save.
func Load(fs *fsadapter.Adapter, name string) (*Area, error) {
	data, err := fs.ReadFile(name)
	if err != nil {
		return nil, err
	}
	a := &Area{}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("parse staging area %s: %w", name, err)
	}
	return a, nil
}

// Save writes a to name atomically.
func Save(fs *fsadapter.Adapter, name string, a *Area) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode staging area: %w", err)
	}
	return fs.WriteFileAtomic(name, data)
}
