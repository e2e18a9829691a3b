package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// File serves snapshots from a YAML document. Useful for offline runs.
//
//	categories:
//	  - name: Groceries
//	    limit: 600000
//	    activity: 450000
//	    balance: 150000
type File struct {
	path string
}

// NewFile creates a file-backed source.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string { return "file" }

type fileCategory struct {
	Name     string `yaml:"name"`
	Limit    *int64 `yaml:"limit"`
	Activity int64  `yaml:"activity"`
	Balance  int64  `yaml:"balance"`
}

type fileDocument struct {
	Categories []fileCategory `yaml:"categories"`
}

// Snapshots re-reads the file on every call. The month is ignored.
func (f *File) Snapshots(_ context.Context, _ time.Time) (map[string]model.CategorySnapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file %s: %w", f.path, err)
	}
	return ParseSnapshots(data)
}

// ParseSnapshots decodes a snapshot YAML document.
func ParseSnapshots(data []byte) (map[string]model.CategorySnapshot, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot file: %w", err)
	}

	out := make(map[string]model.CategorySnapshot, len(doc.Categories))
	for i, c := range doc.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("snapshot file: category %d has no name", i)
		}
		if _, dup := out[c.Name]; dup {
			return nil, fmt.Errorf("snapshot file: duplicate category %q", c.Name)
		}
		out[c.Name] = model.CategorySnapshot{
			Name:             c.Name,
			LimitAmount:      c.Limit,
			PeriodActivity:   c.Activity,
			RemainingBalance: c.Balance,
		}
	}
	return out, nil
}
