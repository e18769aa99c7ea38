package record

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset is a named, ordered sequence of records with their shared schema.
type Dataset struct {
	Name    string
	Records []Record
	Schema  Schema
}

// datasetFile is the on-disk shape. JSON files parse through the same
// decoder since JSON is a subset of YAML.
type datasetFile struct {
	Name    string           `yaml:"name"`
	Records []map[string]any `yaml:"records"`
}

// NewDataset builds a Dataset and infers its schema.
func NewDataset(name string, records []Record) (*Dataset, error) {
	if name == "" {
		return nil, fmt.Errorf("dataset name is required")
	}
	if records == nil {
		records = []Record{}
	}
	for i, rec := range records {
		for _, k := range rec.SortedKeys() {
			if n, ok := rec[k].(Number); ok {
				if _, err := finite(float64(n)); err != nil {
					return nil, fmt.Errorf("dataset %q record %d field %q: %w", name, i, k, err)
				}
			}
		}
	}
	schema, err := InferSchema(records)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	return &Dataset{Name: name, Records: records, Schema: schema}, nil
}

// FromMaps builds a Dataset from decoded YAML or JSON objects.
func FromMaps(name string, rows []map[string]any) (*Dataset, error) {
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := FromMap(row)
		if err != nil {
			return nil, fmt.Errorf("dataset %q record %d: %w", name, i, err)
		}
		records = append(records, rec)
	}
	return NewDataset(name, records)
}

// ParseDataset decodes a YAML or JSON dataset document.
// defaultName is used when the document has no name.
// Unknown top-level keys are rejected to catch typos.
func ParseDataset(defaultName string, data []byte) (*Dataset, error) {
	var f datasetFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	name := f.Name
	if name == "" {
		name = defaultName
	}
	return FromMaps(name, f.Records)
}

// LoadDataset reads a dataset file. Without a name key, the dataset is
// named after the file (livros.yaml → livros).
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}
	base := filepath.Base(path)
	return ParseDataset(strings.TrimSuffix(base, filepath.Ext(base)), data)
}

// LoadDatasets loads every path. A directory contributes each .yaml, .yml
// and .json file it contains (not recursively). Duplicate names are an error.
func LoadDatasets(paths ...string) ([]*Dataset, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("dataset path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read dataset dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !isDatasetFile(e.Name()) {
				continue
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
	}
	sort.Strings(files)

	seen := make(map[string]string, len(files))
	datasets := make([]*Dataset, 0, len(files))
	for _, f := range files {
		ds, err := LoadDataset(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if prev, dup := seen[ds.Name]; dup {
			return nil, fmt.Errorf("dataset %q defined in both %s and %s", ds.Name, prev, f)
		}
		seen[ds.Name] = f
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

func isDatasetFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
