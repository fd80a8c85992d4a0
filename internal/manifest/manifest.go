// Package manifest loads the YAML dataset manifest used for multi-dataset
// loads and scheduled refresh.
package manifest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"schoolbook/internal/ddl"
	"schoolbook/internal/domain"
)

// Manifest is the parsed datasets file.
type Manifest struct {
	Datasets []DatasetSpec `yaml:"datasets"`
}

// DatasetSpec is one manifest entry.
type DatasetSpec struct {
	Name       string `yaml:"name"`
	CSV        string `yaml:"csv"`
	NameColumn string `yaml:"name_column,omitempty"`
}

// Load reads and validates a manifest file. Unknown YAML fields are
// rejected so typos fail loudly instead of silently dropping a dataset.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // intentional: reading operator-specified config
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	m := &Manifest{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Validate checks the manifest is usable: at least one dataset, valid
// identifiers, non-empty CSV paths, unique names.
func (m *Manifest) Validate() error {
	if len(m.Datasets) == 0 {
		return domain.ErrValidation("manifest declares no datasets")
	}

	seen := make(map[string]struct{}, len(m.Datasets))
	for i, ds := range m.Datasets {
		if err := ddl.ValidateIdentifier(ds.Name); err != nil {
			return domain.ErrValidation("dataset %d: invalid name: %v", i, err)
		}
		if ds.CSV == "" {
			return domain.ErrValidation("dataset %q: csv path is required", ds.Name)
		}
		if ds.NameColumn != "" {
			if err := ddl.ValidateIdentifier(ds.NameColumn); err != nil {
				return domain.ErrValidation("dataset %q: invalid name_column: %v", ds.Name, err)
			}
		}
		if _, dup := seen[ds.Name]; dup {
			return domain.ErrValidation("dataset %q declared twice", ds.Name)
		}
		seen[ds.Name] = struct{}{}
	}
	return nil
}

// Domain converts the manifest entries into domain datasets.
func (m *Manifest) Domain() []domain.Dataset {
	out := make([]domain.Dataset, 0, len(m.Datasets))
	for _, ds := range m.Datasets {
		out = append(out, domain.Dataset{
			Name:       ds.Name,
			CSVPath:    ds.CSV,
			NameColumn: ds.NameColumn,
		})
	}
	return out
}

// Find returns the manifest entry with the given dataset name.
func (m *Manifest) Find(name string) (DatasetSpec, bool) {
	for _, ds := range m.Datasets {
		if ds.Name == name {
			return ds, true
		}
	}
	return DatasetSpec{}, false
}
