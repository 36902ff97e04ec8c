package labels

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DataYAML holds the class metadata of an Ultralytics-style data.yaml.
type DataYAML struct {
	Path  string   `yaml:"path,omitempty"`
	Train string   `yaml:"train,omitempty"`
	Val   string   `yaml:"val,omitempty"`
	Test  string   `yaml:"test,omitempty"`
	NC    *int     `yaml:"nc,omitempty"`
	Names []string `yaml:"-"`
}

type rawDataYAML struct {
	Path  string    `yaml:"path"`
	Train string    `yaml:"train"`
	Val   string    `yaml:"val"`
	Test  string    `yaml:"test"`
	NC    *int      `yaml:"nc"`
	Names yaml.Node `yaml:"names"`
}

// ReadDataYAML loads class count and names. Names may be a list or an
// index-keyed mapping.
func ReadDataYAML(path string) (DataYAML, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator supplied path
	if err != nil {
		return DataYAML{}, fmt.Errorf("read %s: %w", path, err)
	}
	var raw rawDataYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return DataYAML{}, fmt.Errorf("parse %s: %w", path, err)
	}

	out := DataYAML{Path: raw.Path, Train: raw.Train, Val: raw.Val, Test: raw.Test, NC: raw.NC}
	switch raw.Names.Kind {
	case yaml.SequenceNode:
		if err := raw.Names.Decode(&out.Names); err != nil {
			return DataYAML{}, fmt.Errorf("parse names in %s: %w", path, err)
		}
	case yaml.MappingNode:
		var byIndex map[int]string
		if err := raw.Names.Decode(&byIndex); err != nil {
			return DataYAML{}, fmt.Errorf("parse names in %s: %w", path, err)
		}
		keys := make([]int, 0, len(byIndex))
		for k := range byIndex {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, k := range keys {
			out.Names = append(out.Names, byIndex[k])
		}
	}
	return out, nil
}

// AllowedClasses returns 0..nc-1 when nc is set, otherwise nil.
func (d DataYAML) AllowedClasses() []int {
	if d.NC == nil {
		return nil
	}
	ids := make([]int, *d.NC)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// WriteDataYAML writes a training data.yaml with list-form class names.
func WriteDataYAML(path string, d DataYAML) error {
	doc := struct {
		Path  string   `yaml:"path"`
		Train string   `yaml:"train"`
		Val   string   `yaml:"val"`
		Test  string   `yaml:"test"`
		NC    int      `yaml:"nc"`
		Names []string `yaml:"names,flow"`
	}{Path: d.Path, Train: d.Train, Val: d.Val, Test: d.Test, NC: len(d.Names), Names: d.Names}
	if d.NC != nil {
		doc.NC = *d.NC
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal data yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
