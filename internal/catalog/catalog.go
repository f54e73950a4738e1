// Package catalog provides the predefined symptoms offered by entry forms.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Symptom is one selectable chip of the entry form.
type Symptom struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// file is the layout of a symptoms YAML file:
//
//	symptoms:
//	  - name: Heartburn
//	  - name: Bloating
//	    label: Bloating / gas
type file struct {
	Symptoms []Symptom `yaml:"symptoms"`
}

// Catalog is an ordered, duplicate-free list of symptoms.
type Catalog struct {
	symptoms []Symptom
	index    map[string]int
}

// Builtin returns the symptoms the journal ships with.
func Builtin() *Catalog {
	c, _ := New([]Symptom{
		{Name: "Heartburn"},
		{Name: "Bloating"},
		{Name: "Bitter taste in mouth"},
		{Name: "Cough"},
		{Name: "Throat burning"},
		{Name: "Indigestion"},
	})
	return c
}

// New validates symptoms and keeps the first of any duplicate names.
func New(symptoms []Symptom) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(symptoms))}
	for i, s := range symptoms {
		s.Name = strings.TrimSpace(s.Name)
		s.Label = strings.TrimSpace(s.Label)
		if s.Name == "" {
			return nil, fmt.Errorf("symptom %d has no name", i)
		}
		key := strings.ToLower(s.Name)
		if _, dup := c.index[key]; dup {
			continue
		}
		c.index[key] = len(c.symptoms)
		c.symptoms = append(c.symptoms, s)
	}
	if len(c.symptoms) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return c, nil
}

// Load reads a YAML catalog. An empty path yields the builtin catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read symptoms file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse symptoms yaml: %w", err)
	}

	c, err := New(f.Symptoms)
	if err != nil {
		return nil, fmt.Errorf("invalid symptoms file %s: %w", path, err)
	}
	return c, nil
}

// All returns the symptoms in catalog order.
func (c *Catalog) All() []Symptom {
	return append([]Symptom(nil), c.symptoms...)
}

// Names returns the symptom names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.symptoms))
	for i, s := range c.symptoms {
		names[i] = s.Name
	}
	return names
}

// Canonical maps a name to its catalog spelling, ignoring case. Unknown
// names are returned trimmed with ok=false; free-form symptoms are allowed.
func (c *Catalog) Canonical(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if i, ok := c.index[strings.ToLower(name)]; ok {
		return c.symptoms[i].Name, true
	}
	return name, false
}
