package volume

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// #region definition-types
// CVDefinition describes a coordinate collective variable.
type CVDefinition struct {
	Atom int `yaml:"atom"`
	Dim  int `yaml:"dim"`
}

// StateDefinition describes a proposed state as a CV range.
type StateDefinition struct {
	CV    string  `yaml:"cv"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Color string  `yaml:"color,omitempty"`
}

// Definitions is the top-level structure of a states file:
//
//	cvs:
//	  x: {atom: 0, dim: 0}
//	states:
//	  1-digit: {cv: x, min: 0, max: 9, color: b}
type Definitions struct {
	CVs    map[string]CVDefinition    `yaml:"cvs"`
	States map[string]StateDefinition `yaml:"states"`
}

// #endregion definition-types

// #region load
// LoadDefinitions reads and parses a YAML states file.
func LoadDefinitions(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions %s: %w", path, err)
	}
	return ParseDefinitions(data)
}

// ParseDefinitions parses YAML state definitions.
func ParseDefinitions(data []byte) (*Definitions, error) {
	var d Definitions
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	if len(d.States) == 0 {
		return nil, fmt.Errorf("parse definitions: no states defined")
	}
	return &d, nil
}

// #endregion load

// #region build
// CV returns the named collective variable.
func (d *Definitions) CV(name string) (CollectiveVariable, error) {
	def, ok := d.CVs[name]
	if !ok {
		return CollectiveVariable{}, fmt.Errorf("unknown cv %q", name)
	}
	if def.Dim < 0 || def.Dim > 2 || def.Atom < 0 {
		return CollectiveVariable{}, fmt.Errorf("cv %q: invalid atom %d / dim %d", name, def.Atom, def.Dim)
	}
	return Coordinate(name, def.Atom, def.Dim), nil
}

// Check reports the first cv whose atom is missing from frames with nAtoms
// atoms. Coordinate CVs index frames directly, so call it before evaluating
// volumes on a non-empty trajectory.
func (d *Definitions) Check(nAtoms int) error {
	names := make([]string, 0, len(d.CVs))
	for name := range d.CVs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if atom := d.CVs[name].Atom; atom >= nAtoms {
			return fmt.Errorf("cv %q: atom %d out of range for %d atoms", name, atom, nAtoms)
		}
	}
	return nil
}

// Volumes builds one CVRange volume per state.
func (d *Definitions) Volumes() (map[string]Volume, error) {
	out := make(map[string]Volume, len(d.States))
	for _, label := range d.Labels() {
		st := d.States[label]
		if st.Max <= st.Min {
			return nil, fmt.Errorf("state %q: max %g must exceed min %g", label, st.Max, st.Min)
		}
		cv, err := d.CV(st.CV)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", label, err)
		}
		out[label] = CVRange{CV: cv, Min: st.Min, Max: st.Max}
	}
	return out, nil
}

// Colors returns the display color of each state that sets one.
func (d *Definitions) Colors() map[string]string {
	out := make(map[string]string)
	for label, st := range d.States {
		if st.Color != "" {
			out[label] = st.Color
		}
	}
	return out
}

// Labels returns the state labels, sorted.
func (d *Definitions) Labels() []string {
	labels := make([]string, 0, len(d.States))
	for l := range d.States {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// #endregion build
