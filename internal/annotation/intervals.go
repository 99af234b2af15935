package annotation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// #region write
// WriteJSON writes the annotations as a JSON array of [state, begin, end] triples.
func (at *AnnotatedTrajectory) WriteJSON(w io.Writer) error {
	data, err := json.Marshal(at.Annotations())
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write annotations: %w", err)
	}
	return nil
}

// WriteJSONFile writes the annotations to the named file.
func (at *AnnotatedTrajectory) WriteJSONFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := at.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// #endregion write

// #region read
// ReadJSON reads [state, begin, end] triples. Duplicate triples collapse;
// the first occurrence keeps its position.
func ReadJSON(r io.Reader) ([]Annotation, error) {
	var raw []Annotation
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode annotations: %w", err)
	}
	seen := make(map[Annotation]struct{}, len(raw))
	out := make([]Annotation, 0, len(raw))
	for _, a := range raw {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

// ReadJSONFile reads annotations from the named file.
func ReadJSONFile(path string) ([]Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	anns, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return anns, nil
}

// LoadJSONFile reads annotations from the named file and adds them.
func (at *AnnotatedTrajectory) LoadJSONFile(path string) error {
	anns, err := ReadJSONFile(path)
	if err != nil {
		return err
	}
	return at.AddAnnotations(anns...)
}

// #endregion read
