package trajectory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// #region json-types
type jsonFrame struct {
	Coordinates [][3]float64 `json:"coordinates"`
	Velocities  [][3]float64 `json:"velocities,omitempty"`
}

type jsonTrajectory struct {
	Frames []jsonFrame `json:"frames"`
}

// #endregion json-types

// #region read
// ReadJSON reads a trajectory in one of two forms: a bare array of numbers,
// taken as 1-D positions (see OneD), or {"frames": [{"coordinates": [[x,y,z],
// ...], "velocities": [...]}, ...]}.
func ReadJSON(r io.Reader) (*Trajectory, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read trajectory: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var positions []float64
		if err := json.Unmarshal(trimmed, &positions); err != nil {
			return nil, fmt.Errorf("parse positions: %w", err)
		}
		return OneD(positions), nil
	}

	var jt jsonTrajectory
	if err := json.Unmarshal(trimmed, &jt); err != nil {
		return nil, fmt.Errorf("parse trajectory: %w", err)
	}
	frames := make([]Snapshot, len(jt.Frames))
	for i, f := range jt.Frames {
		if len(f.Velocities) > 0 && len(f.Velocities) != len(f.Coordinates) {
			return nil, fmt.Errorf("parse trajectory: frame %d has %d velocities for %d atoms", i, len(f.Velocities), len(f.Coordinates))
		}
		frames[i] = NewSnapshot(f.Coordinates, f.Velocities)
	}
	return New(frames), nil
}

// ReadJSONFile reads a trajectory JSON file.
func ReadJSONFile(path string) (*Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trajectory %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// #endregion read
