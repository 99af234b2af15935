package plot

import (
	"fmt"
	"sort"

	"github.com/dwhswenson/annotated-trajectories/internal/annotation"
	"github.com/dwhswenson/annotated-trajectories/internal/volume"
)

// #region types
// Kind says how a series is drawn.
type Kind string

const (
	KindTrace   Kind = "trace"   // black line through every frame
	KindSegment Kind = "segment" // colored line over an annotated range
	KindSingle  Kind = "single"  // "+" marker for a one-frame annotation
	KindInState Kind = "instate" // "o" markers on frames inside the proposed state
)

// Series is one drawable line or marker set.
type Series struct {
	Kind   Kind      `json:"kind"`
	Label  string    `json:"label,omitempty"`
	Color  string    `json:"color"`
	Marker string    `json:"marker,omitempty"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
}

// Plot is everything needed to draw an annotated trajectory against a CV.
type Plot struct {
	CV     string   `json:"cv"`
	DT     float64  `json:"dt"`
	Series []Series `json:"series"`
}

// #endregion types

// #region build
// Build lays out the annotated trajectory at against cv. Time on the x axis is
// frame index times dt. Every annotated label needs a non-nil volume; labels
// without a color are drawn in "gray".
func Build(at *annotation.AnnotatedTrajectory, cv volume.CollectiveVariable, volumes map[string]volume.Volume, colors map[string]string, dt float64) (*Plot, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("plot: dt must be positive, got %g", dt)
	}
	var missing []string
	for _, label := range at.StateNames() {
		if volumes[label] == nil {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &annotation.LabelMismatchError{Kind: annotation.MissingProposed, Labels: missing}
	}

	traj := at.Trajectory()
	y := cv.EvalTrajectory(traj)
	p := &Plot{CV: cv.Name, DT: dt}
	p.Series = append(p.Series, Series{Kind: KindTrace, Color: "black", X: times(seq(traj.Len()), dt), Y: y})

	for _, label := range at.StateNames() {
		color := colors[label]
		if color == "" {
			color = "gray"
		}
		for _, idxs := range at.SegmentIdxs(label) {
			s := Series{Kind: KindSegment, Label: label, Color: color, X: times(idxs, dt), Y: pick(y, idxs)}
			if len(idxs) == 1 {
				s.Kind = KindSingle
				s.Marker = "+"
			}
			p.Series = append(p.Series, s)
		}

		vol := volumes[label]
		var in []int
		for i := 0; i < traj.Len(); i++ {
			if vol.Contains(traj.At(i)) {
				in = append(in, i)
			}
		}
		p.Series = append(p.Series, Series{Kind: KindInState, Label: label, Color: color, Marker: "o", X: times(in, dt), Y: pick(y, in)})
	}
	return p, nil
}

// #endregion build

// #region helpers
func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func times(idxs []int, dt float64) []float64 {
	out := make([]float64, len(idxs))
	for k, i := range idxs {
		out[k] = float64(i) * dt
	}
	return out
}

func pick(y []float64, idxs []int) []float64 {
	out := make([]float64, len(idxs))
	for k, i := range idxs {
		out[k] = y[i]
	}
	return out
}

// #endregion helpers
