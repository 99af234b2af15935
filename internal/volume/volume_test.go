package volume

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
)

func TestCVRangeHalfOpen(t *testing.T) {
	traj := trajectory.OneD([]float64{-1, 0, 5, 9, 10})
	v := CVRange{CV: Coordinate("x", 0, 0), Min: 0, Max: 9}

	var got []bool
	for i := 0; i < traj.Len(); i++ {
		got = append(got, v.Contains(traj.At(i)))
	}
	assert.Equal(t, []bool{false, true, true, false, false}, got)
}

func TestEvalTrajectory(t *testing.T) {
	traj := trajectory.OneD([]float64{3, 1, 4})
	assert.Equal(t, []float64{3, 1, 4}, Coordinate("x", 0, 0).EvalTrajectory(traj))
}

func TestFuncAndEmpty(t *testing.T) {
	s := trajectory.OneD([]float64{1}).At(0)

	assert.True(t, Func(func(trajectory.Snapshot) bool { return true }).Contains(s))
	assert.False(t, Empty{}.Contains(s))
}

func TestMembershipFromMask(t *testing.T) {
	traj := trajectory.OneD([]float64{1, 2, 3})

	m, err := FromMask(traj, []bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Contains(traj.At(0)))
	assert.False(t, m.Contains(traj.At(1)))
	assert.True(t, m.Contains(traj.At(2)))

	other := trajectory.OneD([]float64{1})
	assert.False(t, m.Contains(other.At(0)))

	_, err = FromMask(traj, []bool{true})
	assert.Error(t, err)
}

const digitsYAML = `
cvs:
  x: {atom: 0, dim: 0}
states:
  1-digit: {cv: x, min: 0, max: 9, color: b}
  2-digit: {cv: x, min: 10, max: 99, color: c}
  3-digit: {cv: x, min: 100, max: 999}
`

func TestDefinitionsVolumes(t *testing.T) {
	defs, err := ParseDefinitions([]byte(digitsYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"1-digit", "2-digit", "3-digit"}, defs.Labels())
	assert.Equal(t, map[string]string{"1-digit": "b", "2-digit": "c"}, defs.Colors())

	vols, err := defs.Volumes()
	require.NoError(t, err)
	require.Len(t, vols, 3)

	traj := trajectory.OneD([]float64{4, 11, 205})
	assert.True(t, vols["1-digit"].Contains(traj.At(0)))
	assert.True(t, vols["2-digit"].Contains(traj.At(1)))
	assert.True(t, vols["3-digit"].Contains(traj.At(2)))
	assert.False(t, vols["3-digit"].Contains(traj.At(1)))
}

func TestDefinitionsErrors(t *testing.T) {
	_, err := ParseDefinitions([]byte("states: {}"))
	assert.Error(t, err)

	_, err = ParseDefinitions([]byte("states: [not, a, map]"))
	assert.Error(t, err)

	defs, err := ParseDefinitions([]byte("states:\n  a: {cv: y, min: 0, max: 1}\n"))
	require.NoError(t, err)
	_, err = defs.Volumes()
	assert.Error(t, err, "unknown cv")

	defs, err = ParseDefinitions([]byte("cvs:\n  x: {atom: 0, dim: 0}\nstates:\n  a: {cv: x, min: 2, max: 1}\n"))
	require.NoError(t, err)
	_, err = defs.Volumes()
	assert.Error(t, err, "empty range")

	defs, err = ParseDefinitions([]byte("cvs:\n  x: {atom: 0, dim: 3}\nstates:\n  a: {cv: x, min: 0, max: 1}\n"))
	require.NoError(t, err)
	_, err = defs.Volumes()
	assert.Error(t, err, "bad dim")
}

func TestLoadDefinitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.yaml")
	require.NoError(t, os.WriteFile(path, []byte(digitsYAML), 0o644))

	defs, err := LoadDefinitions(path)
	require.NoError(t, err)
	assert.Len(t, defs.States, 3)

	_, err = LoadDefinitions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefinitionsCheckAtoms(t *testing.T) {
	defs, err := ParseDefinitions([]byte("cvs:\n  x: {atom: 0, dim: 0}\n  y: {atom: 1, dim: 0}\nstates:\n  a: {cv: y, min: 0, max: 1}\n"))
	require.NoError(t, err)

	assert.NoError(t, defs.Check(2))
	assert.EqualError(t, defs.Check(1), `cv "y": atom 1 out of range for 1 atoms`)
	assert.EqualError(t, defs.Check(0), `cv "x": atom 0 out of range for 0 atoms`)
}

func TestNilMembership(t *testing.T) {
	var m *Membership
	var v Volume = m

	snap := trajectory.OneD([]float64{1}).At(0)
	assert.False(t, v.Contains(snap))
	assert.Equal(t, 0, m.Len())
}
