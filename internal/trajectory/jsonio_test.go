package trajectory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONPositions(t *testing.T) {
	traj, err := ReadJSON(strings.NewReader(" [-1, 1, 4]\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 1, 4}, xs(traj))
	assert.Equal(t, [3]float64{1, 0, 0}, traj.At(0).Velocities[0])
}

func TestReadJSONFrames(t *testing.T) {
	in := `{"frames": [
		{"coordinates": [[0, 1, 2], [3, 4, 5]], "velocities": [[1, 0, 0], [0, 1, 0]]},
		{"coordinates": [[6, 7, 8], [9, 10, 11]]}
	]}`
	traj, err := ReadJSON(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 2, traj.Len())
	assert.Equal(t, 2, traj.At(1).NAtoms())
	assert.Equal(t, [3]float64{9, 10, 11}, traj.At(1).Coordinates[1])
	assert.Nil(t, traj.At(1).Velocities)
	assert.NotEqual(t, traj.At(0).ID, traj.At(1).ID)
}

func TestReadJSONErrors(t *testing.T) {
	for name, in := range map[string]string{
		"bad positions":  `[1, "two"]`,
		"not json":       `frames`,
		"velocity count": `{"frames": [{"coordinates": [[0, 0, 0]], "velocities": [[1, 0, 0], [1, 0, 0]]}]}`,
	} {
		_, err := ReadJSON(strings.NewReader(in))
		assert.Error(t, err, name)
	}
}

func TestReadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traj.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1, 2, 3]`), 0o644))

	traj, err := ReadJSONFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, traj.Len())

	_, err = ReadJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
