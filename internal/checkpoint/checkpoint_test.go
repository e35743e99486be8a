package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func param(t *testing.T, backend *cpu.Backend, name string, values []float32) *nn.Parameter[*cpu.Backend] {
	t.Helper()
	x, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	return nn.NewParameter(name, x)
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "model.ckpt")

	params := []*nn.Parameter[*cpu.Backend]{
		param(t, backend, "weight", []float32{1.5, -2.25, 0.125}),
		param(t, backend, "bias", []float32{0.5}),
	}
	require.NoError(t, Save(path, params))

	// Perturb in place, then restore from disk.
	params[0].Tensor().Raw().AsFloat32()[1] = 99
	params[1].Tensor().Raw().AsFloat32()[0] = -1

	require.NoError(t, Load(path, params))
	assert.Equal(t, []float32{1.5, -2.25, 0.125}, params[0].Tensor().Raw().AsFloat32())
	assert.Equal(t, []float32{0.5}, params[1].Tensor().Raw().AsFloat32())
}

func TestLoad_NameMismatch(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "model.ckpt")

	saved := []*nn.Parameter[*cpu.Backend]{param(t, backend, "weight", []float32{1})}
	require.NoError(t, Save(path, saved))

	other := []*nn.Parameter[*cpu.Backend]{param(t, backend, "bias", []float32{1})}
	assert.Error(t, Load(path, other))
}

func TestLoad_CountMismatch(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "model.ckpt")

	saved := []*nn.Parameter[*cpu.Backend]{param(t, backend, "weight", []float32{1})}
	require.NoError(t, Save(path, saved))

	two := []*nn.Parameter[*cpu.Backend]{
		param(t, backend, "weight", []float32{1}),
		param(t, backend, "bias", []float32{0}),
	}
	assert.Error(t, Load(path, two))
}

func TestLoad_ShapeMismatch(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "model.ckpt")

	// Same element count, different shape.
	flat, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4}, backend)
	require.NoError(t, err)
	require.NoError(t, Save(path, []*nn.Parameter[*cpu.Backend]{nn.NewParameter("weight", flat)}))

	square, err := tensor.FromSlice([]float32{0, 0, 0, 0}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	assert.Error(t, Load(path, []*nn.Parameter[*cpu.Backend]{nn.NewParameter("weight", square)}))
}

func TestLoad_SizeMismatch(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "model.ckpt")

	saved := []*nn.Parameter[*cpu.Backend]{param(t, backend, "weight", []float32{1, 2, 3})}
	require.NoError(t, Save(path, saved))

	short := []*nn.Parameter[*cpu.Backend]{param(t, backend, "weight", []float32{1, 2})}
	assert.Error(t, Load(path, short))
}

func TestLoad_MissingFile(t *testing.T) {
	backend := cpu.New()
	params := []*nn.Parameter[*cpu.Backend]{param(t, backend, "weight", []float32{1})}
	assert.Error(t, Load(filepath.Join(t.TempDir(), "absent.ckpt"), params))
}
