package engine

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/qnn.go/pkg/fixed"
	"github.com/robotalks/qnn.go/pkg/model"
	"github.com/robotalks/qnn.go/pkg/tensor"
)

func mustModel(t *testing.T, layers []model.Layer) *model.Model {
	m, err := model.Build(layers)
	require.NoError(t, err)
	return m
}

func TestDotCompute(t *testing.T) {
	layers := model.ZeroLayers(3, 2, 2)
	// weight(i, j): row i fans out to outputs j.
	layers[0].Weights = []int8{
		1, -1,
		2, -2,
		3, -3,
	}
	layers[0].Biases = []int32{10, -10}
	m := mustModel(t, layers)
	e, err := NewDotEngine(fixed.RequiredWidth(3))
	require.NoError(t, err)

	out, err := e.Compute(m.Layer(model.LayerHidden), tensor.Vec8{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, tensor.Acc{1 + 4 + 9 + 10, -1 - 4 - 9 - 10}, out)
}

func TestDotShapeError(t *testing.T) {
	m := mustModel(t, model.ZeroLayers(8, 4, 2))
	e, err := NewDotEngine(fixed.RequiredWidth(8))
	require.NoError(t, err)

	_, err = e.Compute(m.Layer(model.LayerHidden), tensor.Vec8{1, 2, 3})
	var shapeErr *tensor.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	require.Equal(t, tensor.RoleInput, shapeErr.Role)
	require.Equal(t, 8, shapeErr.Expected)

	_, err = e.Compute(m.Layer(model.LayerOutput), make(tensor.Vec8, 5))
	require.True(t, errors.As(err, &shapeErr))
	require.Equal(t, tensor.RoleHidden, shapeErr.Role)
}

func TestDotNeverFailsOnValidInput(t *testing.T) {
	const n, h = 8, 4
	layers := model.ZeroLayers(n, h, 2)
	rnd := rand.New(rand.NewSource(1))
	for i := range layers[0].Weights {
		layers[0].Weights[i] = int8(rnd.Intn(256) - 128)
	}
	m := mustModel(t, layers)
	e, err := NewDotEngine(fixed.RequiredWidth(n))
	require.NoError(t, err)
	for round := 0; round < 200; round++ {
		in := make(tensor.Vec8, n)
		for i := range in {
			in[i] = int8(rnd.Intn(256) - 128)
		}
		out, err := e.Compute(m.Layer(model.LayerHidden), in)
		require.NoError(t, err)
		require.Len(t, out, h)
	}
}

func TestDotSaturation(t *testing.T) {
	const n = 8
	layers := model.ZeroLayers(n, 1, 1)
	for i := range layers[0].Weights {
		layers[0].Weights[i] = -128
	}
	m := mustModel(t, layers)
	in := make(tensor.Vec8, n)
	for i := range in {
		in[i] = -128
	}

	narrow, err := NewDotEngine(16)
	require.NoError(t, err)
	out, err := narrow.Compute(m.Layer(model.LayerHidden), in)
	require.NoError(t, err)
	require.Equal(t, tensor.Acc{32767}, out, "must clamp, not wrap")

	wide, err := NewDotEngine(fixed.RequiredWidth(n))
	require.NoError(t, err)
	out, err = wide.Compute(m.Layer(model.LayerHidden), in)
	require.NoError(t, err)
	require.Equal(t, tensor.Acc{n * 16384}, out)

	for i := range in {
		in[i] = 127
	}
	out, err = narrow.Compute(m.Layer(model.LayerHidden), in)
	require.NoError(t, err)
	require.Equal(t, tensor.Acc{-32768}, out)
}

func TestDotBiasSaturation(t *testing.T) {
	layers := model.ZeroLayers(1, 2, 1)
	layers[0].Biases = []int32{1 << 20, -(1 << 20)}
	m := mustModel(t, layers)
	e, err := NewDotEngine(16)
	require.NoError(t, err)
	out, err := e.Compute(m.Layer(model.LayerHidden), tensor.Vec8{0})
	require.NoError(t, err)
	require.Equal(t, tensor.Acc{32767, -32768}, out)
}

func TestRectify(t *testing.T) {
	in := tensor.Acc{-5, 0, 7, -2147483648, 2147483647}
	out := Rectify(in)
	require.Len(t, out, len(in))
	for k := range in {
		require.True(t, out[k] >= 0)
		if in[k] >= 0 {
			require.Equal(t, in[k], out[k])
		} else {
			require.Equal(t, int32(0), out[k])
		}
	}
}

func TestRequantize(t *testing.T) {
	require.Equal(t, tensor.Vec8{0, 1, 127, 127}, Requantize(tensor.Acc{0, 1, 127, 128}, 0))
	require.Equal(t, tensor.Vec8{0, 2, 31, 127}, Requantize(tensor.Acc{3, 8, 127, 1024}, 2))
	require.Equal(t, tensor.Vec8{-1, -128}, Requantize(tensor.Acc{-1, -1000}, 1))
}

func TestNewNormalizer(t *testing.T) {
	_, err := NewNormalizer(0, 2)
	require.Error(t, err)
	_, err = NewNormalizer(256, 2)
	require.Error(t, err)
	_, err = NewNormalizer(3, 4)
	require.Error(t, err)
	n, err := NewNormalizer(DefaultScale, 2)
	require.NoError(t, err)
	require.Equal(t, 255, n.Scale)
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name    string
		scale   int
		in      tensor.Acc
		expect  tensor.Dist
		guarded bool
	}{
		{"all zero", 255, tensor.Acc{0, 0}, tensor.Dist{128, 128}, true},
		{"all zero 3", 255, tensor.Acc{0, 0, 0}, tensor.Dist{85, 85, 85}, true},
		{"all zero 4", 255, tensor.Acc{0, 0, 0, 0}, tensor.Dist{64, 64, 64, 64}, true},
		{"all negative", 255, tensor.Acc{-3, -9}, tensor.Dist{128, 128}, true},
		{"single", 255, tensor.Acc{10, 0}, tensor.Dist{255, 0}, false},
		{"negative ignored", 255, tensor.Acc{10, -10}, tensor.Dist{255, 0}, false},
		{"halves", 255, tensor.Acc{1, 1}, tensor.Dist{128, 128}, false},
		{"thirds", 255, tensor.Acc{1, 1, 1}, tensor.Dist{85, 85, 85}, false},
		{"skewed", 255, tensor.Acc{3, 1}, tensor.Dist{191, 64}, false},
		{"scale 100", 100, tensor.Acc{1, 2, 7}, tensor.Dist{10, 20, 70}, false},
		{"large", 255, tensor.Acc{2147483647, 2147483647}, tensor.Dist{128, 128}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := NewNormalizer(tc.scale, len(tc.in))
			require.NoError(t, err)
			out, guarded := n.Normalize(tc.in)
			require.Equal(t, tc.expect, out)
			require.Equal(t, tc.guarded, guarded)
		})
	}
}

func TestNormalizeSumBound(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for round := 0; round < 500; round++ {
		c := 1 + rnd.Intn(10)
		n, err := NewNormalizer(DefaultScale, c)
		require.NoError(t, err)
		in := make(tensor.Acc, c)
		var nonZero bool
		for k := range in {
			in[k] = int32(rnd.Intn(1 << 20))
			nonZero = nonZero || in[k] > 0
		}
		if !nonZero {
			continue
		}
		out, guarded := n.Normalize(in)
		require.False(t, guarded)
		diff := out.Sum() - DefaultScale
		if diff < 0 {
			diff = -diff
		}
		require.Truef(t, diff <= c-1, "sum %d of %v deviates more than %d", out.Sum(), out, c-1)
		for _, v := range out {
			require.True(t, int(v) <= DefaultScale)
		}
	}
}
