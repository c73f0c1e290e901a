package model

import (
	"bytes"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLayers() []Layer {
	layers := ZeroLayers(3, 2, 2)
	for i := range layers[0].Weights {
		layers[0].Weights[i] = int8(i - 3)
	}
	layers[0].Biases = []int32{-100000, 7}
	layers[0].Shift = 2
	layers[1].Weights = []int8{-128, 127, 1, -1}
	layers[1].Biases = []int32{1, -1}
	return layers
}

func TestBuild(t *testing.T) {
	layers := testLayers()
	m, err := Build(layers)
	require.NoError(t, err)
	require.Equal(t, 3, m.InputDim())
	require.Equal(t, 2, m.HiddenDim())
	require.Equal(t, 2, m.OutputDim())
	require.Equal(t, 6+2+4+2, m.NumParams())
	require.Equal(t, "hidden", m.Layer(LayerHidden).Name)
	require.Equal(t, "output", m.Layer(LayerOutput).Name)

	// weight(layer, i, j) is row-major over (input, output).
	require.Equal(t, int8(-3), m.Weight(0, 0, 0))
	require.Equal(t, int8(-2), m.Weight(0, 0, 1))
	require.Equal(t, int8(-1), m.Weight(0, 1, 0))
	require.Equal(t, int8(2), m.Weight(0, 2, 1))
	require.Equal(t, []int8{1, -1}, m.Layer(1).Row(1))
	require.Equal(t, int32(-100000), m.Bias(0, 0))
	require.Equal(t, int32(-1), m.Bias(1, 1))

	// the model doesn't retain the source slices.
	layers[0].Weights[0] = 100
	layers[1].Biases[0] = 100
	require.Equal(t, int8(-3), m.Weight(0, 0, 0))
	require.Equal(t, int32(1), m.Bias(1, 0))
}

func TestBuildErrors(t *testing.T) {
	testCases := []struct {
		name   string
		modify func([]Layer) []Layer
		kind   error
	}{
		{"one layer", func(l []Layer) []Layer { return l[:1] }, ErrMalformedModel},
		{"weight count", func(l []Layer) []Layer { l[0].Weights = l[0].Weights[1:]; return l }, ErrMalformedModel},
		{"bias count", func(l []Layer) []Layer { l[1].Biases = append(l[1].Biases, 0); return l }, ErrMalformedModel},
		{"zero dim", func(l []Layer) []Layer { l[0].InDim, l[0].Weights = 0, nil; return l }, ErrMalformedModel},
		{"bad activation", func(l []Layer) []Layer { l[1].Activation = 9; return l }, ErrMalformedModel},
		{"hidden not rectified", func(l []Layer) []Layer { l[0].Activation = ActivationNone; return l }, ErrMalformedModel},
		{"output not normalized", func(l []Layer) []Layer { l[1].Activation = ActivationRectify; return l }, ErrMalformedModel},
		{"shift", func(l []Layer) []Layer { l[0].Shift = 32; return l }, ErrMalformedModel},
		{
			"chain",
			func(l []Layer) []Layer {
				l[1].InDim, l[1].Weights = 3, make([]int8, 6)
				return l
			},
			ErrDimensionMismatch,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.modify(testLayers()))
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.kind), "unexpected error %v", err)
		})
	}
}

func TestCheckDims(t *testing.T) {
	m, err := Build(testLayers())
	require.NoError(t, err)
	require.NoError(t, m.CheckDims(3, 2, 2))
	require.True(t, errors.Is(m.CheckDims(4, 2, 2), ErrDimensionMismatch))
	require.True(t, errors.Is(m.CheckDims(3, 3, 2), ErrDimensionMismatch))
	require.True(t, errors.Is(m.CheckDims(3, 2, 3), ErrDimensionMismatch))
}

func TestCodecs(t *testing.T) {
	for _, format := range []Format{FormatBinary, FormatProtobuf, FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, format, testLayers()))
			m, err := Load(&buf, format)
			require.NoError(t, err)
			expected, err := Build(testLayers())
			require.NoError(t, err)
			require.Equal(t, expected.Layers(), m.Layers())
		})
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"m.qnn", "m.pb", "m.yaml", "m.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveFile(path, testLayers()))
		m, err := LoadFile(path)
		require.NoError(t, err)
		require.Equal(t, 3, m.InputDim())
		require.Equal(t, uint8(2), m.Layer(0).Shift)
	}
	_, err := LoadFile(filepath.Join(dir, "m.txt"))
	require.Error(t, err)
	_, err = LoadFile(filepath.Join(dir, "missing.qnn"))
	require.Error(t, err)
}

func TestDecodeBinaryMalformed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeBinary(&buf, testLayers()))
	data := buf.Bytes()

	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("QNN0"), data[4:]...)},
		{"truncated header", data[:5]},
		{"truncated layer", data[:len(data)-20]},
		{"truncated biases", data[:len(data)-1]},
		{"trailing", append(append([]byte{}, data...), 0)},
		{"zero layers", []byte{'Q', 'N', 'N', '1', 0, 0}},
		{"huge dims no payload", hugeHeader()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeBinary(bytes.NewReader(tc.data))
			require.True(t, errors.Is(err, ErrMalformedModel), "unexpected error %v", err)
		})
	}
}

func hugeHeader() []byte {
	return []byte{'Q', 'N', 'N', '1', 2, 0, 0xff, 0xff, 0xff, 0xff, 1, 0}
}

func TestDecodeBinaryBoundedAlloc(t *testing.T) {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := DecodeBinary(bytes.NewReader(hugeHeader()))
	runtime.ReadMemStats(&after)
	require.True(t, errors.Is(err, ErrMalformedModel), "unexpected error %v", err)
	require.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestDecodeYAMLCountMismatch(t *testing.T) {
	doc := `
layers:
  - in_dim: 2
    out_dim: 1
    activation: rectify
    weights: [1, 2, 3]
    biases: [0]
  - in_dim: 1
    out_dim: 1
    activation: normalize
    weights: [1]
    biases: [0]
`
	_, err := Load(bytes.NewBufferString(doc), FormatYAML)
	require.True(t, errors.Is(err, ErrMalformedModel), "unexpected error %v", err)

	_, err = Load(bytes.NewBufferString("layers: [{activation: sigmoid}]"), FormatYAML)
	require.True(t, errors.Is(err, ErrMalformedModel), "unexpected error %v", err)
}

func TestFormat(t *testing.T) {
	f, err := FormatFromPath("/a/b/model.YML")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, f)
	f, err = ParseFormat("PB")
	require.NoError(t, err)
	require.Equal(t, FormatProtobuf, f)
	_, err = ParseFormat("onnx")
	require.Error(t, err)
}

func TestActivationText(t *testing.T) {
	var a Activation
	require.NoError(t, a.UnmarshalText([]byte("normalize")))
	require.Equal(t, ActivationNormalize, a)
	require.Error(t, a.UnmarshalText([]byte("tanh")))
	_, err := Activation(7).MarshalText()
	require.Error(t, err)
	require.Equal(t, "activation(7)", Activation(7).String())
}
