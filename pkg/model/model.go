// Package model provides the read-only weight store of the accelerator
// and codecs for the quantized model artifact.
package model

// Topology layer indices.
const (
	LayerHidden = 0
	LayerOutput = 1
	NumLayers   = 2
)

// Model is the immutable weight store. All weights live in one arena
// and all biases in another; layers index into them by offset.
type Model struct {
	layers  []Layer
	weights []int8
	biases  []int32
}

// Build validates the layers and copies them into a new Model.
// The passed-in slices are not retained.
func Build(layers []Layer) (*Model, error) {
	if len(layers) != NumLayers {
		return nil, malformed(-1, "expect %d layers, got %d", NumLayers, len(layers))
	}
	var wLen, bLen int
	for n := range layers {
		l := &layers[n]
		if l.InDim <= 0 || l.OutDim <= 0 {
			return nil, malformed(n, "invalid dimensions %dx%d", l.InDim, l.OutDim)
		}
		if len(l.Weights) != l.InDim*l.OutDim {
			return nil, malformed(n, "expect %d weights for %dx%d, got %d",
				l.InDim*l.OutDim, l.InDim, l.OutDim, len(l.Weights))
		}
		if len(l.Biases) != l.OutDim {
			return nil, malformed(n, "expect %d biases, got %d", l.OutDim, len(l.Biases))
		}
		if !l.Activation.IsValid() {
			return nil, malformed(n, "unknown activation %d", uint8(l.Activation))
		}
		if l.Shift > 31 {
			return nil, malformed(n, "shift %d out of range", l.Shift)
		}
		if n > 0 && layers[n-1].OutDim != l.InDim {
			return nil, mismatch(n, "input dimension %d doesn't match output dimension %d of layer %d",
				l.InDim, layers[n-1].OutDim, n-1)
		}
		wLen += len(l.Weights)
		bLen += len(l.Biases)
	}
	if a := layers[LayerHidden].Activation; a != ActivationRectify {
		return nil, malformed(LayerHidden, "expect activation %s, got %s", ActivationRectify, a)
	}
	if a := layers[LayerOutput].Activation; a != ActivationNormalize {
		return nil, malformed(LayerOutput, "expect activation %s, got %s", ActivationNormalize, a)
	}

	m := &Model{
		layers:  make([]Layer, len(layers)),
		weights: make([]int8, 0, wLen),
		biases:  make([]int32, 0, bLen),
	}
	for n, l := range layers {
		wOff, bOff := len(m.weights), len(m.biases)
		m.weights = append(m.weights, l.Weights...)
		m.biases = append(m.biases, l.Biases...)
		l.Weights = m.weights[wOff:len(m.weights):len(m.weights)]
		l.Biases = m.biases[bOff:len(m.biases):len(m.biases)]
		if l.Name == "" {
			l.Name = defaultLayerNames[n]
		}
		m.layers[n] = l
	}
	return m, nil
}

var defaultLayerNames = [NumLayers]string{"hidden", "output"}

// Layer gets the layer at index. The returned Layer shares the
// weight store and must not be modified.
func (m *Model) Layer(index int) *Layer {
	return &m.layers[index]
}

// Layers returns all layers in topology order.
func (m *Model) Layers() []Layer {
	return m.layers
}

// Weight looks up a weight by (layer, input, output) index.
func (m *Model) Weight(layer, i, j int) int8 {
	return m.layers[layer].Weight(i, j)
}

// Bias looks up a bias by (layer, output) index.
func (m *Model) Bias(layer, j int) int32 {
	return m.layers[layer].Bias(j)
}

// InputDim is N.
func (m *Model) InputDim() int {
	return m.layers[LayerHidden].InDim
}

// HiddenDim is H.
func (m *Model) HiddenDim() int {
	return m.layers[LayerHidden].OutDim
}

// OutputDim is C.
func (m *Model) OutputDim() int {
	return m.layers[LayerOutput].OutDim
}

// NumParams counts weights and biases.
func (m *Model) NumParams() int {
	return len(m.weights) + len(m.biases)
}

// CheckDims validates the model topology against the configured one.
func (m *Model) CheckDims(inputDim, hiddenDim, outputDim int) error {
	if m.InputDim() != inputDim {
		return mismatch(LayerHidden, "model input dimension %d, configured %d", m.InputDim(), inputDim)
	}
	if m.HiddenDim() != hiddenDim {
		return mismatch(LayerHidden, "model hidden dimension %d, configured %d", m.HiddenDim(), hiddenDim)
	}
	if m.OutputDim() != outputDim {
		return mismatch(LayerOutput, "model output dimension %d, configured %d", m.OutputDim(), outputDim)
	}
	return nil
}

// ZeroLayers builds the layer set of the fixed topology with zeroed
// parameters, for artifact generation and tests.
func ZeroLayers(inputDim, hiddenDim, outputDim int) []Layer {
	return []Layer{
		{
			InDim:      inputDim,
			OutDim:     hiddenDim,
			Activation: ActivationRectify,
			Weights:    make([]int8, inputDim*hiddenDim),
			Biases:     make([]int32, hiddenDim),
		},
		{
			InDim:      hiddenDim,
			OutDim:     outputDim,
			Activation: ActivationNormalize,
			Weights:    make([]int8, hiddenDim*outputDim),
			Biases:     make([]int32, outputDim),
		},
	}
}
