package model

import "fmt"

// Activation is the kind of nonlinearity following a layer.
type Activation uint8

// Activations
const (
	ActivationNone Activation = iota
	ActivationRectify
	ActivationNormalize
)

var activationNames = [...]string{"none", "rectify", "normalize"}

// String implements Stringer.
func (a Activation) String() string {
	if int(a) < len(activationNames) {
		return activationNames[a]
	}
	return fmt.Sprintf("activation(%d)", uint8(a))
}

// IsValid checks if it's a known activation.
func (a Activation) IsValid() bool {
	return int(a) < len(activationNames)
}

// MarshalText implements encoding.TextMarshaler.
func (a Activation) MarshalText() ([]byte, error) {
	if !a.IsValid() {
		return nil, fmt.Errorf("unknown activation %d", uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Activation) UnmarshalText(text []byte) error {
	for n, name := range activationNames {
		if name == string(text) {
			*a = Activation(n)
			return nil
		}
	}
	return fmt.Errorf("unknown activation %q", string(text))
}

// Layer is one stage of the topology.
// Weights are row-major: Weights[i*OutDim+j] connects input i to output j.
type Layer struct {
	Name       string
	InDim      int
	OutDim     int
	Activation Activation
	// Shift is the arithmetic right shift applied when requantizing
	// the rectified output of this layer into 8-bit activations.
	Shift   uint8
	Weights []int8
	Biases  []int32
}

// Weight looks up the weight connecting input i to output j.
func (l *Layer) Weight(i, j int) int8 {
	return l.Weights[i*l.OutDim+j]
}

// Bias looks up the bias of output j.
func (l *Layer) Bias(j int) int32 {
	return l.Biases[j]
}

// Row returns the weights fanning out of input i.
func (l *Layer) Row(i int) []int8 {
	off := i * l.OutDim
	return l.Weights[off : off+l.OutDim : off+l.OutDim]
}
