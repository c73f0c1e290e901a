package engine

import (
	"github.com/robotalks/qnn.go/pkg/fixed"
	"github.com/robotalks/qnn.go/pkg/tensor"
)

// Rectify applies max(0, x) elementwise, preserving width.
func Rectify(in tensor.Acc) tensor.Acc {
	out := make(tensor.Acc, len(in))
	for k, v := range in {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

// Requantize narrows accumulator values into 8-bit activations:
// arithmetic right shift by shift bits, then saturate.
func Requantize(in tensor.Acc, shift uint8) tensor.Vec8 {
	out := make(tensor.Vec8, len(in))
	for k, v := range in {
		out[k] = fixed.SaturateInt8(v >> shift)
	}
	return out
}
