package engine

import (
	"fmt"

	"github.com/robotalks/qnn.go/pkg/tensor"
)

// DefaultScale is the default fixed-point scale of the distribution,
// the full range of an unsigned byte.
const DefaultScale = 255

// Normalizer is the quantized softmax. It is a linear proxy rather than
// an exponential softmax: out[k] = round(in[k]*Scale/sum(in)) over the
// non-negative scores, negative scores counting as zero. Independent
// rounding lets the sum deviate from Scale by up to len(in)-1; the
// result is not renormalized.
type Normalizer struct {
	Scale int
}

// NewNormalizer creates a Normalizer after validating the scale
// against the output dimension. Scale must be at least outputDim so
// that a valid distribution is never all zeros.
func NewNormalizer(scale, outputDim int) (*Normalizer, error) {
	if scale <= 0 || scale > 255 {
		return nil, fmt.Errorf("response scale %d out of range [1, 255]", scale)
	}
	if outputDim <= 0 || scale < outputDim {
		return nil, fmt.Errorf("response scale %d must not be less than output dimension %d", scale, outputDim)
	}
	return &Normalizer{Scale: scale}, nil
}

// Normalize converts raw scores into the distribution.
// guarded reports whether the all-zero guard was applied, in which case
// every element is the uniform share round(Scale/len(in)).
func (n *Normalizer) Normalize(in tensor.Acc) (out tensor.Dist, guarded bool) {
	out = make(tensor.Dist, len(in))
	if len(in) == 0 {
		return out, false
	}
	var sum int64
	for _, v := range in {
		if v > 0 {
			sum += int64(v)
		}
	}
	scale := int64(n.Scale)
	if sum == 0 {
		c := int64(len(in))
		uniform := n.clamp((scale + c/2) / c)
		for k := range out {
			out[k] = uniform
		}
		return out, true
	}
	for k, v := range in {
		if v <= 0 {
			continue
		}
		out[k] = n.clamp((int64(v)*scale + sum/2) / sum)
	}
	return out, false
}

func (n *Normalizer) clamp(v int64) uint8 {
	if v > int64(n.Scale) {
		return uint8(n.Scale)
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}
