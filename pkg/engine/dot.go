// Package engine implements the stages of the fixed-point forward
// pass: the dot-product engine, rectification, requantization and the
// quantized softmax normalization. All stages are pure functions.
package engine

import (
	"github.com/robotalks/qnn.go/pkg/fixed"
	"github.com/robotalks/qnn.go/pkg/model"
	"github.com/robotalks/qnn.go/pkg/tensor"
)

// DotEngine computes pre-activation vectors of a layer.
type DotEngine struct {
	Acc fixed.Accumulator
}

// NewDotEngine creates a DotEngine with the accumulator width.
func NewDotEngine(width int) (*DotEngine, error) {
	acc, err := fixed.NewAccumulator(width)
	if err != nil {
		return nil, err
	}
	return &DotEngine{Acc: acc}, nil
}

// Compute evaluates out[j] = sum_i(input[i]*weight(i,j)) + bias[j],
// saturating at the accumulator bounds on every addition. Products are
// accumulated in input order and the bias is added last.
func (e *DotEngine) Compute(layer *model.Layer, input tensor.Vec8) (tensor.Acc, error) {
	shape := tensor.Shape{Role: tensor.RoleInput, Len: layer.InDim, Width: 8}
	if layer.Activation == model.ActivationNormalize {
		shape.Role = tensor.RoleHidden
	}
	if err := shape.Check(len(input)); err != nil {
		return nil, err
	}
	out := make(tensor.Acc, layer.OutDim)
	for i, x := range input {
		if x == 0 {
			continue
		}
		for j, w := range layer.Row(i) {
			out[j] = e.Acc.MulAdd(out[j], x, w)
		}
	}
	for j := range out {
		out[j] = e.Acc.Clamp(int64(out[j]) + int64(layer.Bias(j)))
	}
	return out, nil
}
