package httpapi

import (
	"fmt"

	"github.com/robotalks/qnn.go/pkg/pipeline"
)

// Topology is the shape and arithmetic of the served model.
type Topology struct {
	InputDim         int `json:"input_dim"`
	HiddenDim        int `json:"hidden_dim"`
	OutputDim        int `json:"output_dim"`
	AccumulatorWidth int `json:"accumulator_width_bits"`
	Scale            int `json:"response_scale"`
}

func topologyOf(p *pipeline.Pipeline) Topology {
	m := p.Model()
	return Topology{
		InputDim:         m.InputDim(),
		HiddenDim:        m.HiddenDim(),
		OutputDim:        m.OutputDim(),
		AccumulatorWidth: p.AccumulatorWidth(),
		Scale:            p.Scale(),
	}
}

// StatusResponse is returned by GET /v1/status.
type StatusResponse struct {
	State     string         `json:"state"`
	Stats     pipeline.Stats `json:"stats"`
	Signaling string         `json:"error_signaling"`
	Topology  Topology       `json:"topology"`
}

// LayerInfo describes a layer without its parameters.
type LayerInfo struct {
	Name       string `json:"name,omitempty"`
	InDim      int    `json:"in_dim"`
	OutDim     int    `json:"out_dim"`
	Activation string `json:"activation"`
	Shift      uint8  `json:"shift"`
}

// ModelResponse is returned by GET /v1/model.
type ModelResponse struct {
	Topology  Topology    `json:"topology"`
	NumParams int         `json:"num_params"`
	Layers    []LayerInfo `json:"layers"`
}

// InferRequest is the body of POST /v1/infer.
type InferRequest struct {
	Input []int `json:"input"`
}

// InferResponse is returned by POST /v1/infer.
type InferResponse struct {
	Output []int `json:"output"`
	Class  int   `json:"class"`
}

// ErrorResponse is returned on failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

func errInputRange(index, value int) error {
	return fmt.Errorf("input[%d] = %d out of int8 range", index, value)
}
