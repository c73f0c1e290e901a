// Package pipeline composes the engine stages into the single-flight
// forward pass state machine:
//
//	Idle -> LoadingInput -> Layer1Compute -> Layer1Activate ->
//	Layer2Compute -> Normalizing -> ResultReady -> Idle
//
// Any failure moves the pipeline straight back to Idle with the
// Transaction marked failed and no result exposed.
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/qnn.go/pkg/engine"
	"github.com/robotalks/qnn.go/pkg/fixed"
	"github.com/robotalks/qnn.go/pkg/model"
	"github.com/robotalks/qnn.go/pkg/tensor"
)

// Options configures the arithmetic of the pipeline.
type Options struct {
	// AccumulatorWidth in bits, 0 selects the width that never saturates
	// on worst-case 8-bit inputs.
	AccumulatorWidth int
	// Scale of the output distribution, 0 selects engine.DefaultScale.
	Scale int
	// Trace keeps intermediate vectors in the Transaction.
	Trace bool
}

// Stats counts Transaction outcomes.
type Stats struct {
	Completed     uint64 `json:"completed"`
	Failed        uint64 `json:"failed"`
	Rejected      uint64 `json:"rejected"`
	ZeroSumGuards uint64 `json:"zero_sum_guards"`
}

// Pipeline runs the forward pass over a shared read-only Model.
type Pipeline struct {
	Notifier StateNotifier

	model *model.Model
	dot   *engine.DotEngine
	norm  *engine.Normalizer
	trace bool

	state   State
	current *Transaction
	stats   Stats
	lock    sync.Mutex
}

// New creates a Pipeline.
func New(m *model.Model, opts Options) (*Pipeline, error) {
	width := opts.AccumulatorWidth
	if width == 0 {
		width = fixed.RequiredWidth(maxInt(m.InputDim(), m.HiddenDim()))
	}
	dot, err := engine.NewDotEngine(width)
	if err != nil {
		return nil, err
	}
	scale := opts.Scale
	if scale == 0 {
		scale = engine.DefaultScale
	}
	norm, err := engine.NewNormalizer(scale, m.OutputDim())
	if err != nil {
		return nil, err
	}
	return &Pipeline{model: m, dot: dot, norm: norm, trace: opts.Trace}, nil
}

// Model gets the weight store.
func (p *Pipeline) Model() *model.Model {
	return p.model
}

// AccumulatorWidth gets the effective accumulator width.
func (p *Pipeline) AccumulatorWidth() int {
	return p.dot.Acc.Width
}

// Scale gets the effective output scale.
func (p *Pipeline) Scale() int {
	return p.norm.Scale
}

// InputShape is the shape of request vectors.
func (p *Pipeline) InputShape() tensor.Shape {
	return tensor.Shape{Role: tensor.RoleInput, Len: p.model.InputDim(), Width: 8}
}

// OutputShape is the shape of result distributions.
func (p *Pipeline) OutputShape() tensor.Shape {
	return tensor.Shape{Role: tensor.RoleOutput, Len: p.model.OutputDim(), Width: 8}
}

// State gets the current state.
func (p *Pipeline) State() State {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.state
}

// Stats gets a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.stats
}

// Begin starts a Transaction, moving Idle to LoadingInput.
// It fails with ErrBusy if the previous Transaction hasn't returned
// the pipeline to Idle.
func (p *Pipeline) Begin() (*Transaction, error) {
	p.lock.Lock()
	if p.state != StateIdle {
		p.stats.Rejected++
		p.lock.Unlock()
		return nil, ErrBusy
	}
	t := &Transaction{ID: uuid.New(), Started: time.Now(), p: p}
	p.current = t
	notifier := p.setState(StateLoadingInput)
	p.lock.Unlock()
	p.notify(notifier, StateLoadingInput, t)
	return t, nil
}

// Infer runs a complete Transaction and returns a copy of the result.
func (p *Pipeline) Infer(input tensor.Vec8) (tensor.Dist, error) {
	t, err := p.Begin()
	if err != nil {
		return nil, err
	}
	if err = t.Load(input); err != nil {
		return nil, err
	}
	out, err := t.Run()
	if err != nil {
		return nil, err
	}
	out = out.Clone()
	return out, t.Ack()
}

func (p *Pipeline) setState(state State) StateNotifier {
	if p.state == state {
		return nil
	}
	p.state = state
	return p.Notifier
}

func (p *Pipeline) notify(n StateNotifier, state State, t *Transaction) {
	if glog.V(4) {
		glog.Infof("pipeline[%s] -> %s", t.ID, state)
	}
	if n != nil {
		n.StateChanged(state, t)
	}
}

// transition moves the pipeline on behalf of t, from one of the
// expected states to the next.
func (p *Pipeline) transition(t *Transaction, to State, from ...State) error {
	p.lock.Lock()
	if p.current != t {
		p.lock.Unlock()
		return ErrNotCurrent
	}
	allowed := len(from) == 0
	for _, s := range from {
		if p.state == s {
			allowed = true
			break
		}
	}
	if !allowed {
		state := p.state
		p.lock.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, state, to)
	}
	notifier := p.setState(to)
	p.lock.Unlock()
	p.notify(notifier, to, t)
	return nil
}

// finish returns the pipeline to Idle and releases t.
func (p *Pipeline) finish(t *Transaction, err error, guarded bool) error {
	p.lock.Lock()
	if p.current != t {
		p.lock.Unlock()
		return ErrNotCurrent
	}
	p.current = nil
	if err != nil {
		p.stats.Failed++
	} else {
		p.stats.Completed++
	}
	if guarded {
		p.stats.ZeroSumGuards++
	}
	notifier := p.setState(StateIdle)
	p.lock.Unlock()
	p.notify(notifier, StateIdle, t)
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
