package pipeline

import (
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/qnn.go/pkg/engine"
	"github.com/robotalks/qnn.go/pkg/model"
	"github.com/robotalks/qnn.go/pkg/tensor"
)

// Trace keeps the intermediate vectors of a Transaction.
type Trace struct {
	PreActivation tensor.Acc
	Rectified     tensor.Acc
	Hidden        tensor.Vec8
	Scores        tensor.Acc
}

// Transaction is one request/response cycle occupying the pipeline.
type Transaction struct {
	ID      uuid.UUID
	Started time.Time

	p       *Pipeline
	input   tensor.Vec8
	output  tensor.Dist
	guarded bool
	err     error
	done    bool
	trace   *Trace
}

// Load validates and stores the input vector. A shape error aborts
// the Transaction.
func (t *Transaction) Load(input tensor.Vec8) error {
	if err := t.check(StateLoadingInput); err != nil {
		return err
	}
	if err := t.p.InputShape().Check(len(input)); err != nil {
		return t.Abort(err)
	}
	t.input = make(tensor.Vec8, len(input))
	copy(t.input, input)
	return nil
}

// Run evaluates all stages and moves the pipeline to ResultReady.
// The returned distribution is owned by the pipeline until Ack.
func (t *Transaction) Run() (tensor.Dist, error) {
	if err := t.check(StateLoadingInput); err != nil {
		return nil, err
	}
	if t.input == nil {
		return nil, t.Abort(&tensor.ShapeError{Role: tensor.RoleInput, Expected: t.p.model.InputDim()})
	}
	m, p := t.p.model, t.p
	if t.p.trace {
		t.trace = &Trace{}
	}

	if err := p.transition(t, StateLayer1Compute, StateLoadingInput); err != nil {
		return nil, t.Abort(err)
	}
	pre, err := p.dot.Compute(m.Layer(model.LayerHidden), t.input)
	t.input = nil
	if err != nil {
		return nil, t.Abort(err)
	}

	if err = p.transition(t, StateLayer1Activate, StateLayer1Compute); err != nil {
		return nil, t.Abort(err)
	}
	rectified := engine.Rectify(pre)
	hidden := engine.Requantize(rectified, m.Layer(model.LayerHidden).Shift)
	if t.trace != nil {
		t.trace.PreActivation, t.trace.Rectified, t.trace.Hidden = pre, rectified, hidden
	}

	if err = p.transition(t, StateLayer2Compute, StateLayer1Activate); err != nil {
		return nil, t.Abort(err)
	}
	scores, err := p.dot.Compute(m.Layer(model.LayerOutput), hidden)
	if err != nil {
		return nil, t.Abort(err)
	}
	if t.trace != nil {
		t.trace.Scores = scores
	}

	if err = p.transition(t, StateNormalizing, StateLayer2Compute); err != nil {
		return nil, t.Abort(err)
	}
	out, guarded := p.norm.Normalize(scores)
	t.guarded = guarded
	if guarded {
		glog.V(2).Infof("transaction %s: zero scores, uniform distribution substituted", t.ID)
	}

	if err = p.transition(t, StateResultReady, StateNormalizing); err != nil {
		return nil, t.Abort(err)
	}
	t.output = out
	return out, nil
}

// Ack acknowledges the result has been consumed and returns the
// pipeline to Idle.
func (t *Transaction) Ack() error {
	if err := t.check(StateResultReady); err != nil {
		return err
	}
	t.done = true
	if glog.V(2) {
		glog.Infof("transaction %s completed in %v: %v", t.ID, time.Since(t.Started), t.output)
	}
	return t.p.finish(t, nil, t.guarded)
}

// Abort fails the Transaction and returns the pipeline to Idle.
// It returns err for convenience. Aborting a finished Transaction is a no-op.
func (t *Transaction) Abort(err error) error {
	if t.done {
		return err
	}
	t.done, t.err, t.output = true, err, nil
	glog.Warningf("transaction %s failed: %v", t.ID, err)
	t.p.finish(t, err, false)
	return err
}

// Err gets the failure of an aborted Transaction.
func (t *Transaction) Err() error {
	return t.err
}

// Output gets the result, nil unless the Transaction reached ResultReady.
func (t *Transaction) Output() tensor.Dist {
	return t.output
}

// Trace gets the intermediate vectors if tracing is enabled.
func (t *Transaction) Trace() *Trace {
	return t.trace
}

// Done indicates the Transaction no longer owns the pipeline.
func (t *Transaction) Done() bool {
	return t.done
}

func (t *Transaction) check(state State) error {
	if t.done {
		return ErrNotCurrent
	}
	if s := t.p.State(); s != state {
		return ErrInvalidState
	}
	return nil
}
