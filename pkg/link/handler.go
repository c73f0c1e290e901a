package link

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/qnn.go/pkg/pipeline"
	"github.com/robotalks/qnn.go/pkg/tensor"
)

// Response is the outcome of one request frame.
type Response struct {
	Data []byte
	Err  error
}

// FrameWriter writes a response frame.
type FrameWriter interface {
	WriteFrame([]byte) error
}

// WriteFrameFunc is func type of FrameWriter.
type WriteFrameFunc func([]byte) error

// WriteFrame implements FrameWriter.
func (f WriteFrameFunc) WriteFrame(frame []byte) error {
	return f(frame)
}

// Handler drives the pipeline for request frames and encodes the
// responses according to the error signaling.
type Handler struct {
	Pipeline  *pipeline.Pipeline
	Signaling ErrorSignaling
	// Status is used only with SignalStatus.
	Status StatusLine

	lastStatus *Status
	lock       sync.Mutex
}

// NewHandler creates a Handler.
func NewHandler(p *pipeline.Pipeline, signaling ErrorSignaling) *Handler {
	return &Handler{Pipeline: p, Signaling: signaling}
}

// WithStatusLine sets the status line.
func (h *Handler) WithStatusLine(s StatusLine) *Handler {
	h.Status = s
	return h
}

// InputDim is the request frame size.
func (h *Handler) InputDim() int {
	return h.Pipeline.Model().InputDim()
}

// OutputDim is the response frame size.
func (h *Handler) OutputDim() int {
	return h.Pipeline.Model().OutputDim()
}

// Begin starts a Transaction on the first byte of a frame.
func (h *Handler) Begin() (*pipeline.Transaction, error) {
	return h.Pipeline.Begin()
}

// HandleFrame runs a complete Transaction for frame.
func (h *Handler) HandleFrame(ctx context.Context, frame []byte) Response {
	return h.Complete(ctx, nil, frame)
}

// Complete feeds frame into tx and runs it to the result. If tx is nil,
// a new Transaction is started.
func (h *Handler) Complete(ctx context.Context, tx *pipeline.Transaction, frame []byte) Response {
	if err := ctx.Err(); err != nil {
		return h.Fail(tx, err)
	}
	if tx == nil {
		var err error
		if tx, err = h.Pipeline.Begin(); err != nil {
			return h.Fail(nil, err)
		}
	}
	if err := tx.Load(tensor.Vec8FromBytes(frame)); err != nil {
		return h.Fail(tx, err)
	}
	out, err := tx.Run()
	if err != nil {
		return h.Fail(tx, err)
	}
	resp := Response{Data: append([]byte(nil), out...)}
	if err = tx.Ack(); err != nil {
		return h.Fail(tx, err)
	}
	if glog.V(2) {
		glog.Infof("frame %v -> %v", frame, resp.Data)
	}
	return resp
}

// Fail aborts tx if it's still running and creates the error response.
func (h *Handler) Fail(tx *pipeline.Transaction, err error) Response {
	if tx != nil {
		tx.Abort(err)
	} else {
		glog.Warningf("frame rejected: %v", err)
	}
	return Response{Err: err}
}

// Reply writes the response. A failure becomes the sentinel frame or
// a raised status line. Without a status line, SignalStatus falls
// back to a zero-length frame which only packet transports can carry.
func (h *Handler) Reply(w FrameWriter, resp Response) error {
	if resp.Err == nil {
		if h.Signaling == SignalStatus && h.Status != nil {
			if err := h.setStatus(StatusOK); err != nil {
				return err
			}
		}
		return w.WriteFrame(resp.Data)
	}
	if h.Signaling == SignalStatus {
		if h.Status != nil {
			return h.setStatus(StatusError(resp.Err))
		}
		return w.WriteFrame([]byte{})
	}
	return w.WriteFrame(make([]byte, h.OutputDim()))
}

// setStatus raises every failure, but reports ok only on change.
func (h *Handler) setStatus(s Status) error {
	h.lock.Lock()
	if s.OK && h.lastStatus != nil && h.lastStatus.OK {
		h.lock.Unlock()
		return nil
	}
	h.lastStatus = &s
	h.lock.Unlock()
	return h.Status.SetStatus(s)
}
