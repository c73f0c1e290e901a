package link

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/qnn.go/pkg/pipeline"
)

// DefaultFrameTimeout is the default gap after which a partial frame
// is discarded.
const DefaultFrameTimeout = 100 * time.Millisecond

// FrameNotifier is called when the frame assembly state changes.
type FrameNotifier interface {
	FrameStateChanged(context.Context, FrameState)
}

// FrameStateChangedFunc is func type of FrameNotifier.
type FrameStateChangedFunc func(context.Context, FrameState)

// FrameStateChanged implements FrameNotifier.
func (f FrameStateChangedFunc) FrameStateChanged(ctx context.Context, state FrameState) {
	f(ctx, state)
}

// StreamServer serves the link over a byte stream, e.g. a serial port.
type StreamServer struct {
	ReadWriter  io.ReadWriter
	Handler     *Handler
	Notifier    FrameNotifier
	Timeout     time.Duration
	ReadTimeout bool // set to true if ReadWriter already supports timeout with Read

	state     FrameState
	lastByte  time.Time
	tx        *pipeline.Transaction
	frameTime <-chan time.Time
	parser    *FrameParser
	writeLock sync.Mutex
}

// NewStreamServer creates a StreamServer.
func NewStreamServer(rw io.ReadWriter, h *Handler) *StreamServer {
	return &StreamServer{
		ReadWriter: rw,
		Handler:    h,
		Timeout:    DefaultFrameTimeout,
	}
}

// Run serves frames until the stream fails or ctx is cancelled.
func (s *StreamServer) Run(ctx context.Context) error {
	if s.Handler.Signaling == SignalStatus && s.Handler.Status == nil {
		return ErrNoStatusLine
	}
	s.parser = NewFrameParser(s.Handler.InputDim())
	defer s.abort(context.Canceled)

	if s.ReadTimeout {
		buf := make([]byte, 1)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				n, err := s.ReadWriter.Read(buf)
				if err != nil && !os.IsTimeout(err) {
					return err
				}
				if n == 0 || err != nil {
					if s.parser.State() == FrameReceiving && time.Since(s.lastByte) >= s.Timeout {
						err = s.apply(ctx, s.parser.Timeout())
					} else {
						err = nil
					}
				} else {
					s.lastByte = time.Now()
					err = s.apply(ctx, s.parser.Parse(buf[0]))
				}
				if err != nil {
					return err
				}
			}
		}
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			if err := s.apply(ctx, s.parser.Parse(b)); err != nil {
				return err
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-s.frameTime:
			if err := s.apply(ctx, s.parser.Timeout()); err != nil {
				return err
			}
		}
	}
}

// State gets the frame assembly state. It's only meaningful from
// the goroutine running Run or a FrameNotifier.
func (s *StreamServer) State() FrameState {
	return s.state
}

func (s *StreamServer) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		n, err := s.ReadWriter.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (s *StreamServer) apply(ctx context.Context, fr FrameResult) error {
	if fr.Started {
		tx, err := s.Handler.Begin()
		if err != nil {
			// retried when the frame completes.
			glog.V(2).Infof("begin transaction: %v", err)
		}
		s.tx = tx
	}

	if !s.ReadTimeout {
		switch fr.WhatAboutTimer() {
		case TimerRestart:
			s.frameTime = time.After(s.Timeout)
		case TimerStop:
			s.frameTime = nil
		}
	}

	if s.state != fr.State {
		s.state = fr.State
		if n := s.Notifier; n != nil {
			n.FrameStateChanged(ctx, fr.State)
		}
	}

	var resp *Response
	switch {
	case fr.Frame != nil:
		r := s.Handler.Complete(ctx, s.tx, fr.Frame)
		resp = &r
	case fr.Expired():
		glog.Warningf("discard partial frame of %d bytes", fr.Discarded)
		r := s.Handler.Fail(s.tx, ErrFrameTimeout)
		resp = &r
	default:
		return nil
	}
	s.tx = nil
	return s.Handler.Reply(WriteFrameFunc(s.writeFrame), *resp)
}

func (s *StreamServer) writeFrame(frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	_, err := s.ReadWriter.Write(frame)
	return err
}

func (s *StreamServer) abort(err error) {
	if s.tx != nil {
		s.tx.Abort(err)
		s.tx = nil
	}
}
