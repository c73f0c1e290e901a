package link

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/robotalks/qnn.go/pkg/tensor"
)

// DefaultSettleTime bounds the wait for a late response of an
// abandoned request before the next request is sent.
const DefaultSettleTime = 200 * time.Millisecond

// Client provides host side inference over a link.
// Run must be running for Infer to receive responses.
type Client struct {
	Signaling ErrorSignaling
	// Status delivers the status line with SignalStatus, if the
	// transport has one.
	Status <-chan Status
	// SettleTime is how long Infer waits for the response of an
	// abandoned request before sending a new one.
	SettleTime time.Duration

	inputDim  int
	outputDim int
	send      func([]byte) error
	recv      func() ([]byte, error)
	frameCh   chan []byte
	done      chan struct{}
	err       error
	abandoned bool
	lock      sync.Mutex
}

// NewStreamClient creates a Client over a byte stream.
func NewStreamClient(rw io.ReadWriter, inputDim, outputDim int) *Client {
	c := newClient(inputDim, outputDim)
	c.send = func(frame []byte) error {
		_, err := rw.Write(frame)
		return err
	}
	c.recv = func() ([]byte, error) {
		frame := make([]byte, outputDim)
		_, err := io.ReadFull(rw, frame)
		return frame, err
	}
	return c
}

// NewPacketClient creates a Client over a packet transport.
func NewPacketClient(rw PacketReadWriter, inputDim, outputDim int) *Client {
	c := newClient(inputDim, outputDim)
	c.send = rw.WritePacket
	c.recv = rw.ReadPacket
	return c
}

func newClient(inputDim, outputDim int) *Client {
	return &Client{
		inputDim:  inputDim,
		outputDim: outputDim,
		frameCh:    make(chan []byte, 1),
		done:       make(chan struct{}),
		SettleTime: DefaultSettleTime,
	}
}

// WithSignaling sets the error signaling of the device.
func (c *Client) WithSignaling(s ErrorSignaling, status <-chan Status) *Client {
	c.Signaling, c.Status = s, status
	return c
}

// InputDim is the request frame size.
func (c *Client) InputDim() int {
	return c.inputDim
}

// OutputDim is the response frame size.
func (c *Client) OutputDim() int {
	return c.outputDim
}

// Run receives response frames.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.done)
	for {
		frame, err := c.recv()
		if err != nil {
			c.err = err
			return err
		}
		select {
		case c.frameCh <- frame:
		case <-ctx.Done():
			c.err = ctx.Err()
			return c.err
		}
	}
}

// Infer sends one request frame and waits for the response.
//
// Frames carry no request identifier. When a previous Infer returned on
// ctx before its response arrived, the next Infer first waits up to
// SettleTime for that response and drops it. A response later than
// SettleTime is still taken as the answer to the next request.
func (c *Client) Infer(ctx context.Context, input tensor.Vec8) (tensor.Dist, error) {
	if err := (tensor.Shape{Role: tensor.RoleInput, Len: c.inputDim}).Check(len(input)); err != nil {
		return nil, err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.abandoned {
		if err := c.settle(ctx); err != nil {
			return nil, err
		}
	}
	c.drain()
	if err := c.send(input.Bytes()); err != nil {
		return nil, err
	}
	for {
		select {
		case frame := <-c.frameCh:
			return c.decode(frame)
		case s := <-c.Status:
			if !s.OK {
				return nil, s.Err()
			}
		case <-c.done:
			if c.err != nil {
				return nil, c.err
			}
			return nil, io.EOF
		case <-ctx.Done():
			c.abandoned = true
			return nil, ctx.Err()
		}
	}
}

// settle waits for the outcome of the abandoned request.
func (c *Client) settle(ctx context.Context) error {
	timer := time.NewTimer(c.SettleTime)
	defer timer.Stop()
	for {
		select {
		case <-c.frameCh:
			c.abandoned = false
			return nil
		case s := <-c.Status:
			if !s.OK {
				c.abandoned = false
				return nil
			}
		case <-timer.C:
			c.abandoned = false
			return nil
		case <-c.done:
			c.abandoned = false
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drain drops stale responses of abandoned requests.
func (c *Client) drain() {
	for {
		select {
		case <-c.frameCh:
		case <-c.Status:
		default:
			return
		}
	}
}

func (c *Client) decode(frame []byte) (tensor.Dist, error) {
	if len(frame) == 0 || (c.Signaling == SignalSentinel && IsSentinel(frame)) {
		return nil, ErrInferenceFailed
	}
	if err := (tensor.Shape{Role: tensor.RoleOutput, Len: c.outputDim}).Check(len(frame)); err != nil {
		return nil, err
	}
	return tensor.Dist(frame), nil
}
