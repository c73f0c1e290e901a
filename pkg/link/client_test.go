package link

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/qnn.go/pkg/tensor"
)

func runClient(t *testing.T, c *Client) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	ctx, done := context.WithTimeout(ctx, time.Second)
	return ctx, func() {
		done()
		cancel()
	}
}

func TestClientOverPackets(t *testing.T) {
	testCases := []struct {
		name      string
		signaling ErrorSignaling
	}{
		{"sentinel", SignalSentinel},
		{"status", SignalStatus},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := testPipeline(t)
			conn, stop := runPacketServer(t, NewHandler(p, tc.signaling))
			defer stop()
			c := NewPacketClient(conn, 4, 2).WithSignaling(tc.signaling, nil)
			ctx, done := runClient(t, c)
			defer done()

			out, err := c.Infer(ctx, tensor.Vec8{10, 0, 0, 0})
			require.NoError(t, err)
			require.Equal(t, tensor.Dist{255, 0}, out)

			tx, err := p.Begin()
			require.NoError(t, err)
			_, err = c.Infer(ctx, tensor.Vec8{10, 0, 0, 0})
			require.True(t, errors.Is(err, ErrInferenceFailed))
			require.NoError(t, tx.Abort(nil))

			out, err = c.Infer(ctx, tensor.Vec8{3, 1, 0, 0})
			require.NoError(t, err)
			require.Equal(t, tensor.Dist{191, 64}, out)
		})
	}
}

func TestClientOverStream(t *testing.T) {
	testCases := []struct {
		name      string
		signaling ErrorSignaling
	}{
		{"sentinel", SignalSentinel},
		{"status", SignalStatus},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := testPipeline(t)
			serverConn, clientConn := net.Pipe()
			defer clientConn.Close()
			status := make(StatusChan, 4)
			h := NewHandler(p, tc.signaling)
			c := NewStreamClient(clientConn, 4, 2)
			if tc.signaling == SignalStatus {
				h.WithStatusLine(status)
				c.WithSignaling(SignalStatus, status)
			}
			ctx, done := runClient(t, c)
			defer done()
			s := NewStreamServer(serverConn, h)
			go s.Run(ctx)

			out, err := c.Infer(ctx, tensor.Vec8{0, 10, 0, 0})
			require.NoError(t, err)
			require.Equal(t, tensor.Dist{0, 255}, out)

			tx, err := p.Begin()
			require.NoError(t, err)
			_, err = c.Infer(ctx, tensor.Vec8{0, 10, 0, 0})
			require.True(t, errors.Is(err, ErrInferenceFailed))
			require.NoError(t, tx.Abort(nil))

			// all-zero inputs hit the zero-sum guard, never the sentinel.
			out, err = c.Infer(ctx, tensor.Vec8{0, 0, 0, 0})
			require.NoError(t, err)
			require.Equal(t, tensor.Dist{128, 128}, out)
		})
	}
}

func TestClientShapeError(t *testing.T) {
	_, clientSide := newPacketPipes()
	c := NewPacketClient(clientSide, 4, 2)
	_, err := c.Infer(context.Background(), tensor.Vec8{1, 2, 3})
	var shapeErr *tensor.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	require.Equal(t, tensor.RoleInput, shapeErr.Role)
}

// An all-zero response is ambiguous by itself: it's the error sentinel
// only when the device signals errors that way. With a status line, the
// same bytes would be decoded as a (degenerate) distribution.
func TestClientSentinelAmbiguity(t *testing.T) {
	testCases := []struct {
		name      string
		signaling ErrorSignaling
		frame     []byte
		out       tensor.Dist
		err       error
	}{
		{"sentinel zeros", SignalSentinel, []byte{0, 0}, nil, ErrInferenceFailed},
		{"status zeros", SignalStatus, []byte{0, 0}, tensor.Dist{0, 0}, nil},
		{"sentinel valid", SignalSentinel, []byte{0, 255}, tensor.Dist{0, 255}, nil},
		{"empty frame", SignalSentinel, []byte{}, nil, ErrInferenceFailed},
		{"empty frame with status", SignalStatus, []byte{}, nil, ErrInferenceFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newClient(4, 2).WithSignaling(tc.signaling, nil)
			out, err := c.decode(tc.frame)
			require.Equal(t, tc.err, err)
			require.Equal(t, tc.out, out)
		})
	}

	c := newClient(4, 2)
	_, err := c.decode([]byte{1, 2, 3})
	var shapeErr *tensor.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	require.Equal(t, tensor.RoleOutput, shapeErr.Role)
}

func TestClientDropsLateResponse(t *testing.T) {
	serverSide, clientSide := newPacketPipes()
	defer serverSide.Close()
	c := NewPacketClient(clientSide, 4, 2)
	c.SettleTime = time.Second
	ctx, done := runClient(t, c)
	defer done()

	abandonCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	_, err := c.Infer(abandonCtx, tensor.Vec8{1, 2, 3, 4})
	cancel()
	require.ErrorIs(t, err, context.DeadlineExceeded)
	serverSide.expect(t, []byte{1, 2, 3, 4})

	type result struct {
		out tensor.Dist
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		out, err := c.Infer(ctx, tensor.Vec8{5, 6, 7, 8})
		resCh <- result{out, err}
	}()
	// the late response must not answer the second request.
	require.NoError(t, serverSide.WritePacket([]byte{9, 9}))
	serverSide.expect(t, []byte{5, 6, 7, 8})
	require.NoError(t, serverSide.WritePacket([]byte{200, 55}))
	res := <-resCh
	require.NoError(t, res.err)
	require.Equal(t, tensor.Dist{200, 55}, res.out)
}

func TestClientSettleTimeout(t *testing.T) {
	serverSide, clientSide := newPacketPipes()
	defer serverSide.Close()
	c := NewPacketClient(clientSide, 4, 2)
	c.SettleTime = 10 * time.Millisecond
	ctx, done := runClient(t, c)
	defer done()

	abandonCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	_, err := c.Infer(abandonCtx, tensor.Vec8{1, 2, 3, 4})
	cancel()
	require.Error(t, err)
	serverSide.expect(t, []byte{1, 2, 3, 4})

	errCh := make(chan error, 1)
	go func() {
		out, err := c.Infer(ctx, tensor.Vec8{5, 6, 7, 8})
		if err == nil && !bytes.Equal(out, []byte{1, 254}) {
			err = fmt.Errorf("unexpected response %v", out)
		}
		errCh <- err
	}()
	serverSide.expect(t, []byte{5, 6, 7, 8})
	require.NoError(t, serverSide.WritePacket([]byte{1, 254}))
	require.NoError(t, <-errCh)
}

func TestClientStopped(t *testing.T) {
	serverSide, clientSide := newPacketPipes()
	c := NewPacketClient(clientSide, 4, 2)
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(context.Background()) }()
	clientSide.Close()
	require.Error(t, <-errCh)
	_, err := c.Infer(context.Background(), tensor.Vec8{1, 2, 3, 4})
	require.Error(t, err)
	serverSide.Close()
}
