package link

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/qnn.go/pkg/pipeline"
)

type packetPipe struct {
	in     <-chan []byte
	out    chan<- []byte
	closed chan struct{}
	once   sync.Once
}

func newPacketPipes() (*packetPipe, *packetPipe) {
	reqCh, respCh := make(chan []byte, 4), make(chan []byte, 4)
	return &packetPipe{in: reqCh, out: respCh, closed: make(chan struct{})},
		&packetPipe{in: respCh, out: reqCh, closed: make(chan struct{})}
}

func (p *packetPipe) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.in:
		return pkt, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

func (p *packetPipe) WritePacket(pkt []byte) error {
	select {
	case p.out <- pkt:
		return nil
	case <-p.closed:
		return io.ErrClosedPipe
	}
}

func (p *packetPipe) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *packetPipe) expect(t *testing.T, pkt []byte) {
	select {
	case actual := <-p.in:
		require.Equal(t, pkt, actual)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expect packet timeout")
	}
}

func runPacketServer(t *testing.T, h *Handler) (*packetPipe, func()) {
	serverSide, clientSide := newPacketPipes()
	s := NewPacketServer(serverSide, h)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()
	return clientSide, func() {
		cancel()
		select {
		case err := <-errCh:
			require.Equal(t, context.Canceled, err)
		case <-time.After(time.Second):
			t.Fatal("server doesn't stop")
		}
	}
}

func TestPacketServer(t *testing.T) {
	testCases := []struct {
		name      string
		signaling ErrorSignaling
		requests  [][]byte
		responses [][]byte
	}{
		{
			name:      "sentinel",
			signaling: SignalSentinel,
			requests:  [][]byte{{10, 0, 0, 0}, {1, 2}, {1, 2, 3, 4, 5}, {0, 10, 0, 0}},
			responses: [][]byte{{255, 0}, {0, 0}, {0, 0}, {0, 255}},
		},
		{
			name:      "zero-length error frame",
			signaling: SignalStatus,
			requests:  [][]byte{{10, 0, 0, 0}, {}, {0, 10, 0, 0}},
			responses: [][]byte{{255, 0}, {}, {0, 255}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := testPipeline(t)
			conn, stop := runPacketServer(t, NewHandler(p, tc.signaling))
			defer stop()
			for n, req := range tc.requests {
				require.NoError(t, conn.WritePacket(req))
				conn.expect(t, tc.responses[n])
			}
			stats := p.Stats()
			require.Equal(t, uint64(len(tc.requests)), stats.Completed+stats.Failed)
		})
	}
}

func TestPacketServerStatusLine(t *testing.T) {
	status := make(StatusChan, 4)
	p := testPipeline(t)
	conn, stop := runPacketServer(t, NewHandler(p, SignalStatus).WithStatusLine(status))
	defer stop()

	require.NoError(t, conn.WritePacket([]byte{1}))
	s := <-status
	require.False(t, s.OK)
	require.Contains(t, s.String(), "error:shape error")

	require.NoError(t, conn.WritePacket([]byte{10, 0, 0, 0}))
	require.Equal(t, StatusOK, <-status)
	conn.expect(t, []byte{255, 0})
	require.Equal(t, pipeline.StateIdle, p.State())
}
