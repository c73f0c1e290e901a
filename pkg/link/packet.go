package link

import (
	"context"
	"io"
	"sync"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// PacketServer serves the link over a packet transport where one packet
// carries exactly one frame. Frame timeouts don't apply as packets are
// never partial.
type PacketServer struct {
	ReadWriter PacketReadWriter
	Handler    *Handler

	sendLock sync.Mutex
}

// NewPacketServer creates a PacketServer.
func NewPacketServer(rw PacketReadWriter, h *Handler) *PacketServer {
	return &PacketServer{ReadWriter: rw, Handler: h}
}

// Run implements Runnable.
func (s *PacketServer) Run(ctx context.Context) error {
	defer s.Close()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-stop:
		}
	}()
	for {
		pkt, err := s.ReadWriter.ReadPacket()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		resp := s.Handler.HandleFrame(ctx, pkt)
		if err = s.Handler.Reply(WriteFrameFunc(s.writePacket), resp); err != nil {
			return err
		}
	}
}

// Close implements Closer.
func (s *PacketServer) Close() error {
	if closer, ok := s.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *PacketServer) writePacket(pkt []byte) error {
	s.sendLock.Lock()
	defer s.sendLock.Unlock()
	return s.ReadWriter.WritePacket(pkt)
}
