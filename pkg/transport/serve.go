package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/qnn.go/pkg/framework"
	"github.com/robotalks/qnn.go/pkg/link"
	"github.com/robotalks/qnn.go/pkg/transport/mqtt"
	"github.com/robotalks/qnn.go/pkg/transport/serial"
	"github.com/robotalks/qnn.go/pkg/transport/stream"
)

// ErrServedByHTTP indicates websocket links are mounted on the HTTP server.
var ErrServedByHTTP = errors.New("websocket links are served by the HTTP server")

// serialReadTimeout bounds how long a serial read blocks, so frame
// timeouts and cancellation are noticed.
const serialReadTimeout = 100 * time.Millisecond

// ServeOptions configures a Server.
type ServeOptions struct {
	FrameTimeout time.Duration
	// Device is the <type>/<id> name of the device, used for MQTT topics.
	Device string
}

// Server serves the link on a URL.
type Server struct {
	URL     *url.URL
	Handler *link.Handler
	Options ServeOptions

	listener net.Listener
	lock     sync.Mutex
}

// NewServer creates a Server.
func NewServer(rawURL string, h *link.Handler, opts ServeOptions) (*Server, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if err = CheckSignaling(u, h.Signaling); err != nil {
		return nil, err
	}
	if opts.FrameTimeout <= 0 {
		opts.FrameTimeout = link.DefaultFrameTimeout
	}
	return &Server{URL: u, Handler: h, Options: opts}, nil
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "link " + s.URL.String()
}

// Listen binds the TCP listener ahead of Run.
func (s *Server) Listen() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.URL.Scheme != SchemeTCP || s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.URL.Host)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr is the bound TCP address, nil before Listen.
func (s *Server) Addr() net.Addr {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	switch s.URL.Scheme {
	case SchemeSerial:
		return s.runSerial(ctx)
	case SchemeTCP:
		return s.runTCP(ctx)
	case SchemeMQTT:
		return s.runMQTT(ctx)
	case SchemeWebsocket:
		return ErrServedByHTTP
	}
	return fmt.Errorf("unknown link URL scheme: %q", s.URL.Scheme)
}

func (s *Server) runSerial(ctx context.Context) error {
	path, opts, err := serial.OptionsFromURL(s.URL)
	if err != nil {
		return err
	}
	opts.ReadTimeout = serialReadTimeout
	port, err := serial.Open(path, opts)
	if err != nil {
		return err
	}
	defer port.Close()
	if s.Handler.Signaling == link.SignalStatus && s.Handler.Status == nil {
		s.Handler.WithStatusLine(&serial.StatusLine{Port: port, Width: opts.PulseWidth})
	}
	srv := link.NewStreamServer(port, s.Handler)
	srv.Timeout, srv.ReadTimeout = s.Options.FrameTimeout, true
	glog.Infof("serving link on %s", path)
	return srv.Run(ctx)
}

func (s *Server) runTCP(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	glog.Infof("serving link on %s", s.listener.Addr())
	return framework.RunWithContextCloser(ctx, s.listener, func() error {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				return err
			}
			// one host at a time, the link is half-duplex.
			glog.Infof("host connected from %s", conn.RemoteAddr())
			err = s.serveConn(ctx, conn)
			glog.Infof("host %s disconnected: %v", conn.RemoteAddr(), err)
		}
	})
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	return framework.RunWithContextCloser(connCtx, conn, func() error {
		if IsPacketFraming(s.URL) {
			return link.NewPacketServer(stream.New(conn), s.Handler).Run(connCtx)
		}
		srv := link.NewStreamServer(conn, s.Handler)
		srv.Timeout = s.Options.FrameTimeout
		return srv.Run(connCtx)
	})
}

func (s *Server) runMQTT(ctx context.Context) error {
	name, err := deviceName(s.URL, s.Options.Device)
	if err != nil {
		return err
	}
	q, err := mqtt.NewQueueFromURL(s.URL.String())
	if err != nil {
		return err
	}
	if err = q.ConnectWait(ctx); err != nil {
		return fmt.Errorf("connect MQTT broker: %w", err)
	}
	defer q.Close()
	if s.Handler.Signaling == link.SignalStatus && s.Handler.Status == nil {
		s.Handler.WithStatusLine(mqtt.NewStatusLine(q, name))
	}
	rw := mqtt.NewPacketReadWriter(q).ForDevice(name)
	glog.Infof("serving link on MQTT topics %s%s", q.TopicPrefix, name)
	return framework.Run(ctx, rw, link.NewPacketServer(rw, s.Handler))
}
