package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/robotalks/qnn.go/pkg/framework"
	"github.com/robotalks/qnn.go/pkg/link"
	"github.com/robotalks/qnn.go/pkg/transport/mqtt"
	"github.com/robotalks/qnn.go/pkg/transport/serial"
	"github.com/robotalks/qnn.go/pkg/transport/stream"
	"github.com/robotalks/qnn.go/pkg/transport/websocket"
)

// statusPollInterval is how often the serial status line is sampled.
const statusPollInterval = time.Millisecond

// DialOptions configures the host side of a link.
type DialOptions struct {
	InputDim  int
	OutputDim int
	Signaling link.ErrorSignaling
	// Device is the <type>/<id> name of the device, used for MQTT topics.
	Device string
}

// Conn is a connected link Client. Run must be running for Infer.
type Conn struct {
	*link.Client

	runners []framework.Runnable
	closers []io.Closer
	once    sync.Once
}

// Dial connects to a device link.
func Dial(ctx context.Context, rawURL string, opts DialOptions) (*Conn, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	c := &Conn{}
	switch u.Scheme {
	case SchemeSerial:
		path, sopts, err := serial.OptionsFromURL(u)
		if err != nil {
			return nil, err
		}
		sopts.ReadTimeout = serialReadTimeout
		port, err := serial.Open(path, sopts)
		if err != nil {
			return nil, err
		}
		r := newInterruptibleReader(port)
		c.closers = append(c.closers, r, port)
		c.Client = link.NewStreamClient(r, opts.InputDim, opts.OutputDim)
		if opts.Signaling == link.SignalStatus {
			statusCh := make(chan link.Status, 1)
			c.Client.WithSignaling(opts.Signaling, statusCh)
			c.runners = append(c.runners, framework.RunnableFunc(func(ctx context.Context) error {
				raised := serial.WatchStatus(ctx, port, statusPollInterval)
				for {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case s := <-raised:
						select {
						case statusCh <- s:
						default:
						}
					}
				}
			}))
		}
	case SchemeTCP:
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, conn)
		if IsPacketFraming(u) {
			c.Client = link.NewPacketClient(stream.New(conn), opts.InputDim, opts.OutputDim)
		} else {
			c.Client = link.NewStreamClient(conn, opts.InputDim, opts.OutputDim)
		}
	case SchemeWebsocket:
		rw, err := websocket.Dial(u.String())
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, rw)
		c.Client = link.NewPacketClient(rw, opts.InputDim, opts.OutputDim)
	case SchemeMQTT:
		name, err := deviceName(u, opts.Device)
		if err != nil {
			return nil, err
		}
		q, err := mqtt.NewQueueFromURL(u.String())
		if err != nil {
			return nil, err
		}
		if err = q.ConnectWait(ctx); err != nil {
			return nil, fmt.Errorf("connect MQTT broker: %w", err)
		}
		c.closers = append(c.closers, q)
		rw := mqtt.NewPacketReadWriter(q).ForHost(name)
		c.runners = append(c.runners, rw)
		c.Client = link.NewPacketClient(rw, opts.InputDim, opts.OutputDim)
		if opts.Signaling == link.SignalStatus {
			statusCh, sub := mqtt.WatchStatus(q, name)
			c.closers = append([]io.Closer{sub}, c.closers...)
			c.Client.WithSignaling(opts.Signaling, statusCh)
		}
	}
	if c.Client.Status == nil {
		c.Client.WithSignaling(opts.Signaling, nil)
	}
	return c, nil
}

// Run implements framework.Runnable.
func (c *Conn) Run(ctx context.Context) error {
	runners := append([]framework.Runnable{c.Client}, c.runners...)
	return framework.RunWithContextCloser(ctx, c, func() error {
		return framework.Run(ctx, runners...)
	})
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	var errs framework.AggregatedError
	c.once.Do(func() {
		for _, closer := range c.closers {
			errs.Add(closer.Close())
		}
	})
	return errs.Aggregate()
}

// interruptibleReader retries empty reads of a port with read timeout
// until data arrives or it's closed.
type interruptibleReader struct {
	io.ReadWriter
	closed chan struct{}
	once   sync.Once
}

func newInterruptibleReader(rw io.ReadWriter) *interruptibleReader {
	return &interruptibleReader{ReadWriter: rw, closed: make(chan struct{})}
}

func (r *interruptibleReader) Read(p []byte) (int, error) {
	for {
		select {
		case <-r.closed:
			return 0, io.EOF
		default:
		}
		n, err := r.ReadWriter.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

func (r *interruptibleReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}
