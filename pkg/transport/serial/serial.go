// Package serial opens tty devices in raw mode for the link.
package serial

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/robotalks/qnn.go/pkg/link"
)

// DefaultBaud is the default line speed.
const DefaultBaud = 115200

// Options configures a serial port.
type Options struct {
	Baud int
	// ReadTimeout makes Read return 0 bytes when nothing arrives in time,
	// rounded to 100ms, the resolution of the tty driver.
	// Zero blocks until at least one byte arrives.
	ReadTimeout time.Duration
	// PulseWidth is how long the status line stays raised on a failure.
	PulseWidth time.Duration
}

// OptionsFromURL parses options from a link URL like
// serial:///dev/ttyUSB0?baud=115200. It returns the device path.
func OptionsFromURL(u *url.URL) (string, Options, error) {
	opts := Options{Baud: DefaultBaud, PulseWidth: 10 * time.Millisecond}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if path == "" {
		return "", opts, fmt.Errorf("serial device path missing in %q", u.String())
	}
	if val := u.Query().Get("baud"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil {
			return "", opts, fmt.Errorf("invalid baud %q: %w", val, err)
		}
		opts.Baud = baud
	}
	if val := u.Query().Get("pulse"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return "", opts, fmt.Errorf("invalid pulse %q: %w", val, err)
		}
		opts.PulseWidth = d
	}
	return path, opts, nil
}

// deciseconds converts the read timeout into VTIME units, at least 1
// when a timeout is set.
func (o Options) deciseconds() uint8 {
	if o.ReadTimeout <= 0 {
		return 0
	}
	ds := (o.ReadTimeout + 99*time.Millisecond) / (100 * time.Millisecond)
	if ds > 255 {
		ds = 255
	}
	return uint8(ds)
}

// StatusLine raises RTS of the port on failures. The line is pulsed
// since consecutive failures must be seen by the host as separate edges.
type StatusLine struct {
	Port  *Port
	Width time.Duration
}

// SetStatus implements link.StatusLine.
func (s *StatusLine) SetStatus(status link.Status) error {
	if status.OK {
		return nil
	}
	if err := s.Port.SetRTS(true); err != nil {
		return err
	}
	time.Sleep(s.Width)
	return s.Port.SetRTS(false)
}

// WatchStatus polls CTS of the port and reports each rising edge as a
// failure. The reason isn't carried by the line.
func WatchStatus(ctx context.Context, p *Port, interval time.Duration) <-chan link.Status {
	ch := make(chan link.Status, 1)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var raised bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			cts, err := p.CTS()
			if err != nil {
				return
			}
			if cts && !raised {
				select {
				case ch <- link.Status{Reason: "status line raised"}:
				default:
				}
			}
			raised = cts
		}
	}()
	return ch
}
