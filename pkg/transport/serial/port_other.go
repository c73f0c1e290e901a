//go:build !linux

package serial

import (
	"errors"
	"runtime"
)

// Port is not supported on this platform.
type Port struct{}

var errUnsupported = errors.New("serial ports not supported on " + runtime.GOOS)

// Open always fails.
func Open(path string, opts Options) (*Port, error) {
	return nil, errUnsupported
}

// Path gets the device path.
func (p *Port) Path() string { return "" }

// Read implements io.Reader.
func (p *Port) Read([]byte) (int, error) { return 0, errUnsupported }

// Write implements io.Writer.
func (p *Port) Write([]byte) (int, error) { return 0, errUnsupported }

// Close implements io.Closer.
func (p *Port) Close() error { return nil }

// SetRTS drives the RTS modem line.
func (p *Port) SetRTS(bool) error { return errUnsupported }

// CTS reads the CTS modem line.
func (p *Port) CTS() (bool, error) { return false, errUnsupported }
