package serial

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

var baudRates = map[int]uint32{
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	2000000: unix.B2000000,
}

// Port is an open tty in raw 8N1 mode.
type Port struct {
	path string
	fd   int
	lock sync.Mutex
}

// Open opens and configures the tty.
func Open(path string, opts Options) (*Port, error) {
	speed, ok := baudRates[opts.Baud]
	if !ok {
		return nil, fmt.Errorf("unsupported baud rate %d", opts.Baud)
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%s: get termios: %w", path, err)
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CBAUD | unix.CRTSCTS
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | speed
	t.Ispeed, t.Ospeed = speed, speed
	t.Cc[unix.VMIN], t.Cc[unix.VTIME] = 1, 0
	if vtime := opts.deciseconds(); vtime > 0 {
		t.Cc[unix.VMIN], t.Cc[unix.VTIME] = 0, vtime
	}
	if err = unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%s: set termios: %w", path, err)
	}
	return &Port{path: path, fd: fd}, nil
}

// Path gets the device path.
func (p *Port) Path() string {
	return p.path
}

// Read implements io.Reader. With a read timeout it returns 0, nil
// when nothing arrives in time.
func (p *Port) Read(b []byte) (int, error) {
	for {
		n, err := unix.Read(p.fd, b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, &os.PathError{Op: "read", Path: p.path, Err: err}
		}
		return n, nil
	}
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	var written int
	for written < len(b) {
		n, err := unix.Write(p.fd, b[written:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, &os.PathError{Op: "write", Path: p.path, Err: err}
		}
		written += n
	}
	return written, nil
}

// Close implements io.Closer.
func (p *Port) Close() error {
	return unix.Close(p.fd)
}

// SetRTS drives the RTS modem line.
func (p *Port) SetRTS(on bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	req := uint(unix.TIOCMBIC)
	if on {
		req = unix.TIOCMBIS
	}
	return unix.IoctlSetPointerInt(p.fd, req, unix.TIOCM_RTS)
}

// CTS reads the CTS modem line.
func (p *Port) CTS() (bool, error) {
	bits, err := unix.IoctlGetInt(p.fd, unix.TIOCMGET)
	if err != nil {
		return false, err
	}
	return bits&unix.TIOCM_CTS != 0, nil
}
