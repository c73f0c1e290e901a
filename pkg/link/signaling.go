package link

import (
	"fmt"
	"strings"
)

// ErrorSignaling selects how a failed Transaction is reported to the host.
type ErrorSignaling int

const (
	// SignalSentinel replies a C-byte all-zero frame.
	SignalSentinel ErrorSignaling = iota
	// SignalStatus raises the StatusLine, or replies a zero-length frame
	// on packet transports without one.
	SignalStatus
)

var signalingNames = [...]string{"sentinel", "status"}

// String implements Stringer.
func (s ErrorSignaling) String() string {
	if s >= 0 && int(s) < len(signalingNames) {
		return signalingNames[s]
	}
	return fmt.Sprintf("signaling(%d)", int(s))
}

// ParseErrorSignaling parses the configuration name.
func ParseErrorSignaling(str string) (ErrorSignaling, error) {
	for n, name := range signalingNames {
		if strings.EqualFold(str, name) {
			return ErrorSignaling(n), nil
		}
	}
	return SignalSentinel, fmt.Errorf("unknown error signaling %q", str)
}

// MarshalText implements encoding.TextMarshaler.
func (s ErrorSignaling) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ErrorSignaling) UnmarshalText(text []byte) (err error) {
	*s, err = ParseErrorSignaling(string(text))
	return
}

// IsSentinel checks if frame is the all-zero error sentinel.
func IsSentinel(frame []byte) bool {
	if len(frame) == 0 {
		return false
	}
	for _, b := range frame {
		if b != 0 {
			return false
		}
	}
	return true
}

// Status is the level of the status line.
type Status struct {
	OK     bool
	Reason string
}

// StatusOK is the status after a successful Transaction.
var StatusOK = Status{OK: true}

const statusErrorPrefix = "error:"

// StatusError creates the failure status.
func StatusError(err error) Status {
	return Status{Reason: err.Error()}
}

// String implements Stringer. It's also the wire format of the status line.
func (s Status) String() string {
	if s.OK {
		return "ok"
	}
	return statusErrorPrefix + s.Reason
}

// ParseStatus parses the wire format of the status line.
func ParseStatus(str string) (Status, error) {
	if str == "ok" {
		return StatusOK, nil
	}
	if strings.HasPrefix(str, statusErrorPrefix) {
		return Status{Reason: str[len(statusErrorPrefix):]}, nil
	}
	return Status{}, fmt.Errorf("invalid status %q", str)
}

// Err converts a failure status into an error.
func (s Status) Err() error {
	if s.OK {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInferenceFailed, s.Reason)
}

// StatusLine is the out-of-band error indication.
type StatusLine interface {
	SetStatus(Status) error
}

// SetStatusFunc is func type of StatusLine.
type SetStatusFunc func(Status) error

// SetStatus implements StatusLine.
func (f SetStatusFunc) SetStatus(s Status) error {
	return f(s)
}

// StatusChan is a StatusLine delivering the levels to a chan,
// for links living in the same process as the host.
type StatusChan chan Status

// SetStatus implements StatusLine.
func (c StatusChan) SetStatus(s Status) error {
	c <- s
	return nil
}
