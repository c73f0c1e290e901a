package link

import "errors"

var (
	// ErrFrameTimeout indicates a partial request frame was discarded.
	ErrFrameTimeout = errors.New("frame timeout")
	// ErrInferenceFailed is reported by the client when the device
	// answers with an error indication.
	ErrInferenceFailed = errors.New("inference failed")
	// ErrNoStatusLine indicates status signaling is requested on a
	// transport without a status line.
	ErrNoStatusLine = errors.New("status signaling requires a status line")
)
