package link

// FrameState indicates the state of frame assembly.
type FrameState int

const (
	// FrameIdle means no byte of the next frame has arrived.
	FrameIdle FrameState = iota
	// FrameReceiving means a partial frame is buffered.
	FrameReceiving
)

// String implements Stringer.
func (s FrameState) String() string {
	if s == FrameReceiving {
		return "receiving"
	}
	return "idle"
}

// TimerAction defines what to do with timer.
type TimerAction int

const (
	// TimerNoChange indicates keep the timer as-is.
	TimerNoChange TimerAction = iota
	// TimerRestart to restart the timer.
	TimerRestart
	// TimerStop to stop/cancel the timer.
	TimerStop
)

// FrameResult indicates the result after one parsing step.
type FrameResult struct {
	State FrameState
	// Started is set on the first byte of a frame.
	Started bool
	// Frame is the completed frame.
	Frame []byte
	// Discarded is the number of bytes dropped by a timeout.
	Discarded int
}

// Expired indicates a partial frame was dropped.
func (r FrameResult) Expired() bool {
	return r.Discarded > 0
}

// WhatAboutTimer decides what to do with timer.
// The timer measures the gap between bytes of the same frame.
func (r FrameResult) WhatAboutTimer() TimerAction {
	if r.State == FrameReceiving {
		return TimerRestart
	}
	if r.Frame != nil || r.Expired() {
		return TimerStop
	}
	return TimerNoChange
}

// FrameParser assembles fixed size frames from bytes received.
type FrameParser struct {
	buf []byte
	n   int
}

// NewFrameParser creates a FrameParser for frames of size bytes.
func NewFrameParser(size int) *FrameParser {
	return &FrameParser{buf: make([]byte, size)}
}

// Size is the frame size.
func (p *FrameParser) Size() int {
	return len(p.buf)
}

// State gets the current state.
func (p *FrameParser) State() FrameState {
	if p.n > 0 {
		return FrameReceiving
	}
	return FrameIdle
}

// Parse consumes one byte.
func (p *FrameParser) Parse(b byte) (fr FrameResult) {
	fr.Started = p.n == 0
	p.buf[p.n] = b
	p.n++
	if p.n >= len(p.buf) {
		fr.Frame = make([]byte, p.n)
		copy(fr.Frame, p.buf)
		p.n = 0
	}
	fr.State = p.State()
	return
}

// Timeout notifies the parser timer expires.
func (p *FrameParser) Timeout() (fr FrameResult) {
	fr.Discarded = p.n
	p.n = 0
	fr.State = p.State()
	return
}

// Reset drops any partial frame silently.
func (p *FrameParser) Reset() {
	p.n = 0
}
