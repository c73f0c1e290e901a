// Package link implements the device side of the serial link protocol
// and the matching host client.
package link

// The link is half-duplex and host-initiated. A request frame is exactly
// N bytes of two's complement int8 input values without any header, the
// length being fixed by configuration on both sides. A response frame is
// exactly C bytes, each the normalized score of one class in [0, SCALE].
//
// Frames carry no length or checksum. A partial request frame is
// discarded once no byte has arrived within the frame timeout, which
// is how the host resynchronizes after a glitch.
//
// Failures are signaled according to ErrorSignaling: either a C-byte
// all-zero sentinel response, which a valid response can never be, or
// an out-of-band StatusLine. Packet transports without a status line
// get a zero-length frame instead.
