// Package transport binds link URLs to the link protocol:
//
//	serial:///dev/ttyUSB0?baud=115200   raw byte stream over a tty
//	tcp://host:9000                     raw byte stream over TCP
//	tcp://host:9000?framing=packet      length-prefixed frames over TCP
//	ws://host:8080/v1/link              binary websocket messages
//	mqtt://broker:1883/qnn/             req/resp topics of a device
package transport

import (
	"fmt"
	"net/url"

	"github.com/robotalks/qnn.go/pkg/link"
)

// Schemes of link URLs.
const (
	SchemeSerial    = "serial"
	SchemeTCP       = "tcp"
	SchemeWebsocket = "ws"
	SchemeMQTT      = "mqtt"
)

// FramingPacket selects length-prefixed frames on TCP.
const FramingPacket = "packet"

// ParseURL parses and validates a link URL.
func ParseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %w", err)
	}
	switch u.Scheme {
	case SchemeSerial:
	case SchemeTCP, SchemeWebsocket, SchemeMQTT:
		if u.Host == "" {
			return nil, fmt.Errorf("invalid link URL %q: missing host", rawURL)
		}
	default:
		return nil, fmt.Errorf("unknown link URL scheme: %q", u.Scheme)
	}
	return u, nil
}

// IsPacketFraming indicates frames are carried in packets rather than
// a raw byte stream.
func IsPacketFraming(u *url.URL) bool {
	switch u.Scheme {
	case SchemeWebsocket, SchemeMQTT:
		return true
	case SchemeTCP:
		return u.Query().Get("framing") == FramingPacket
	}
	return false
}

// CheckSignaling verifies the link can report failures with signaling.
// A raw TCP stream has neither a status line nor packet boundaries to
// carry an empty frame.
func CheckSignaling(u *url.URL, signaling link.ErrorSignaling) error {
	if signaling == link.SignalStatus && u.Scheme == SchemeTCP && !IsPacketFraming(u) {
		return fmt.Errorf("link %q: %w", u.String(), link.ErrNoStatusLine)
	}
	return nil
}

// deviceName picks the MQTT device name from the URL or the fallback.
func deviceName(u *url.URL, fallback string) (string, error) {
	if name := u.Query().Get("device"); name != "" {
		return name, nil
	}
	if fallback == "" {
		return "", fmt.Errorf("device name required for %q", u.String())
	}
	return fallback, nil
}
