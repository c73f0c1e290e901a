package mqtt

import (
	"github.com/golang/glog"

	"github.com/robotalks/qnn.go/pkg/link"
)

// StatusLine publishes the link status of a device, implementing
// link.StatusLine. Levels are not retained, a host only sees the
// ones raised while it's subscribed.
type StatusLine struct {
	Queue *Queue
	Topic string
}

// NewStatusLine creates a StatusLine for the device name.
func NewStatusLine(q *Queue, name string) *StatusLine {
	return &StatusLine{Queue: q, Topic: DeviceTopic(name, TopicStatus)}
}

// SetStatus implements link.StatusLine.
func (s *StatusLine) SetStatus(status link.Status) error {
	token := s.Queue.PubWith(s.Topic, []byte(status.String()), 1, false)
	token.Wait()
	return token.Error()
}

// WatchStatus subscribes the status line of the device name.
func WatchStatus(q *Queue, name string) (<-chan link.Status, *Subscription) {
	ch := make(chan link.Status, 4)
	sub := q.Sub(DeviceTopic(name, TopicStatus), func(topic string, payload []byte) {
		status, err := link.ParseStatus(string(payload))
		if err != nil {
			glog.Warningf("%s: %v", topic, err)
			return
		}
		select {
		case ch <- status:
		default:
			glog.Warningf("%s: status %s dropped", topic, status)
		}
	})
	return ch, sub
}
