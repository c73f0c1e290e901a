package mqtt

import (
	"context"
	"io"
)

// ReadWriter implements link.PacketReadWriter. Run must be running
// for packets to be received.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{Queue: q, packetCh: make(chan []byte, 4)}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForDevice sets topics for the device serving requests.
func (p *ReadWriter) ForDevice(name string) *ReadWriter {
	return p.WithTopics(DeviceTopic(name, TopicRequest), DeviceTopic(name, TopicResponse))
}

// ForHost sets topics for the host sending requests.
func (p *ReadWriter) ForHost(name string) *ReadWriter {
	return p.WithTopics(DeviceTopic(name, TopicResponse), DeviceTopic(name, TopicRequest))
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	pkt, ok := <-p.packetCh
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.PubWith(p.PubTopic, pkt, 1, false)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	defer close(p.packetCh)
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	pkt := make([]byte, len(payload))
	copy(pkt, payload)
	p.packetCh <- pkt
}
