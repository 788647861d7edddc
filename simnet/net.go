package simnet

import (
	"math/rand"
	"sync"
)

// A Port is one worker's point of communication. Data is sent from
// Ports and received on Ports.
type Port struct {
	// Incoming is a stream of *Message payloads.
	Incoming *Stream
}

// Port creates a Port attached to the loop.
func (l *Loop) Port() *Port {
	return &Port{Incoming: l.Stream()}
}

// Recv blocks until the next message arrives on the port.
func (p *Port) Recv(h *Handle) *Message {
	return h.Poll(p.Incoming).Payload.(*Message)
}

// A Message is a chunk of data in flight between two ports.
type Message struct {
	Source  *Port
	Dest    *Port
	Payload interface{}
	Size    float64
}

// A Network decides when messages sent between ports arrive.
type Network interface {
	// Send schedules delivery of the messages. The messages arrive on
	// their destination ports' Incoming streams.
	//
	// This is a non-blocking operation.
	Send(h *Handle, msgs ...*Message)
}

// A RandomNetwork delivers every message after an independent uniform
// random delay. Messages between the same pair of ports may arrive out
// of order.
type RandomNetwork struct {
	// MaxDelay bounds the delivery delay. Zero means 1.
	MaxDelay float64
}

// Send delivers the messages with random delays.
func (r RandomNetwork) Send(h *Handle, msgs ...*Message) {
	maxDelay := r.MaxDelay
	if maxDelay == 0 {
		maxDelay = 1
	}
	for _, msg := range msgs {
		h.Schedule(msg.Dest.Incoming, msg, rand.Float64()*maxDelay)
	}
}

// A LinkNetwork models a dedicated link into every port with a fixed
// transfer rate and per-message latency. Messages to the same
// destination are serialized in send order, so delivery between any
// pair of ports is first-in first-out.
type LinkNetwork struct {
	rate    float64
	latency float64

	lock sync.Mutex
	busy map[*Port]float64
}

// NewLinkNetwork creates a LinkNetwork. The rate is in size units per
// unit of virtual time and must be positive.
func NewLinkNetwork(rate, latency float64) *LinkNetwork {
	if rate <= 0 {
		panic("non-positive transfer rate")
	}
	return &LinkNetwork{
		rate:    rate,
		latency: latency,
		busy:    map[*Port]float64{},
	}
}

// Send schedules the messages, queueing each one behind earlier
// traffic into its destination.
func (n *LinkNetwork) Send(h *Handle, msgs ...*Message) {
	n.lock.Lock()
	defer n.lock.Unlock()

	now := h.Time()
	for _, msg := range msgs {
		transfer := n.latency + msg.Size/n.rate
		start := now
		if t, ok := n.busy[msg.Dest]; ok && t > start {
			start = t
		}
		n.busy[msg.Dest] = start + transfer
		h.Schedule(msg.Dest.Incoming, msg, start+transfer-now)
	}
}
