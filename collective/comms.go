// Package collective provides collective communication between a fixed
// set of ranked workers on a simulated network: variable-count scatter,
// gather, broadcast and a barrier.
package collective

import (
	"github.com/unixpickle/essentials"

	"github.com/stephenpcook/mpitutorial/simnet"
)

// A Comms is a single worker's view of the cluster during a run.
//
// Packets are tagged with the operation that sent them, so collective
// operations of different kinds may overlap in flight. Two collectives
// of the same kind on one Comms are only safe over a network that
// preserves order between each pair of workers, such as
// simnet.LinkNetwork.
type Comms struct {
	// Handle is the worker's main goroutine's handle on the loop.
	Handle *simnet.Handle

	// Port is the current worker's port.
	Port *simnet.Port

	// Ports contains the ports of every worker in the cluster,
	// including the current one, indexed by rank.
	Ports []*simnet.Port

	// Network connects the workers.
	Network simnet.Network

	// Packets received ahead of the operation that wants them.
	held []heldPacket
}

type opCode int

const (
	opData opCode = iota
	opScatter
	opGather
	opBcast
	opBarrier
)

var opNames = [...]string{"data", "scatterv", "gather", "bcast", "barrier"}

type packet struct {
	op  opCode
	vec []float64
}

type heldPacket struct {
	packet *packet
	src    int
}

// Spawn creates a Comms for every worker in a cluster of the given
// size and calls f for each one in its own goroutine.
func Spawn(loop *simnet.Loop, network simnet.Network, workers int, f func(c *Comms)) {
	ports := make([]*simnet.Port, workers)
	for i := range ports {
		ports[i] = loop.Port()
	}
	for i := range ports {
		port := ports[i]
		loop.Go(func(h *simnet.Handle) {
			f(&Comms{
				Handle:  h,
				Port:    port,
				Ports:   ports,
				Network: network,
			})
		})
	}
}

// Size returns the number of workers in the cluster.
func (c *Comms) Size() int {
	return len(c.Ports)
}

// Rank returns the current worker's rank, in [0, Size()).
func (c *Comms) Rank() int {
	return c.rankOf(c.Port)
}

// Send delivers a vector to the worker with the given rank.
func (c *Comms) Send(dst int, vec []float64) {
	c.send(opData, dst, vec)
}

// Recv blocks for the next point-to-point vector and the rank that
// sent it.
func (c *Comms) Recv() ([]float64, int) {
	return c.recv(opData)
}

func (c *Comms) rankOf(p *simnet.Port) int {
	for i, port := range c.Ports {
		if port == p {
			return i
		}
	}
	panic("port does not belong to this cluster")
}

func (c *Comms) send(op opCode, dst int, vec []float64) {
	size := float64(len(vec)*8) + 1
	c.Network.Send(c.Handle, &simnet.Message{
		Source:  c.Port,
		Dest:    c.Ports[dst],
		Payload: &packet{op: op, vec: vec},
		Size:    size,
	})
	MessagesTotal.WithLabelValues(opNames[op]).Inc()
	BytesTotal.WithLabelValues(opNames[op]).Add(size)
}

// recv returns the next packet sent by the given operation, holding
// back packets that belong to other operations still in flight.
func (c *Comms) recv(op opCode) ([]float64, int) {
	for i, h := range c.held {
		if h.packet.op == op {
			essentials.OrderedDelete(&c.held, i)
			return h.packet.vec, h.src
		}
	}
	for {
		msg := c.Port.Recv(c.Handle)
		p := msg.Payload.(*packet)
		src := c.rankOf(msg.Source)
		if p.op == op {
			return p.vec, src
		}
		c.held = append(c.held, heldPacket{packet: p, src: src})
	}
}
