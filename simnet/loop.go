// Package simnet simulates a network of communicating workers on a
// virtual clock. Goroutines attached to a Loop only make progress
// through virtual time when they poll for events, so simulated machines
// never have to care about real timing.
package simnet

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/unixpickle/essentials"
)

// A Stream is a uni-directional mailbox for events delivered through a
// Loop.
//
// A Stream may only be used with the Loop that created it.
type Stream struct {
	loop   *Loop
	queued []interface{}
}

// An Event is a payload delivered on some Stream.
type Event struct {
	Payload interface{}
	Stream  *Stream
}

// A Timer is a single delivery scheduled at a fixed point in the
// virtual future.
type Timer struct {
	at    float64
	event *Event
}

// At returns the virtual time at which the timer fires.
func (t *Timer) At() float64 {
	return t.at
}

// A Handle is one goroutine's connection to a Loop. Handles must not be
// shared between goroutines.
type Handle struct {
	*Loop

	// Empty unless the goroutine is currently polling.
	waitStreams []*Stream
	waitCh      chan<- *Event
}

// Poll blocks until the next event arrives on any of the given streams.
func (h *Handle) Poll(streams ...*Stream) *Event {
	ch := make(chan *Event, 1)
	h.withScheduling(func() {
		if h.waitStreams != nil {
			panic("Handle is shared between goroutines")
		}
		for _, s := range streams {
			if len(s.queued) > 0 {
				payload := s.queued[0]
				essentials.OrderedDelete(&s.queued, 0)
				ch <- &Event{Payload: payload, Stream: s}
				return
			}
		}
		h.waitStreams = streams
		h.waitCh = ch
	})
	return <-ch
}

// Schedule arranges for payload to arrive on the stream after delay
// units of virtual time.
func (h *Handle) Schedule(s *Stream, payload interface{}, delay float64) *Timer {
	if s.loop != h.Loop {
		panic("Stream belongs to a different Loop")
	}
	var timer *Timer
	h.withState(func() {
		timer = &Timer{
			at:    h.now + delay,
			event: &Event{Payload: payload, Stream: s},
		}
		if math.IsInf(timer.at, 0) || math.IsNaN(timer.at) {
			panic(fmt.Sprintf("invalid deadline: %f", timer.at))
		}
		h.timers = append(h.timers, timer)
	})
	return timer
}

// Sleep blocks for a span of virtual time.
func (h *Handle) Sleep(delay float64) {
	s := h.Stream()
	h.Schedule(s, nil, delay)
	h.Poll(s)
}

// A Loop schedules events for a set of goroutines against a shared
// virtual clock. The clock only advances when every attached goroutine
// is polling, which is what makes computation appear instantaneous
// unless a goroutine explicitly sleeps.
//
// Goroutines must be attached with Go().
type Loop struct {
	lock    sync.Mutex
	timers  []*Timer
	handles []*Handle

	now float64

	running  bool
	notifyCh chan struct{}
}

// NewLoop creates a Loop with its clock at zero.
func NewLoop() *Loop {
	return &Loop{notifyCh: make(chan struct{}, 1)}
}

// Stream creates a Stream attached to the loop.
func (l *Loop) Stream() *Stream {
	return &Stream{loop: l}
}

// Go starts f in its own goroutine with a fresh Handle.
func (l *Loop) Go(f func(h *Handle)) {
	h := &Handle{Loop: l}
	l.lock.Lock()
	l.handles = append(l.handles, h)
	l.lock.Unlock()
	go func() {
		f(h)
		l.withScheduling(func() {
			for i, handle := range l.handles {
				if handle == h {
					essentials.UnorderedDelete(&l.handles, i)
					return
				}
			}
			panic("handle released twice")
		})
	}()
}

// Run drives the loop until every attached goroutine has returned.
//
// Only one goroutine may call Run at a time. Returns an error if the
// simulation deadlocks.
func (l *Loop) Run() error {
	l.lock.Lock()
	if l.running {
		l.lock.Unlock()
		panic("Loop is already running")
	}
	l.running = true
	l.lock.Unlock()

	defer func() {
		l.lock.Lock()
		l.running = false
		l.lock.Unlock()
	}()

	for range l.notifyCh {
		if cont, err := l.step(); !cont {
			return err
		}
	}

	panic("unreachable")
}

// MustRun is like Run, but panics on deadlock.
func (l *Loop) MustRun() {
	if err := l.Run(); err != nil {
		panic(err)
	}
}

// Time returns the current virtual time.
func (l *Loop) Time() float64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.now
}

// withState runs f with the loop state locked, for changes that cannot
// affect which goroutines are runnable.
func (l *Loop) withState(f func()) {
	l.lock.Lock()
	defer l.lock.Unlock()
	f()
}

// withScheduling is like withState, but wakes the loop afterwards
// because f may have changed a Handle's polling status.
func (l *Loop) withScheduling(f func()) {
	l.lock.Lock()
	defer func() {
		l.lock.Unlock()
		select {
		case l.notifyCh <- struct{}{}:
		default:
		}
	}()
	f()
}

// step fires the next deliverable timer. The first return value is
// false once the loop can make no more progress; the error reports a
// deadlock if one caused the stop.
func (l *Loop) step() (bool, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if len(l.handles) == 0 {
		return false, nil
	}

	for _, h := range l.handles {
		if len(h.waitStreams) == 0 {
			// Some goroutine is computing in real time; let it reach
			// its next poll before the clock moves.
			return true, nil
		}
	}

	for len(l.timers) > 0 {
		// Break deadline ties at random so that simultaneous events
		// are not delivered in a fixed order.
		order := rand.Perm(len(l.timers))
		next := order[0]
		for _, i := range order[1:] {
			if l.timers[i].at < l.timers[next].at {
				next = i
			}
		}
		timer := l.timers[next]

		essentials.UnorderedDelete(&l.timers, next)
		l.now = math.Max(l.now, timer.at)
		if l.deliver(timer.event) {
			return true, nil
		}
	}

	return false, errors.New("deadlock: every goroutine is polling")
}

// deliver hands an event to a polling goroutine, or queues it on the
// stream when nobody is listening yet. Reports whether a goroutine
// woke up.
func (l *Loop) deliver(event *Event) bool {
	order := rand.Perm(len(l.handles))
	for _, i := range order {
		h := l.handles[i]
		for _, s := range h.waitStreams {
			if s == event.Stream {
				h.waitCh <- event
				h.waitCh = nil
				h.waitStreams = nil
				return true
			}
		}
	}
	event.Stream.queued = append(event.Stream.queued, event.Payload)
	return false
}
