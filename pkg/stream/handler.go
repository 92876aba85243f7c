package stream

import (
	"sync"
	"time"

	"github.com/bft-labs/missionfeed/pkg/lifecycle"
)

// StateChangeEvent describes a connection state transition.
type StateChangeEvent struct {
	Previous  lifecycle.State
	Current   lifecycle.State
	Reason    string
	AttemptID string
}

// FrameDroppedEvent describes a frame that produced no StreamEvent.
type FrameDroppedEvent struct {
	AttemptID string
	Payload   string
	Err       error
}

// ReconnectEvent describes a scheduled reconnect.
type ReconnectEvent struct {
	Delay  time.Duration
	Reason string
}

// EventHandler observes the client. Calls are made in order on a dedicated
// goroutine, so a handler may call Connect or Disconnect.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnFrameDropped(FrameDroppedEvent)
	OnReconnectScheduled(ReconnectEvent)
}

// BaseEventHandler provides no-op implementations for embedding.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)      {}
func (BaseEventHandler) OnFrameDropped(FrameDroppedEvent)    {}
func (BaseEventHandler) OnReconnectScheduled(ReconnectEvent) {}

// dispatcher runs queued handler calls in FIFO order. Enqueue never blocks.
type dispatcher struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{done: make(chan struct{})}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

func (d *dispatcher) enqueue(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue = append(d.queue, fn)
	d.cond.Signal()
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		fn()
	}
}

// close drains the queue and stops the goroutine. It must not be called
// from a handler.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.cond.Signal()
	d.mu.Unlock()
	<-d.done
}
