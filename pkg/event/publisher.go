package event

import (
	"context"
	"sync"
)

// DefaultSubscriberBuffer is the per-subscriber channel capacity.
const DefaultSubscriberBuffer = 64

// Subscription is one subscriber's view of a Publisher.
type Subscription struct {
	id        uint64
	ch        chan StreamEvent
	done      chan struct{}
	closeOnce sync.Once
	pub       *Publisher

	// sendMu is held for reading by senders and for writing while ch is
	// closed, so nothing sends on a closed channel.
	sendMu sync.RWMutex
	closed bool
}

// Events yields events published after Subscribe returned. The channel is
// closed by Close or when the Publisher is closed.
func (s *Subscription) Events() <-chan StreamEvent {
	return s.ch
}

// Close unsubscribes. It does not affect other subscribers and is safe to
// call more than once.
func (s *Subscription) Close() {
	s.shutdown()
	s.pub.remove(s)
}

// shutdown releases any sender waiting on s, then closes the channel.
func (s *Subscription) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.sendMu.Lock()
		s.closed = true
		close(s.ch)
		s.sendMu.Unlock()
	})
}

// send delivers ev, waiting while the buffer is full. It reports whether ev
// was delivered; ctx's error is returned if ctx ended first.
func (s *Subscription) send(ctx context.Context, ev StreamEvent) (bool, error) {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.closed {
		return false, nil
	}

	select {
	case s.ch <- ev:
		return true, nil
	default:
	}

	select {
	case s.ch <- ev:
		return true, nil
	case <-s.done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Publisher broadcasts StreamEvents to the current subscribers. Nothing is
// retained for subscribers that join later.
type Publisher struct {
	mu          sync.RWMutex
	subscribers map[uint64]*Subscription
	nextID      uint64
	bufSize     int
	closed      bool
}

// NewPublisher creates a publisher whose subscriptions buffer bufSize
// events. bufSize <= 0 selects DefaultSubscriberBuffer.
func NewPublisher(bufSize int) *Publisher {
	if bufSize <= 0 {
		bufSize = DefaultSubscriberBuffer
	}
	return &Publisher{
		subscribers: make(map[uint64]*Subscription),
		bufSize:     bufSize,
	}
}

// Subscribe registers a new subscriber. On a closed Publisher the returned
// subscription's channel is already closed.
func (p *Publisher) Subscribe() *Subscription {
	sub := &Subscription{
		done: make(chan struct{}),
		pub:  p,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sub.ch = make(chan StreamEvent, p.bufSize)
	if p.closed {
		sub.shutdown()
		return sub
	}

	p.nextID++
	sub.id = p.nextID
	p.subscribers[sub.id] = sub
	return sub
}

// Publish offers ev to every current subscriber and returns how many
// accepted it. A subscriber with a full buffer is waited on until it has
// room, unsubscribes, or ctx is done; ctx's error is returned in the last
// case and the remaining subscribers are skipped. The wait does not hold
// the publisher lock, so other subscribers can still come and go.
func (p *Publisher) Publish(ctx context.Context, ev StreamEvent) (int, error) {
	p.mu.RLock()
	subs := make([]*Subscription, 0, len(p.subscribers))
	for _, sub := range p.subscribers {
		subs = append(subs, sub)
	}
	p.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		ok, err := sub.send(ctx, ev)
		if err != nil {
			return delivered, err
		}
		if ok {
			delivered++
		}
	}
	return delivered, nil
}

// SubscriberCount returns the number of active subscribers.
func (p *Publisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}

// Close closes every subscription. Later Subscribe calls return closed
// subscriptions and Publish reaches nobody.
func (p *Publisher) Close() {
	p.mu.Lock()
	subs := p.subscribers
	p.subscribers = make(map[uint64]*Subscription)
	p.closed = true
	p.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}

func (p *Publisher) remove(s *Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.subscribers, s.id)
}
