package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) StreamEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return StreamEvent{}
	}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if ok {
			t.Fatalf("unexpected event %v", ev)
		}
	case <-time.After(20 * time.Millisecond):
	}
}

func TestPublisher_NoSubscriberDrop(t *testing.T) {
	p := NewPublisher(0)
	ctx := context.Background()

	n, err := p.Publish(ctx, Deleted("early"))
	require.NoError(t, err)
	assert.Zero(t, n)

	sub := p.Subscribe()
	defer sub.Close()
	assertNoEvent(t, sub)

	_, err = p.Publish(ctx, Deleted("late"))
	require.NoError(t, err)
	assert.Equal(t, "late", receive(t, sub).ID())
}

func TestPublisher_FanOutInOrder(t *testing.T) {
	p := NewPublisher(4)
	a, b := p.Subscribe(), p.Subscribe()
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		n, err := p.Publish(ctx, Deleted(id))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	for _, sub := range []*Subscription{a, b} {
		for _, id := range []string{"1", "2", "3"} {
			assert.Equal(t, id, receive(t, sub).ID())
		}
	}
}

func TestPublisher_UnsubscribeIsolation(t *testing.T) {
	p := NewPublisher(4)
	a, b := p.Subscribe(), p.Subscribe()
	defer b.Close()

	a.Close()
	a.Close() // idempotent

	_, ok := <-a.Events()
	assert.False(t, ok, "closed subscription channel should be closed")
	assert.Equal(t, 1, p.SubscriberCount())

	n, err := p.Publish(context.Background(), Deleted("x"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "x", receive(t, b).ID())
}

func TestPublisher_BlockedPublishReleasedByClose(t *testing.T) {
	p := NewPublisher(1)
	slow := p.Subscribe()

	_, err := p.Publish(context.Background(), Deleted("fills buffer"))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Publish(context.Background(), Deleted("blocks"))
	}()

	select {
	case <-done:
		t.Fatal("publish should block on a full subscriber")
	case <-time.After(20 * time.Millisecond):
	}

	slow.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish not released by subscriber close")
	}
}

func TestPublisher_BlockedPublishReleasedByContext(t *testing.T) {
	p := NewPublisher(1)
	sub := p.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	_, err := p.Publish(ctx, Deleted("fills buffer"))
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Publish(ctx, Deleted("blocks"))
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("publish not released by context cancel")
	}
}

func TestPublisher_Close(t *testing.T) {
	p := NewPublisher(0)
	sub := p.Subscribe()

	p.Close()
	_, ok := <-sub.Events()
	assert.False(t, ok)
	sub.Close() // no panic after publisher close

	late := p.Subscribe()
	_, ok = <-late.Events()
	assert.False(t, ok)

	n, err := p.Publish(context.Background(), Deleted("x"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublisher_ConcurrentSubscribeClose(t *testing.T) {
	p := NewPublisher(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			_, _ = p.Publish(ctx, Deleted("x"))
		}
	}()

	for i := 0; i < 100; i++ {
		sub := p.Subscribe()
		sub.Close()
	}
	cancel()
	wg.Wait()
	assert.Zero(t, p.SubscriberCount())
}

func TestPublisher_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	p := NewPublisher(1)
	slow := p.Subscribe()
	defer slow.Close()
	other := p.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := p.Publish(ctx, Deleted("fills buffer"))
	require.NoError(t, err)
	assert.Equal(t, "fills buffer", receive(t, other).ID())

	published := make(chan struct{})
	go func() {
		defer close(published)
		_, _ = p.Publish(ctx, Deleted("waits on slow"))
	}()

	// Let Publish reach the full subscriber.
	time.Sleep(20 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		other.Close()
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close of an unrelated subscriber blocked behind a full one")
	}

	subscribed := make(chan *Subscription, 1)
	go func() { subscribed <- p.Subscribe() }()
	select {
	case late := <-subscribed:
		late.Close()
	case <-time.After(time.Second):
		t.Fatal("Subscribe blocked behind a full subscriber")
	}

	select {
	case <-published:
		t.Fatal("publish should still be waiting on the full subscriber")
	default:
	}

	assert.Equal(t, "fills buffer", receive(t, slow).ID())
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publish not released after the slow subscriber drained")
	}
	assert.Equal(t, "waits on slow", receive(t, slow).ID())
}

func TestPublisher_CloseDuringBlockedPublish(t *testing.T) {
	p := NewPublisher(1)
	sub := p.Subscribe()

	_, err := p.Publish(context.Background(), Deleted("fills buffer"))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Publish(context.Background(), Deleted("blocks"))
	}()
	time.Sleep(20 * time.Millisecond)

	// Closing the publisher must release the sender without a send on a
	// closed channel.
	p.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish not released by publisher close")
	}

	assert.Equal(t, "fills buffer", receive(t, sub).ID())
	_, ok := <-sub.Events()
	assert.False(t, ok)
}
