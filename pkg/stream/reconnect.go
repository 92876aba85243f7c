package stream

import (
	"context"
	"time"

	"github.com/bft-labs/missionfeed/pkg/log"
)

// scheduler holds at most one pending reconnect timer. It is guarded by
// Client.mu.
type scheduler struct {
	timer *time.Timer
}

func (s *scheduler) schedule(d time.Duration, fn func()) {
	s.cancel()
	s.timer = time.AfterFunc(d, fn)
}

func (s *scheduler) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *scheduler) pending() bool {
	return s.timer != nil
}

// scheduleReconnectLocked arms one reconnect after a disconnect, unless an
// attempt is live, the client is closed, or the session is gone.
// c.mu must be held.
func (c *Client) scheduleReconnectLocked(reason string) {
	if c.closed || c.attempt != nil {
		return
	}
	if !c.session.Current().Authenticated {
		c.logger.Info("not reconnecting: session is not authenticated")
		return
	}

	delay := c.backoff.Next()
	gen := c.gen
	c.sched.schedule(delay, func() {
		c.connect(context.Background(), &gen)
	})

	c.metrics.reconnectScheduled()
	c.logger.Info("reconnect scheduled",
		log.Duration("delay", delay),
		log.String("reason", reason))
	c.notify(func(h EventHandler) {
		h.OnReconnectScheduled(ReconnectEvent{Delay: delay, Reason: reason})
	})
}
