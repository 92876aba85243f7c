package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bft-labs/missionfeed/pkg/event"
	"github.com/bft-labs/missionfeed/pkg/lifecycle"
	"github.com/bft-labs/missionfeed/pkg/log"
	"github.com/bft-labs/missionfeed/pkg/session"
	"github.com/bft-labs/missionfeed/pkg/sse"
)

const (
	readChunkSize = 4096
	maxErrorBody  = 512
)

// attempt is one transport connection, from request to teardown.
type attempt struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{} // closed once the attempt's goroutine is finished
}

// Client maintains the mission event stream and republishes decoded events
// to subscribers. Create one with New and drive it with Connect and
// Disconnect from the owning feature's lifecycle.
type Client struct {
	endpoint   string
	session    session.Provider
	httpClient HTTPClient
	decoder    *event.Decoder
	publisher  *event.Publisher
	lifecycle  *lifecycle.Manager
	backoff    *lifecycle.Backoff
	logger     log.Logger
	metrics    *Metrics
	handler    EventHandler
	dispatch   *dispatcher

	maxFrameSize int

	mu            sync.Mutex
	attempt       *attempt
	lastAttemptID string
	gen           uint64 // bumped by every connect and disconnect
	sched         scheduler
	closed        bool
}

// New creates a Client for the stream at serviceURL. The client starts
// Idle; nothing is opened until Connect.
func New(serviceURL string, provider session.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: session provider is required", ErrInvalidConfig)
	}
	u, err := url.Parse(serviceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: service url %q", ErrInvalidConfig, serviceURL)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = NewHTTPClient(DefaultDialTimeout)
	}
	if o.backoff == nil {
		o.backoff = lifecycle.NewFixedBackoff(lifecycle.DefaultReconnectDelay)
	}

	c := &Client{
		endpoint:   strings.TrimRight(serviceURL, "/") + o.streamPath,
		session:    provider,
		httpClient: o.httpClient,
		decoder:    event.NewDecoder(o.decoderOpts...),
		publisher:  event.NewPublisher(o.subscriberBuffer),
		backoff:    o.backoff,
		logger:     log.OrNoop(o.logger),
		metrics:    o.metrics,
		handler:    o.handler,

		maxFrameSize: o.maxFrameSize,
	}
	if c.handler != nil {
		c.dispatch = newDispatcher()
	}
	c.lifecycle = lifecycle.NewManager(c.logger, stateEmitter{c})
	return c, nil
}

// Endpoint returns the stream URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// State returns the current connection state.
func (c *Client) State() lifecycle.State {
	return c.lifecycle.State()
}

// Reason returns why the client entered its current state; for
// StateDisconnected, why the last attempt ended.
func (c *Client) Reason() string {
	return c.lifecycle.Reason()
}

// Subscribe returns a subscription receiving every event decoded from now
// on. Close it when done.
func (c *Client) Subscribe() *event.Subscription {
	return c.publisher.Subscribe()
}

// Connect opens the stream if no attempt is live and the session is usable;
// otherwise it does nothing. It returns once response headers arrive or the
// attempt fails. Failures are not returned: they end the attempt and arm a
// reconnect. ctx values are kept but its cancellation does not end the
// stream; use Disconnect.
func (c *Client) Connect(ctx context.Context) {
	c.connect(ctx, nil)
}

// connect starts an attempt. A non-nil gen makes it a scheduled reconnect
// that is abandoned if the client moved on since it was scheduled.
func (c *Client) connect(ctx context.Context, gen *uint64) {
	c.mu.Lock()
	if gen != nil {
		if *gen != c.gen {
			c.mu.Unlock()
			return
		}
		// The timer that called us has fired.
		c.sched.cancel()
	}
	if c.closed || c.attempt != nil {
		c.mu.Unlock()
		c.logger.Debug("connect ignored: attempt already active or client closed")
		return
	}
	snap := c.session.Current()
	if !snap.Usable() {
		c.mu.Unlock()
		c.logger.Debug("connect ignored: session is not authenticated")
		return
	}

	c.sched.cancel()
	c.gen++
	attemptCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a := &attempt{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.attempt = a
	c.lastAttemptID = a.id
	_ = c.lifecycle.TransitionTo(lifecycle.StateConnecting, "connect")
	c.mu.Unlock()

	c.logger.Info("connecting", log.String("attempt", a.id), log.String("endpoint", c.endpoint))

	body, err := c.open(attemptCtx, snap.Credential)
	if err != nil {
		c.metrics.attempt("failed")
		c.finish(a, err)
		close(a.done)
		return
	}

	c.metrics.attempt("connected")
	go c.read(attemptCtx, a, body)
}

// open sends the stream request and returns the response body once a 2xx
// status is received.
func (c *Client) open(ctx context.Context, credential string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp.Body, nil
}

// read owns the response body and the frame buffer for one attempt. It
// feeds chunks in arrival order and publishes decoded events until the body
// ends or the attempt is cancelled.
func (c *Client) read(ctx context.Context, a *attempt, body io.ReadCloser) {
	defer close(a.done)
	defer body.Close()

	buf := sse.Buffer{MaxFrameSize: c.maxFrameSize}
	chunk := make([]byte, readChunkSize)
	streaming := false

	for {
		n, err := body.Read(chunk)
		if n > 0 {
			if !streaming {
				streaming = true
				c.markStreaming(a)
			}
			frames, ferr := buf.Feed(chunk[:n])
			for _, frame := range frames {
				if ctx.Err() != nil {
					break
				}
				c.handleFrame(ctx, a, frame)
			}
			if ferr != nil && ctx.Err() == nil {
				c.dropFrame(a, "", fmt.Errorf("%w: %w", event.ErrMalformedPayload, ferr))
			}
		}
		if err != nil {
			buf.Reset()
			if errors.Is(err, io.EOF) {
				err = ErrStreamClosed
			}
			c.finish(a, err)
			return
		}
	}
}

func (c *Client) handleFrame(ctx context.Context, a *attempt, frame string) {
	payload := sse.Data(frame)
	ev, err := c.decoder.Decode(payload)
	if err != nil {
		c.dropFrame(a, payload, err)
		return
	}

	n, err := c.publisher.Publish(ctx, ev)
	if err != nil {
		// Attempt cancelled while a subscriber was full.
		return
	}
	c.metrics.eventPublished(ev.Kind)
	c.logger.Debug("event published",
		log.String("attempt", a.id),
		log.String("event", ev.String()),
		log.Int("subscribers", n))
}

func (c *Client) dropFrame(a *attempt, payload string, err error) {
	c.metrics.frameDropped(err)
	c.logger.Debug("frame dropped", log.String("attempt", a.id), log.Err(err))
	c.notify(func(h EventHandler) {
		h.OnFrameDropped(FrameDroppedEvent{AttemptID: a.id, Payload: payload, Err: err})
	})
}

func (c *Client) markStreaming(a *attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt != a {
		return
	}
	_ = c.lifecycle.TransitionTo(lifecycle.StateStreaming, "first bytes received")
	c.backoff.Reset()
}

// finish ends attempt a after a transport error or EOF. It is a no-op for
// an attempt already superseded by Disconnect or a newer Connect.
func (c *Client) finish(a *attempt, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt != a {
		return
	}

	c.attempt = nil
	a.cancel()

	reason := cause.Error()
	_ = c.lifecycle.TransitionTo(lifecycle.StateDisconnected, reason)
	c.logger.Warn("stream disconnected", log.String("attempt", a.id), log.Err(cause))

	c.scheduleReconnectLocked(reason)
}

// Disconnect cancels the live attempt and any scheduled reconnect, waits
// for the attempt to release the transport, and moves to Idle. After it
// returns no further events from the old attempt are published. Safe to
// call in any state.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.gen++
	c.sched.cancel()
	a := c.attempt
	c.attempt = nil
	if a != nil {
		a.cancel()
	}
	if c.lifecycle.State() != lifecycle.StateIdle {
		_ = c.lifecycle.TransitionTo(lifecycle.StateIdle, "disconnect")
	}
	c.mu.Unlock()

	if a != nil {
		<-a.done
		c.logger.Info("disconnected", log.String("attempt", a.id))
	}
}

// Close disconnects, closes every subscription and stops handler delivery.
// The client cannot be reused.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.Disconnect()
	c.publisher.Close()
	if c.dispatch != nil {
		c.dispatch.close()
	}
}

// reconnectPending reports whether a reconnect timer is armed.
func (c *Client) reconnectPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.pending()
}

func (c *Client) notify(fn func(EventHandler)) {
	if c.dispatch == nil {
		return
	}
	h := c.handler
	c.dispatch.enqueue(func() { fn(h) })
}

// stateEmitter forwards lifecycle transitions to metrics and the handler.
// Transitions happen with c.mu held.
type stateEmitter struct {
	c *Client
}

func (e stateEmitter) OnStateChange(previous, current lifecycle.State, reason string) {
	e.c.metrics.setState(current)
	ev := StateChangeEvent{
		Previous:  previous,
		Current:   current,
		Reason:    reason,
		AttemptID: e.c.lastAttemptID,
	}
	e.c.notify(func(h EventHandler) { h.OnStateChange(ev) })
}
