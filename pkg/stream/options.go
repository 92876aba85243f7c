package stream

import (
	"time"

	"github.com/bft-labs/missionfeed/pkg/event"
	"github.com/bft-labs/missionfeed/pkg/lifecycle"
	"github.com/bft-labs/missionfeed/pkg/log"
)

// DefaultStreamPath is appended to the service URL to form the endpoint.
const DefaultStreamPath = "/v1/missions/events"

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	httpClient       HTTPClient
	logger           log.Logger
	handler          EventHandler
	backoff          *lifecycle.Backoff
	metrics          *Metrics
	decoderOpts      []event.DecoderOption
	subscriberBuffer int
	streamPath       string
	maxFrameSize     int
}

func defaultOptions() options {
	return options{
		logger:     log.NewNoopLogger(),
		streamPath: DefaultStreamPath,
	}
}

// WithHTTPClient sets the client used for the stream request. It must not
// impose an overall request timeout. Default: NewHTTPClient(DefaultDialTimeout).
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a structured logger. Default: no output.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler observes state changes, dropped frames and reconnects.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.handler = handler
	}
}

// WithReconnectDelay sets a fixed reconnect delay.
// Default: lifecycle.DefaultReconnectDelay.
func WithReconnectDelay(d time.Duration) Option {
	return func(o *options) {
		o.backoff = lifecycle.NewFixedBackoff(d)
	}
}

// WithBackoff sets the reconnect delay policy.
func WithBackoff(b *lifecycle.Backoff) Option {
	return func(o *options) {
		o.backoff = b
	}
}

// WithMetrics records client activity in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithDecoderOptions configures how frame payloads are decoded.
func WithDecoderOptions(opts ...event.DecoderOption) Option {
	return func(o *options) {
		o.decoderOpts = append(o.decoderOpts, opts...)
	}
}

// WithSubscriberBuffer sets each subscription's channel capacity.
func WithSubscriberBuffer(n int) Option {
	return func(o *options) {
		o.subscriberBuffer = n
	}
}

// WithStreamPath overrides DefaultStreamPath.
func WithStreamPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.streamPath = path
		}
	}
}

// WithMaxFrameSize caps the bytes buffered for one frame. Larger frames are
// dropped as malformed. Default: sse.DefaultMaxFrameSize.
func WithMaxFrameSize(n int) Option {
	return func(o *options) {
		o.maxFrameSize = n
	}
}
