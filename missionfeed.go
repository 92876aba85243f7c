// Package missionfeed is an embeddable client for the mission service's
// real-time event stream.
//
// Example usage:
//
//	cfg := missionfeed.DefaultConfig()
//	cfg.ServiceURL = "https://api.example.com"
//
//	sess := session.NewStatic(token)
//	client, err := missionfeed.New(cfg, sess, stream.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	sub := client.Subscribe()
//	client.Connect(ctx)
//	for ev := range sub.Events() {
//	    ...
//	}
//
// The returned client is owned by the caller. Tie Connect and Disconnect to
// the lifecycle of whatever feature consumes the events.
package missionfeed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bft-labs/missionfeed/pkg/event"
	"github.com/bft-labs/missionfeed/pkg/lifecycle"
	"github.com/bft-labs/missionfeed/pkg/log"
	"github.com/bft-labs/missionfeed/pkg/session"
	"github.com/bft-labs/missionfeed/pkg/sse"
	"github.com/bft-labs/missionfeed/pkg/stream"
)

// DefaultServiceURL is the default mission service endpoint.
const DefaultServiceURL = "https://api.missionfeed.io"

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("missionfeed: invalid configuration")

// Config holds the settings for a stream client.
type Config struct {
	// ServiceURL is the base URL; the stream path is appended.
	ServiceURL string

	// ReconnectDelay is the delay before reconnecting after a disconnect.
	ReconnectDelay time.Duration

	// MaxReconnectDelay enables capped exponential backoff when greater
	// than ReconnectDelay. Zero keeps the delay fixed.
	MaxReconnectDelay time.Duration

	// DialTimeout bounds connection setup. Reads are never timed out.
	DialTimeout time.Duration

	// SubscriberBuffer is the per-subscription channel capacity.
	SubscriberBuffer int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ServiceURL:       DefaultServiceURL,
		ReconnectDelay:   lifecycle.DefaultReconnectDelay,
		DialTimeout:      stream.DefaultDialTimeout,
		SubscriberBuffer: event.DefaultSubscriberBuffer,
	}
}

// SetDefaults fills zero fields with defaults.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.ServiceURL == "" {
		c.ServiceURL = d.ServiceURL
	}
	c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.SubscriberBuffer == 0 {
		c.SubscriberBuffer = d.SubscriberBuffer
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	u, err := url.Parse(c.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: service url %q must be an absolute http(s) URL", ErrInvalidConfig, c.ServiceURL)
	}
	if c.ReconnectDelay < 0 {
		return fmt.Errorf("%w: reconnect delay must be positive", ErrInvalidConfig)
	}
	if c.MaxReconnectDelay < 0 {
		return fmt.Errorf("%w: max reconnect delay must not be negative", ErrInvalidConfig)
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("%w: dial timeout must be positive", ErrInvalidConfig)
	}
	if c.SubscriberBuffer < 0 {
		return fmt.Errorf("%w: subscriber buffer must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Backoff returns the reconnect policy described by the config.
func (c Config) Backoff() *lifecycle.Backoff {
	if c.MaxReconnectDelay > c.ReconnectDelay {
		return lifecycle.NewBackoff(c.ReconnectDelay, c.MaxReconnectDelay)
	}
	return lifecycle.NewFixedBackoff(c.ReconnectDelay)
}

// New validates cfg and creates a stream client reading its credential from
// provider. opts are applied after the options derived from cfg.
func New(cfg Config, provider session.Provider, opts ...stream.Option) (*stream.Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	base := []stream.Option{
		stream.WithHTTPClient(stream.NewHTTPClient(cfg.DialTimeout)),
		stream.WithBackoff(cfg.Backoff()),
		stream.WithSubscriberBuffer(cfg.SubscriberBuffer),
	}
	return stream.New(cfg.ServiceURL, provider, append(base, opts...)...)
}

// ModuleVersions returns the version of each sub-module.
func ModuleVersions() map[string]string {
	return map[string]string{
		"event":     event.Version,
		"lifecycle": lifecycle.Version,
		"log":       log.Version,
		"session":   session.Version,
		"sse":       sse.Version,
		"stream":    stream.Version,
	}
}

// validateModuleVersions checks that all module versions are compatible.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"event":     {event.Version, event.MinCompatibleVersion},
		"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
		"log":       {log.Version, log.MinCompatibleVersion},
		"session":   {session.Version, session.MinCompatibleVersion},
		"sse":       {sse.Version, sse.MinCompatibleVersion},
		"stream":    {stream.Version, stream.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible reports whether version >= minVersion, comparing
// "major.minor.patch" numerically.
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
