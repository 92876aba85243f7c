package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/missionfeed"
	"github.com/bft-labs/missionfeed/internal/cliconfig"
	"github.com/bft-labs/missionfeed/internal/sink"
	"github.com/bft-labs/missionfeed/pkg/lifecycle"
	"github.com/bft-labs/missionfeed/pkg/log"
	"github.com/bft-labs/missionfeed/pkg/session"
	"github.com/bft-labs/missionfeed/pkg/stream"
)

// watchedSession is a session provider that reports login and logout.
type watchedSession interface {
	session.Provider
	OnChange(session.ChangeFunc)
}

func newWatchCommand() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream mission events to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if err := loadConfig(&cfg, cfgPath, changed); err != nil {
				return err
			}
			return runWatch(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.missionfeed/config.toml)")
	f.StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "base URL of the mission service")
	f.StringVar(&cfg.AuthToken, "auth-token", cfg.AuthToken, "bearer token for the event stream")
	f.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "file holding the bearer token; watched for login and logout")
	f.DurationVar(&cfg.ReconnectDelay, "reconnect-delay", cfg.ReconnectDelay, "delay before reconnecting after the stream drops")
	f.DurationVar(&cfg.MaxReconnectDelay, "max-reconnect-delay", cfg.MaxReconnectDelay, "enable exponential backoff up to this delay (0 keeps the delay fixed)")
	f.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "connection setup timeout")
	f.IntVar(&cfg.SubscriberBuffer, "subscriber-buffer", cfg.SubscriberBuffer, "events buffered for the output before the stream waits")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (disabled when empty)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console or json)")
	f.StringVar(&cfg.Output, "output", cfg.Output, "event output format (json or text)")

	return cmd
}

// loadConfig layers file, environment and flags, flags winning.
func loadConfig(cfg *cliconfig.Config, cfgPath string, changed map[string]bool) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file %s not found", cfgPath)
	}

	// Environment overrides the file but not explicit flags.
	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}

	return cfg.Validate()
}

func runWatch(parent context.Context, cfg cliconfig.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.NewZerologAdapter(log.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Log configuration (masking the token)
	logCfg := cfg
	logCfg.AuthToken = cfg.MaskedToken()
	zl := logger.Logger()
	zl.Info().Interface("config", logCfg).Msg("configuration")

	sess, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := stream.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	libCfg := missionfeed.Config{
		ServiceURL:        cfg.ServiceURL,
		ReconnectDelay:    cfg.ReconnectDelay,
		MaxReconnectDelay: cfg.MaxReconnectDelay,
		DialTimeout:       cfg.DialTimeout,
		SubscriberBuffer:  cfg.SubscriberBuffer,
	}
	client, err := missionfeed.New(libCfg, sess,
		stream.WithLogger(logger),
		stream.WithMetrics(metrics),
		stream.WithEventHandler(&continuityHandler{logger: logger}),
	)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	out, err := sink.NewWriter(os.Stdout, cfg.Output, logger)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	sinkErr := make(chan error, 1)
	sub := client.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		sinkErr <- out.Run(ctx, sub)
	}()

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		srv = serveMetrics(cfg.MetricsAddr, reg, logger)
	}

	sess.OnChange(func(snap session.Snapshot) {
		if snap.Usable() {
			client.Connect(ctx)
			return
		}
		client.Disconnect()
	})
	if fp, ok := sess.(*session.FileProvider); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fp.Watch(ctx); err != nil {
				logger.Error("token file watch stopped", log.Err(err))
			}
		}()
	}

	if sess.Current().Usable() {
		client.Connect(ctx)
	} else {
		logger.Info("waiting for login", log.String("token_file", cfg.TokenFile))
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received signal, stopping...")
	case runErr = <-sinkErr:
		if runErr != nil {
			logger.Error("output failed", log.Err(runErr))
		}
	}

	stop()
	client.Close()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", log.Err(err))
		}
	}
	wg.Wait()

	logger.Info("stopped", log.Int("events", out.Count()))
	return runErr
}

func newSession(cfg cliconfig.Config, logger log.Logger) (watchedSession, error) {
	if cfg.TokenFile == "" {
		return session.NewStatic(cfg.AuthToken), nil
	}
	fp, err := session.NewFileProvider(cfg.TokenFile, logger)
	if err != nil {
		return nil, fmt.Errorf("token file: %w", err)
	}
	return fp, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", log.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", log.Err(err))
		}
	}()
	return srv
}

// continuityHandler warns when the stream resumes after a drop, since
// events sent while disconnected are not replayed.
type continuityHandler struct {
	stream.BaseEventHandler
	logger  log.Logger
	dropped bool
}

func (h *continuityHandler) OnStateChange(ev stream.StateChangeEvent) {
	switch ev.Current {
	case lifecycle.StateDisconnected:
		h.dropped = true
	case lifecycle.StateIdle:
		h.dropped = false
	case lifecycle.StateStreaming:
		if h.dropped {
			h.dropped = false
			h.logger.Warn("stream resumed; changes made while disconnected were not delivered",
				log.String("attempt", ev.AttemptID))
		}
	}
}
