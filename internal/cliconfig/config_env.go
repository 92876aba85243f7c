package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (MISSIONFEED_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("service-url", os.Getenv("MISSIONFEED_SERVICE_URL"), &cfg.ServiceURL)
	s.setString("auth-token", os.Getenv("MISSIONFEED_AUTH_TOKEN"), &cfg.AuthToken)
	s.setString("token-file", os.Getenv("MISSIONFEED_TOKEN_FILE"), &cfg.TokenFile)
	s.setString("metrics-addr", os.Getenv("MISSIONFEED_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", os.Getenv("MISSIONFEED_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("MISSIONFEED_LOG_FORMAT"), &cfg.LogFormat)
	s.setString("output", os.Getenv("MISSIONFEED_OUTPUT"), &cfg.Output)

	if err := s.setDuration("reconnect-delay", os.Getenv("MISSIONFEED_RECONNECT_DELAY"), &cfg.ReconnectDelay); err != nil {
		return err
	}
	if err := s.setDuration("max-reconnect-delay", os.Getenv("MISSIONFEED_MAX_RECONNECT_DELAY"), &cfg.MaxReconnectDelay); err != nil {
		return err
	}
	if err := s.setDuration("dial-timeout", os.Getenv("MISSIONFEED_DIAL_TIMEOUT"), &cfg.DialTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("subscriber-buffer", os.Getenv("MISSIONFEED_SUBSCRIBER_BUFFER"), &cfg.SubscriberBuffer); err != nil {
		return err
	}

	return nil
}
