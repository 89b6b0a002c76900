package config

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/venuestatus/internal/foundation/errors"
)

// maxSoonWindow keeps lead-time windows shorter than half a day so schedule
// evaluation only needs the neighbouring days.
const maxSoonWindow = 12 * time.Hour

// Validate checks a defaulted configuration.
func Validate(c *Config) error {
	e := c.Engine
	for _, w := range []struct {
		field string
		value time.Duration
	}{
		{"engine.opening_soon_window", e.OpeningSoonWindow.D()},
		{"engine.closing_soon_window", e.ClosingSoonWindow.D()},
	} {
		if w.value <= 0 || w.value > maxSoonWindow {
			return invalid(w.field, fmt.Sprintf("must be within (0, %s]", maxSoonWindow))
		}
	}
	if e.AutoTransitionDelay <= 0 {
		return invalid("engine.auto_transition_delay", "must be positive")
	}
	if e.FastTickInterval <= 0 || e.SlowTickInterval <= 0 {
		return invalid("engine.fast_tick_interval", "tick intervals must be positive")
	}
	if e.NotificationDedupWindow < 0 {
		return invalid("engine.notification_dedup_window", "must not be negative")
	}

	p := c.Persistence
	if p.MaxRetries < 0 {
		return invalid("persistence.max_retries", "must not be negative")
	}
	if p.RetryInitialDelay > p.RetryMaxDelay {
		return invalid("persistence.retry_initial_delay", "must not exceed retry_max_delay")
	}

	if c.Notifications.Transport == TransportNATS && c.Notifications.NATS.URL == "" {
		return invalid("notifications.nats.url", "required when transport is nats")
	}
	if c.HTTP.RatePerMinute < 0 {
		return invalid("http.rate_per_minute", "must not be negative")
	}
	return nil
}

func invalid(field, reason string) error {
	return errors.ConfigError(fmt.Sprintf("%s %s", field, reason)).
		WithContext("field", field).
		WithContext("reason", reason).
		Build()
}
