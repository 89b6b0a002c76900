package config

import "time"

const (
	DefaultAutoTransitionDelay = 60 * time.Minute
	DefaultSoonWindow          = 30 * time.Minute
	DefaultFastTickInterval    = 10 * time.Second
	DefaultSlowTickInterval    = 60 * time.Second
	DefaultDatabase            = "./venuestatus.db"
	DefaultHTTPAddr            = ":8080"
	DefaultRatePerMinute       = 120
	DefaultQueueSize           = 1024
	DefaultNATSSubject         = "venuestatus.notifications"
	DefaultNATSStream          = "VENUESTATUS_NOTIFICATIONS"
)

// ApplyDefaults fills every unset field. MaxRetries is left alone when set
// negative so validation can reject it.
func ApplyDefaults(c *Config) {
	e := &c.Engine
	setDuration(&e.AutoTransitionDelay, DefaultAutoTransitionDelay)
	setDuration(&e.OpeningSoonWindow, DefaultSoonWindow)
	setDuration(&e.ClosingSoonWindow, DefaultSoonWindow)
	setDuration(&e.FastTickInterval, DefaultFastTickInterval)
	setDuration(&e.SlowTickInterval, DefaultSlowTickInterval)
	setDuration(&e.NotificationDedupWindow, e.FastTickInterval.D())

	if c.Storage.Database == "" {
		c.Storage.Database = DefaultDatabase
	}

	p := &c.Persistence
	if p.RetryBackoff == "" {
		p.RetryBackoff = RetryBackoffExponential
	}
	setDuration(&p.RetryInitialDelay, time.Second)
	setDuration(&p.RetryMaxDelay, 30*time.Second)
	if p.MaxRetries == 0 {
		p.MaxRetries = 5
	}

	n := &c.Notifications
	if n.Transport == "" {
		n.Transport = TransportLog
	}
	if n.QueueSize <= 0 {
		n.QueueSize = DefaultQueueSize
	}
	if n.NATS.Subject == "" {
		n.NATS.Subject = DefaultNATSSubject
	}
	if n.NATS.Stream == "" {
		n.NATS.Stream = DefaultNATSStream
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
	if c.HTTP.RatePerMinute == 0 {
		c.HTTP.RatePerMinute = DefaultRatePerMinute
	}

	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
}

func setDuration(d *Duration, def time.Duration) {
	if *d <= 0 {
		*d = Duration(def)
	}
}
