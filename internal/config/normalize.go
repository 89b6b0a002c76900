package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/venuestatus/internal/foundation/normalization"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// Normalize canonicalizes enumerated fields before defaults are applied.
// Unknown values are cleared so defaults take over, with a warning.
func Normalize(c *Config) *NormalizationResult {
	res := &NormalizationResult{}

	if raw := string(c.Persistence.RetryBackoff); strings.TrimSpace(raw) != "" {
		mode := NormalizeRetryBackoff(raw)
		res.note("persistence.retry_backoff", raw, string(mode))
		c.Persistence.RetryBackoff = mode
	}
	if raw := string(c.Logging.Level); strings.TrimSpace(raw) != "" {
		lvl := NormalizeLogLevel(raw)
		res.note("logging.level", raw, string(lvl))
		c.Logging.Level = lvl
	}
	if raw := string(c.Logging.Format); strings.TrimSpace(raw) != "" {
		f := NormalizeLogFormat(raw)
		res.note("logging.format", raw, string(f))
		c.Logging.Format = f
	}
	if raw := string(c.Notifications.Transport); strings.TrimSpace(raw) != "" {
		t := transports.Normalize(raw)
		res.note("notifications.transport", raw, string(t))
		c.Notifications.Transport = t
	}
	return res
}

var transports = normalization.New(map[string]TransportKind{
	"log":  TransportLog,
	"nats": TransportNATS,
}, "")

func (r *NormalizationResult) note(field, from, to string) {
	switch {
	case to == "":
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: unknown value %q, using default", field, from))
	case to != from:
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: normalized %q to %q", field, from, to))
	}
}
