package daemon

import (
	"context"
	"strconv"
	"time"

	"git.home.luguber.info/inful/venuestatus/internal/api"
	"git.home.luguber.info/inful/venuestatus/internal/engine"
)

// Health reports daemon, storage and reconciliation state. A reconciliation
// cadence that has not completed within three intervals marks the daemon
// degraded.
func (d *Daemon) Health(ctx context.Context) api.HealthResponse {
	now := d.clock.Now()
	resp := api.HealthResponse{
		Status:    api.HealthHealthy,
		Timestamp: now,
		Uptime:    now.Sub(d.started).Round(time.Second).String(),
	}

	add := func(c api.HealthCheck) {
		resp.Checks = append(resp.Checks, c)
		switch {
		case c.Status == api.HealthUnhealthy:
			resp.Status = api.HealthUnhealthy
		case c.Status == api.HealthDegraded && resp.Status == api.HealthHealthy:
			resp.Status = api.HealthDegraded
		}
	}

	daemonCheck := api.HealthCheck{Name: "daemon", Status: api.HealthHealthy, Message: string(d.GetStatus())}
	if d.GetStatus() != StatusRunning {
		daemonCheck.Status = api.HealthDegraded
	}
	add(daemonCheck)

	storage := api.HealthCheck{Name: "storage", Status: api.HealthHealthy}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.venues.DB().PingContext(pingCtx); err != nil {
		storage.Status = api.HealthUnhealthy
		storage.Message = err.Error()
	} else if backlog := d.writer.Pending(); backlog > 0 {
		storage.Message = "pending saves: " + strconv.Itoa(backlog)
	}
	add(storage)

	add(d.tickCheck(engine.TickFast, d.cfg.Engine.FastTickInterval.D(), now))
	add(d.tickCheck(engine.TickSlow, d.cfg.Engine.SlowTickInterval.D(), now))
	return resp
}

func (d *Daemon) tickCheck(kind engine.TickKind, interval time.Duration, now time.Time) api.HealthCheck {
	check := api.HealthCheck{Name: string(kind) + "_tick", Status: api.HealthHealthy}
	last, ok := d.loop.LastReport(kind)
	switch {
	case !ok:
		check.Status = api.HealthDegraded
		check.Message = "no tick completed yet"
	case now.Sub(last.At) > 3*interval:
		check.Status = api.HealthDegraded
		check.Message = "last tick at " + last.At.Format(time.RFC3339)
	case last.Failures > 0:
		check.Status = api.HealthDegraded
		check.Message = strconv.Itoa(last.Failures) + " venue failures in last tick"
	}
	return check
}
