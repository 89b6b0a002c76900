package retry

import (
	"testing"
	"time"

	"git.home.luguber.info/inful/venuestatus/internal/config"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != config.RetryBackoffExponential {
		t.Fatalf("expected exponential default mode got %s", p.Mode)
	}
	if p.Initial != time.Second || p.Max != 30*time.Second || p.MaxRetries != 5 {
		t.Fatalf("unexpected defaults %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 3)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != config.RetryBackoffFixed {
		t.Fatalf("expected fixed mode got %s", p.Mode)
	}
	if p.MaxRetries != 3 {
		t.Fatalf("expected maxRetries 3 got %d", p.MaxRetries)
	}

	unknown := NewPolicy("sideways", 0, 0, -1)
	if unknown.Mode != config.RetryBackoffExponential || unknown.MaxRetries != 5 {
		t.Fatalf("unknown inputs should keep defaults, got %+v", unknown)
	}
}

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	cases := []struct {
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, time.Second, 3), 3, 100 * time.Millisecond},
		{NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5), 2, 200 * time.Millisecond},
		{NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5), 4, 250 * time.Millisecond},
		{NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5), 2, 100 * time.Millisecond},
		{NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5), 3, 160 * time.Millisecond},
		{NewPolicy(config.RetryBackoffExponential, time.Second, time.Minute, 100), 80, time.Minute},
	}
	for _, c := range cases {
		if got := c.policy.Delay(c.attempt); got != c.want {
			t.Fatalf("%s attempt %d expected %v got %v", c.policy.Mode, c.attempt, c.want, got)
		}
	}
	if d := DefaultPolicy().Delay(0); d != 0 {
		t.Fatalf("attempt 0 expected 0 got %v", d)
	}
}

func TestExhausted(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Second, time.Second, 2)
	if p.Exhausted(2) {
		t.Fatal("second retry is still within budget")
	}
	if !p.Exhausted(3) {
		t.Fatal("third retry exceeds a budget of two")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	p := FromConfig(cfg.Persistence)
	if p.Initial != time.Second || p.Max != 30*time.Second {
		t.Fatalf("unexpected policy from defaults %+v", p)
	}
}
